package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/slogx"
)

// LoginHandler serves the browser-facing ends of the OAuth2 flow:
// GET /api/oauth2/{provider}/login and GET /api/oauth2/{provider}/callback.
type LoginHandler struct {
	LoginService *service.LoginService
	CookieOpts   httpx.CookieOptions

	// PostLoginURL is where the browser lands after a login with no
	// return_to. Defaults to "/".
	PostLoginURL string

	// ErrorURL is where failed logins land; the failure is reported as an
	// opaque ?error= code. Defaults to "/login/error".
	ErrorURL string
}

// HandleLogin starts a login: records the authorization request and sends
// the browser to the provider.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	providerName := r.PathValue("provider")
	returnTo := r.URL.Query().Get("return_to")

	redirect, err := h.LoginService.BeginAuthorization(ctx, providerName, returnTo)
	if err != nil {
		if errors.Is(err, service.ErrUnknownProvider) {
			httpx.WriteJSON(w, http.StatusNotFound, authsdk.ErrorResponse{
				Error:            "unknown_provider",
				ErrorDescription: "no such identity provider",
			})
			return
		}
		log.Error("failed to start login", "provider", providerName, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, redirect, http.StatusFound)
}

// HandleCallback finishes a login: redeems the provider callback for a
// session, sets the session cookie, and sends the browser on. Failures
// redirect to the error page with an opaque code; details stay in the logs.
func (h *LoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	providerName := r.PathValue("provider")
	q := r.URL.Query()
	state := q.Get("state")
	code := q.Get("code")

	if state == "" || code == "" {
		// Providers report user denial and their own errors without a code.
		if provErr := q.Get("error"); provErr != "" {
			log.Info("provider returned error on callback",
				"provider", providerName,
				"error", provErr,
			)
			h.redirectError(w, r, "access_denied")
			return
		}
		h.redirectError(w, r, "invalid_request")
		return
	}

	credential, returnTo, err := h.LoginService.HandleCallback(ctx, providerName, state, code)
	if err != nil {
		h.redirectError(w, r, callbackErrorCode(err))
		return
	}

	httpx.NoCache(w)
	httpx.SetSessionCookie(w, credential.Token, credential.ExpiresAt, h.CookieOpts)

	target := returnTo
	if target == "" {
		target = h.PostLoginURL
	}
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// callbackErrorCode maps a callback failure to the opaque code exposed in the
// redirect. Anything unexpected collapses to server_error.
func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, service.ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, service.ErrExchange):
		return "exchange_failed"
	case errors.Is(err, service.ErrIncompleteIdentity):
		return "incomplete_identity"
	case errors.Is(err, service.ErrUserInactive):
		return "account_disabled"
	default:
		return "server_error"
	}
}

func (h *LoginHandler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	target := h.ErrorURL
	if target == "" {
		target = "/login/error"
	}
	httpx.NoCache(w)
	http.Redirect(w, r, target+"?error="+url.QueryEscape(code), http.StatusFound)
}
