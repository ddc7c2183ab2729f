package http

import (
	"net/http"

	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/slogx"
)

// LogoutHandler serves POST /v1/logout. The cookie is always cleared; in
// store mode the backing session is revoked too. No authentication required:
// a credential that no longer verifies can still be logged out.
type LogoutHandler struct {
	SessionService *service.SessionService
	CookieOpts     httpx.CookieOptions
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, _ := httpx.SessionFromRequest(r)
	if token != "" {
		if err := h.SessionService.Revoke(ctx, token); err != nil {
			log.Error("failed to revoke session on logout", "err", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}
	}

	httpx.ClearSessionCookie(w, h.CookieOpts)
	w.WriteHeader(http.StatusNoContent)
}
