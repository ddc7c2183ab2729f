package http

import (
	"net/http"
	"strings"

	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/httpx"
)

// IntrospectHandler serves POST /v1/sessions/introspect following RFC 7662.
// Resource services post a credential and get back whether it is active plus
// its claims. Inactive results reveal nothing about why.
type IntrospectHandler struct {
	SessionService *service.SessionService
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// Only session credentials exist to introspect; any other hint is an
	// unknown token type and therefore inactive per RFC 7662.
	if hint := r.Form.Get("token_type_hint"); hint != "" && hint != "access_token" {
		writeInactiveResponse(w)
		return
	}

	result := h.SessionService.Introspect(r.Context(), token)
	if !result.Active {
		writeInactiveResponse(w)
		return
	}

	claims := result.Claims
	response := authsdk.IntrospectionResponse{
		Active:        true,
		Scope:         strings.Join(claims.Scopes, " "),
		TokenType:     "Bearer",
		Sub:           claims.Subject,
		Iss:           claims.Issuer,
		Jti:           claims.ID,
		SessionID:     claims.SID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Provider:      claims.Provider,
	}

	if len(claims.Audience) > 0 {
		response.Aud = claims.Audience
	}
	if claims.ExpiresAt != nil {
		response.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		response.Iat = claims.IssuedAt.Unix()
	}
	if claims.NotBefore != nil {
		response.Nbf = claims.NotBefore.Unix()
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

// writeInactiveResponse is the minimal RFC 7662 response for credentials that
// are invalid, expired, revoked, or unknown.
func writeInactiveResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"active":false}`))
}
