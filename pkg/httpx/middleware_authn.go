package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/mysingle/auth/pkg/slogx"
)

// AuthnMiddleware verifies the session credential on each request. The
// credential may arrive as a bearer token or as the session cookie; both
// paths run through the same verifier.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, fromCookie := SessionFromRequest(r)
			if raw == "" {
				writeBearerError(w, "missing session credential")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				if fromCookie {
					// Drop the bad cookie so the browser re-authenticates
					// instead of replaying it forever.
					ClearSessionCookie(w, CookieOptions{})
				}
				writeBearerError(w, "token verification failed")
				log.Warn("session verify failed", "err", err, "from_cookie", fromCookie)
				return
			}

			if err := claims.ValidateExpiry(); err != nil {
				writeBearerError(w, "token expired")
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyScopes, c.Scopes)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
