package httpx

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie that carries the session credential for
// browser clients. API clients use the Authorization header instead.
const SessionCookieName = "mysingle_session"

// CookieOptions controls attributes of the session cookie. Secure should
// only be disabled for local development over plain HTTP.
type CookieOptions struct {
	Domain string
	Path   string
	Secure bool
}

// SetSessionCookie writes the session credential as an HttpOnly cookie.
// Max-Age is aligned with the credential expiry so the browser drops the
// cookie at the same moment the token stops verifying.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, opts CookieOptions) {
	path := opts.Path
	if path == "" {
		path = "/"
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Domain:   opts.Domain,
		Path:     path,
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately. Called on
// logout and when a presented cookie fails verification.
func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	path := opts.Path
	if path == "" {
		path = "/"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Domain:   opts.Domain,
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromRequest extracts the raw session credential from the request,
// preferring the Authorization header over the cookie so API clients can
// override a stale browser session.
func SessionFromRequest(r *http.Request) (token string, fromCookie bool) {
	if raw := bearerToken(r); raw != "" {
		return raw, false
	}

	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	return "", false
}
