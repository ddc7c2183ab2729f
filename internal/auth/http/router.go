package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/internal/auth/store"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/mysingle/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	LoginService       *service.LoginService
	SessionService     *service.SessionService
	UserService        *service.UserService
	KeyRotationService *service.KeyRotationService

	// CookieOpts shape the session cookie written at login and cleared at
	// logout (domain, path, Secure toggle for dev).
	CookieOpts httpx.CookieOptions

	// PostLoginURL and ErrorURL are where the callback sends the browser on
	// success (without a return_to) and on failure.
	PostLoginURL string
	ErrorURL     string
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSessions()
	r.registerUsers()
	r.registerKeyRotation()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	h := &LoginHandler{
		LoginService: r.LoginService,
		CookieOpts:   r.CookieOpts,
		PostLoginURL: r.PostLoginURL,
		ErrorURL:     r.ErrorURL,
	}

	// GET /login - starts a flow; every hit writes a row, so keep it strict
	r.Mux.Handle("GET /api/oauth2/{provider}/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /callback - strict limit; this is the endpoint an attacker would
	// hammer to guess or replay states
	r.Mux.Handle("GET /api/oauth2/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSessions() {
	// POST /logout - unauthenticated on purpose: a credential that no longer
	// verifies can still be revoked and the cookie cleared
	logoutHandler := &LogoutHandler{
		SessionService: r.SessionService,
		CookieOpts:     r.CookieOpts,
	}
	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Introspection endpoint (RFC7662) - requires authentication so random
	// callers can't probe credentials, moderate limit
	introspectHandler := &IntrospectHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /v1/sessions/introspect",
		httpx.Chain(introspectHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserInfoHandler{UserService: r.UserService}

	// Authenticated endpoint - lenient rate limit by user
	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),     // verify credential (iss/aud/exp)
		httpx.RequireAnyScope("profile:read"), // enforce scopes
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /v1/userinfo", secured)
}

func (r *Router) registerKeyRotation() {
	h := &KeyRotationHandler{KeyRotationService: r.KeyRotationService}

	// POST /v1/keys/rotate - requires admin:write
	securedRotate := httpx.Chain(http.HandlerFunc(h.HandleRotate),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("admin:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// GET /v1/keys - requires admin:read
	securedList := httpx.Chain(http.HandlerFunc(h.HandleListKeys),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("admin:read"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// POST /v1/keys/{kid}/retire - requires admin:write
	securedRetire := httpx.Chain(http.HandlerFunc(h.HandleRetireKey),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("admin:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/keys/rotate", securedRotate)
	r.Mux.Handle("GET /v1/keys", securedList)
	r.Mux.Handle("POST /v1/keys/{kid}/retire", securedRetire)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
