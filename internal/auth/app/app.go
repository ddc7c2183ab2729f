package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/mysingle/auth/internal/auth/http"
	"github.com/mysingle/auth/internal/auth/provider"
	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/internal/auth/store"
	"github.com/mysingle/auth/internal/auth/store/drivers/sqlite"
	"github.com/mysingle/auth/pkg/cryptox"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/mysingle/auth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	providers  map[string]provider.Provider

	// Services
	loginService        *service.LoginService
	sessionService      *service.SessionService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService
	keyRotationService  *service.KeyRotationService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Initialize database first (required for persistent keys)
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// Initialize JWT key manager (after database for persistent mode)
	ctx := context.Background()
	keyManager, err := InitAuthKeys(ctx, app.cfg, app.db, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initProviders(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initProviders registers every identity provider with credentials configured.
func (app *Application) initProviders() error {
	app.providers = make(map[string]provider.Provider)

	register := func(cfg provider.Config) error {
		p, err := provider.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to configure provider %s: %w", cfg.Name, err)
		}
		app.providers[cfg.Name] = p
		app.logger.Info("identity provider registered", "provider", cfg.Name)
		return nil
	}

	if app.cfg.Google.ClientID != "" {
		if err := register(provider.Config{
			Name:         "google",
			ClientID:     app.cfg.Google.ClientID,
			ClientSecret: app.cfg.Google.ClientSecret,
			RedirectURI:  app.callbackURL("google"),
		}); err != nil {
			return err
		}
	}

	if app.cfg.Kakao.ClientID != "" {
		if err := register(provider.Config{
			Name:         "kakao",
			ClientID:     app.cfg.Kakao.ClientID,
			ClientSecret: app.cfg.Kakao.ClientSecret,
			RedirectURI:  app.callbackURL("kakao"),
		}); err != nil {
			return err
		}
	}

	if app.cfg.Naver.ClientID != "" {
		if err := register(provider.Config{
			Name:         "naver",
			ClientID:     app.cfg.Naver.ClientID,
			ClientSecret: app.cfg.Naver.ClientSecret,
			RedirectURI:  app.callbackURL("naver"),
		}); err != nil {
			return err
		}
	}

	if app.cfg.OIDC.ClientID != "" {
		if err := register(provider.Config{
			Name:         "oidc",
			ClientID:     app.cfg.OIDC.ClientID,
			ClientSecret: app.cfg.OIDC.ClientSecret,
			RedirectURI:  app.callbackURL("oidc"),
			DiscoveryURL: app.cfg.OIDCDiscoveryURL,
		}); err != nil {
			return err
		}
	}

	if len(app.providers) == 0 {
		app.logger.Warn("no identity providers configured; logins will fail until one is")
	}

	return nil
}

func (app *Application) callbackURL(providerName string) string {
	return fmt.Sprintf("%s/api/oauth2/%s/callback", app.cfg.PublicURL, providerName)
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	masterSecret := app.cfg.MasterSecret
	if masterSecret == "" {
		// Random secret per process: pending logins don't survive restarts,
		// matching what ephemeral signing keys do to issued tokens.
		masterSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("AUTH_MASTER_SECRET not set; pending logins will not survive restarts")
	}

	states, err := cryptox.NewStateSigner([]byte(masterSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize state signer: %w", err)
	}

	app.sessionService = &service.SessionService{
		Store:      app.db,
		KeyManager: app.keyManager,
		Mode:       app.cfg.SessionMode,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		TTL:        app.cfg.SessionTTL,
	}

	app.loginService = &service.LoginService{
		Store:     app.db,
		Providers: app.providers,
		States:    states,
		Sessions:  app.sessionService,
		StateTTL:  app.cfg.StateTTL,
	}

	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	// KeyRotationService works in both modes; only persistent mode writes
	// rotated keys to the database.
	if app.cfg.KeyStorageMode == "persistent" {
		app.keyRotationService = &service.KeyRotationService{
			Store:       app.db,
			KeyManager:  app.keyManager,
			Algorithm:   app.cfg.Algorithm,
			RSABits:     app.cfg.RSABits,
			GracePeriod: app.cfg.KeyGracePeriod,
		}
		app.logger.Info("key rotation service enabled (persistent mode)")
	} else {
		app.keyRotationService = &service.KeyRotationService{
			Store:      nil,
			KeyManager: app.keyManager,
			Algorithm:  app.cfg.Algorithm,
			RSABits:    app.cfg.RSABits,
		}
		app.logger.Info("key rotation service enabled (ephemeral mode)")
	}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.LoginService = app.loginService
	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.KeyRotationService = app.keyRotationService
	router.CookieOpts = httpx.CookieOptions{
		Domain: app.cfg.CookieDomain,
		Secure: app.cfg.CookieSecure,
	}
	router.PostLoginURL = app.cfg.PostLoginURL
	router.ErrorURL = app.cfg.ErrorURL
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
