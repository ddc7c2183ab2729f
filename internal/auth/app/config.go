package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/pkg/jwtx"
)

// ProviderCredentials is the registration of this service with one upstream
// identity provider. A provider is enabled when its client id is set.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	Issuer   string   // Issuer claim for session credentials (default: mysingle-auth)
	Audience []string // Audience claim, validated on verification (default: mysingle-api)

	SessionMode string        // Session mode: jwt (stateless) or store (revocable) (default: jwt)
	SessionTTL  time.Duration // Session credential lifetime (default: 1h)
	StateTTL    time.Duration // How long a pending login stays redeemable (default: 10m)

	// MasterSecret feeds HKDF-derived subkeys (state signing). When empty a
	// random secret is generated at startup, which invalidates pending
	// logins across restarts the same way ephemeral keys invalidate tokens.
	MasterSecret string

	PublicURL    string // Externally visible base URL, used to build provider callback URIs
	PostLoginURL string // Where the browser lands after login without a return_to (default: /)
	ErrorURL     string // Where failed logins land (default: /login/error)

	CookieDomain string // Optional cookie Domain attribute
	CookieSecure bool   // Secure attribute on the session cookie (default: true; disable for local dev)

	Google ProviderCredentials
	Kakao  ProviderCredentials
	Naver  ProviderCredentials

	// Generic OIDC provider, enabled when a client id and discovery URL are set.
	OIDC             ProviderCredentials
	OIDCDiscoveryURL string

	Algorithm            string        // Optional: JWT signing algorithm (RS256, ES256, EdDSA) (default: EdDSA)
	RSABits              int           // Optional: RSA key size for RS256 (default: 4096)
	NumKeys              int           // Optional: number of signing keys to generate (default: 3, min: 1, max: 10)
	KeyStorageMode       string        // Optional: key storage mode (ephemeral, persistent) (default: ephemeral)
	KeyGracePeriod       time.Duration // Optional: grace period for retired keys (default: 30 days)
	MasterKeyPath        string        // Optional: path to master encryption key file (for persistent keys)
	DatabaseFile         string        // Optional: path to SQLite database file (default: ./auth.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:   getEnvOrDefault("AUTH_ISSUER", "mysingle-auth"),
		Audience: splitCSV(getEnvOrDefault("AUTH_AUDIENCE", "mysingle-api")),

		SessionMode: getEnvOrDefault("AUTH_SESSION_MODE", domain.SessionModeJWT),
		SessionTTL:  getEnvDurationOrDefault("AUTH_SESSION_TTL", jwtx.DefaultSessionTTL),
		StateTTL:    getEnvDurationOrDefault("AUTH_STATE_TTL", jwtx.DefaultStateTTL),

		MasterSecret: os.Getenv("AUTH_MASTER_SECRET"),

		PublicURL:    getEnvOrDefault("AUTH_PUBLIC_URL", "http://localhost:8080"),
		PostLoginURL: getEnvOrDefault("AUTH_POST_LOGIN_URL", "/"),
		ErrorURL:     getEnvOrDefault("AUTH_LOGIN_ERROR_URL", "/login/error"),

		CookieDomain: os.Getenv("AUTH_COOKIE_DOMAIN"),
		CookieSecure: getEnvBoolOrDefault("AUTH_COOKIE_SECURE", true),

		Google: ProviderCredentials{
			ClientID:     os.Getenv("AUTH_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH_GOOGLE_CLIENT_SECRET"),
		},
		Kakao: ProviderCredentials{
			ClientID:     os.Getenv("AUTH_KAKAO_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH_KAKAO_CLIENT_SECRET"),
		},
		Naver: ProviderCredentials{
			ClientID:     os.Getenv("AUTH_NAVER_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH_NAVER_CLIENT_SECRET"),
		},
		OIDC: ProviderCredentials{
			ClientID:     os.Getenv("AUTH_OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH_OIDC_CLIENT_SECRET"),
		},
		OIDCDiscoveryURL: os.Getenv("AUTH_OIDC_DISCOVERY_URL"),

		Algorithm:            getEnvOrDefault("AUTH_ALGORITHM", "EdDSA"),
		KeyStorageMode:       getEnvOrDefault("AUTH_KEY_STORAGE_MODE", "ephemeral"),
		KeyGracePeriod:       getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", 30*24*time.Hour),
		MasterKeyPath:        os.Getenv("AUTH_MASTER_KEY_PATH"),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Parse RSA bits (only relevant for RS256)
	if rsaBitsStr := os.Getenv("AUTH_RSA_BITS"); rsaBitsStr != "" {
		if bits, err := strconv.Atoi(rsaBitsStr); err == nil {
			cfg.RSABits = bits
		}
		// If parsing fails, RSABits remains 0 (will use default in KeyManager)
	}

	// Parse number of keys (default: 3)
	if numKeysStr := os.Getenv("AUTH_NUM_KEYS"); numKeysStr != "" {
		if numKeys, err := strconv.Atoi(numKeysStr); err == nil {
			cfg.NumKeys = numKeys
		}
		// If parsing fails, NumKeys remains 0 (will use default in KeyManager)
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
