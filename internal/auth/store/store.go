package store

import (
	"context"
	"errors"

	"github.com/mysingle/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. We can change having the sub-repos as methods later but we do it
// now so we can have more control and actively stop people from accidently
// doing transactions within transactions.
type Store interface {
	Users() Users
	AuthorizationRequests() AuthorizationRequests
	Sessions() Sessions
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., redeeming
	// an authorization request). The caller MUST call Commit() or Rollback()
	// on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByProviderSubject looks up the account linked to a provider
	// identity. This is the match performed on every login callback.
	GetUserByProviderSubject(ctx context.Context, provider, subject string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserProfile refreshes the provider-asserted fields (email,
	// verification status, display name, picture) and bumps updated_at.
	UpdateUserProfile(ctx context.Context, userID, email string, emailVerified bool, displayName, picture string) error

	// SetUserActive flips the is_active flag and bumps updated_at.
	SetUserActive(ctx context.Context, userID string, active bool) error

	// SetUserSuperuser flips the is_superuser flag and bumps updated_at.
	SetUserSuperuser(ctx context.Context, userID string, superuser bool) error

	// DeleteUser cascades to sessions (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type AuthorizationRequests interface {
	// CreateAuthorizationRequest stores a freshly minted login request.
	CreateAuthorizationRequest(ctx context.Context, r domain.AuthorizationRequest) error

	// GetAuthorizationRequestByStateHash fetches a request by the
	// fingerprint of its state nonce when the callback arrives.
	GetAuthorizationRequestByStateHash(ctx context.Context, hash string) (domain.AuthorizationRequest, error)

	// ConsumeAuthorizationRequest marks a request as used. It only succeeds
	// for a request that has not been consumed yet, returning ErrNotFound
	// otherwise, which makes replayed callbacks fail atomically.
	ConsumeAuthorizationRequest(ctx context.Context, id string) error

	// DeleteExpiredAuthorizationRequests removes requests past their expiry.
	DeleteExpiredAuthorizationRequests(ctx context.Context) error
}

type Sessions interface {
	// CreateSession stores a new server-side session record (store mode).
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session by its id (the SID claim).
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// GetSessionByTokenHash returns a session by the fingerprint of its
	// credential.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// RevokeSession sets revoked_at, ending the session immediately.
	RevokeSession(ctx context.Context, id string) error

	// RevokeAllUserSessions bulk revocation for one user (e.g. deactivation).
	RevokeAllUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping for expired and revoked rows.
	DeleteExpiredSessions(ctx context.Context) error
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// GetSigningKeyByKid fetches a signing key by its key identifier.
	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListActiveSigningKeys returns all non-retired, non-expired signing keys
	// ordered by creation date (newest first).
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns all signing keys (including retired and expired)
	// ordered by creation date (newest first). Used for verification during grace period.
	ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RetireSigningKey marks a key as retired (sets retired_at timestamp).
	// Retired keys can still be used for verification but not for signing.
	RetireSigningKey(ctx context.Context, kid string) error

	// DeleteExpiredSigningKeys removes all keys that have passed their expires_at timestamp.
	// This is housekeeping to prevent unbounded growth of the signing_keys table.
	DeleteExpiredSigningKeys(ctx context.Context) error
}
