package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/internal/auth/store"
	"github.com/mysingle/auth/pkg/cryptox"
	"github.com/mysingle/auth/pkg/idx"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/mysingle/auth/pkg/slogx"
)

var (
	// ErrSessionInvalid covers every way a presented credential can fail:
	// bad signature, unknown key, expired, revoked, or no backing record.
	ErrSessionInvalid = errors.New("invalid_session")
)

// SessionService issues and verifies session credentials.
//
// Two modes:
//   - jwt: self-contained credentials, nothing stored server-side. Logout
//     only clears the cookie; the credential stays valid until expiry.
//   - store: every credential is backed by a sessions row keyed by the SID
//     claim, so revocation takes effect immediately.
type SessionService struct {
	Store      store.Store // required in store mode, may be nil in jwt mode
	KeyManager *jwtx.KeyManager
	Mode       string // domain.SessionModeJWT or domain.SessionModeStore
	Issuer     string
	Audience   []string
	TTL        time.Duration
}

// Introspection is the result of examining a presented credential. Inactive
// results carry no claims, mirroring RFC 7662's "active": false response.
type Introspection struct {
	Active bool
	Claims jwtx.Claims
}

// Issue signs a fresh session credential for a logged-in user. Scopes are
// derived from the user's flags at issue time; a superuser grant after login
// does not widen existing sessions.
func (s *SessionService) Issue(ctx context.Context, u domain.User) (*domain.SessionCredential, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	sid := idx.New().String()
	scopes := domain.ScopesForUser(&u)

	claims := jwtx.NewSessionClaims(
		u.ID,
		sid,
		u.Email,
		u.EmailVerified,
		u.DisplayName,
		u.Provider,
		scopes,
		ttl,
		s.Issuer,
		s.Audience,
		now,
	)

	signer := s.KeyManager.GetSigner()
	token, err := signer.Sign(claims)
	if err != nil {
		l.Error("failed to sign session credential", slog.Any("error", err))
		return nil, err
	}

	if s.Mode == domain.SessionModeStore {
		record := domain.Session{
			ID:        sid,
			UserID:    u.ID,
			TokenHash: cryptox.FingerprintToken(token),
			Scopes:    scopes,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		if err := s.Store.Sessions().CreateSession(ctx, record); err != nil {
			return nil, err
		}
	}

	l.Info("session issued",
		slog.String("session_id", sid),
		slog.String("user_id", u.ID),
		slog.String("mode", s.Mode),
	)

	return &domain.SessionCredential{
		Token:     token,
		TokenType: "Bearer",
		SessionID: sid,
		UserID:    u.ID,
		Scopes:    scopes,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Verify checks a presented credential: signature, issuer, audience, and
// expiry always; in store mode additionally that the backing session record
// exists and has not been revoked.
func (s *SessionService) Verify(ctx context.Context, token string) (jwtx.Claims, error) {
	claims, err := s.KeyManager.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, err
	}

	if s.Mode == domain.SessionModeStore {
		record, err := s.Store.Sessions().GetSessionByID(ctx, claims.SID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return jwtx.Claims{}, ErrSessionInvalid
			}
			return jwtx.Claims{}, err
		}
		if !record.Live(time.Now()) {
			return jwtx.Claims{}, ErrSessionInvalid
		}
	}

	return claims, nil
}

// Introspect reports whether a credential is active and, if so, its claims.
// Any verification failure yields an inactive result rather than an error so
// callers can always answer with a well-formed introspection response.
func (s *SessionService) Introspect(ctx context.Context, token string) Introspection {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		slogx.FromContext(ctx).Debug("introspected credential inactive", slog.Any("reason", err))
		return Introspection{}
	}
	return Introspection{Active: true, Claims: claims}
}

// Revoke ends the session behind a credential. Lookup is by credential
// fingerprint, so even a credential that no longer verifies (e.g. its signing
// key was retired) can still be revoked. In jwt mode this is a no-op.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if s.Mode != domain.SessionModeStore {
		return nil
	}

	record, err := s.Store.Sessions().GetSessionByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Nothing to revoke; logout is idempotent.
			return nil
		}
		return err
	}

	if err := s.Store.Sessions().RevokeSession(ctx, record.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	slogx.FromContext(ctx).Info("session revoked",
		slog.String("session_id", record.ID),
		slog.String("user_id", record.UserID),
	)
	return nil
}

// RevokeAllForUser revokes every live session of one user, e.g. when the
// account is deactivated. In jwt mode there is nothing to revoke.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	if s.Mode != domain.SessionModeStore {
		return nil
	}
	return s.Store.Sessions().RevokeAllUserSessions(ctx, userID)
}
