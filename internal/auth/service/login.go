package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/internal/auth/provider"
	"github.com/mysingle/auth/internal/auth/store"
	"github.com/mysingle/auth/pkg/cryptox"
	"github.com/mysingle/auth/pkg/idx"
	"github.com/mysingle/auth/pkg/jwtx"
	"github.com/mysingle/auth/pkg/slogx"
)

var (
	// ErrUnknownProvider means the URL named a provider this deployment
	// doesn't have configured.
	ErrUnknownProvider = errors.New("unknown_provider")

	// ErrStateMismatch covers every way the state parameter can fail: bad
	// signature, no matching request, wrong provider, expired, or replayed.
	// Callers get one error for all of them; the logs tell them apart.
	ErrStateMismatch = errors.New("state_mismatch")

	// ErrExchange means the provider rejected the code exchange or the
	// identity fetch failed upstream.
	ErrExchange = errors.New("exchange_failed")

	// ErrIncompleteIdentity means the provider authenticated the user but
	// didn't assert enough (subject + email) to create a platform account.
	ErrIncompleteIdentity = errors.New("incomplete_identity")

	// ErrUserInactive means the account exists but has been deactivated.
	ErrUserInactive = errors.New("user_inactive")
)

// LoginService runs the authorization-code login flow against the upstream
// identity providers: minting the redirect on /login and redeeming the
// callback into a platform session.
type LoginService struct {
	Store     store.Store
	Providers map[string]provider.Provider
	States    *cryptox.StateSigner
	Sessions  *SessionService
	StateTTL  time.Duration
}

// BeginAuthorization starts a login with the named provider. It records a
// single-use authorization request (state fingerprint + PKCE verifier) and
// returns the provider URL to redirect the browser to.
//
// returnTo is where the browser should land after the callback; anything
// that isn't a relative path is dropped to keep the redirect on-site.
func (s *LoginService) BeginAuthorization(ctx context.Context, providerName, returnTo string) (string, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	p, ok := s.Providers[providerName]
	if !ok {
		return "", ErrUnknownProvider
	}

	nonce, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}
	state := s.States.Sign(nonce)

	codeVerifier, err := cryptox.NewCodeVerifier()
	if err != nil {
		return "", err
	}

	ttl := s.StateTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultStateTTL
	}

	request := domain.AuthorizationRequest{
		ID:           idx.New().String(),
		Provider:     providerName,
		StateHash:    cryptox.FingerprintToken(nonce),
		CodeVerifier: codeVerifier,
		RedirectURI:  p.RedirectURI(),
		ReturnTo:     sanitizeReturnTo(returnTo),
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	if err := s.Store.AuthorizationRequests().CreateAuthorizationRequest(ctx, request); err != nil {
		return "", err
	}

	l.Info("authorization started",
		slog.String("request_id", request.ID),
		slog.String("provider", providerName),
	)

	return p.AuthCodeURL(state, codeVerifier), nil
}

// HandleCallback redeems a provider callback into a session credential.
//
// Validation order matters: the state signature is checked before any
// database access, the request is consumed before the code is exchanged, so
// a forged state never touches the store and a replayed one never reaches
// the provider's token endpoint. Returns the credential and the returnTo
// recorded when the login started.
func (s *LoginService) HandleCallback(ctx context.Context, providerName, state, code string) (*domain.SessionCredential, string, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	p, ok := s.Providers[providerName]
	if !ok {
		return nil, "", ErrUnknownProvider
	}

	nonce, err := s.States.Verify(state)
	if err != nil {
		l.Info("callback state signature rejected", slog.String("provider", providerName))
		return nil, "", ErrStateMismatch
	}

	request, err := s.Store.AuthorizationRequests().GetAuthorizationRequestByStateHash(ctx, cryptox.FingerprintToken(nonce))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("callback state has no pending request", slog.String("provider", providerName))
			return nil, "", ErrStateMismatch
		}
		return nil, "", err
	}

	if request.Provider != providerName {
		l.Warn("callback provider does not match request",
			slog.String("request_id", request.ID),
			slog.String("expected", request.Provider),
			slog.String("got", providerName),
		)
		return nil, "", ErrStateMismatch
	}

	if !request.Redeemable(now) {
		l.Info("callback request expired or already used", slog.String("request_id", request.ID))
		return nil, "", ErrStateMismatch
	}

	// Consume before exchanging. Two callbacks racing on the same state can
	// both pass the Redeemable check; only one wins the conditional update.
	if err := s.Store.AuthorizationRequests().ConsumeAuthorizationRequest(ctx, request.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("callback lost consume race", slog.String("request_id", request.ID))
			return nil, "", ErrStateMismatch
		}
		return nil, "", err
	}

	token, err := p.Exchange(ctx, code, request.CodeVerifier)
	if err != nil {
		l.Error("code exchange failed",
			slog.String("request_id", request.ID),
			slog.String("provider", providerName),
			slog.Any("error", err),
		)
		return nil, "", ErrExchange
	}

	identity, err := p.Identity(ctx, token)
	if err != nil {
		l.Error("identity fetch failed",
			slog.String("request_id", request.ID),
			slog.String("provider", providerName),
			slog.Any("error", err),
		)
		return nil, "", ErrExchange
	}

	if !identity.Complete() {
		l.Warn("provider identity missing subject or email",
			slog.String("request_id", request.ID),
			slog.String("provider", providerName),
		)
		return nil, "", ErrIncompleteIdentity
	}

	user, err := s.upsertUser(ctx, identity, now)
	if err != nil {
		return nil, "", err
	}

	credential, err := s.Sessions.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	l.Info("login completed",
		slog.String("user_id", user.ID),
		slog.String("provider", providerName),
		slog.String("session_id", credential.SessionID),
	)

	return credential, request.ReturnTo, nil
}

// upsertUser matches the provider identity to a platform account, creating
// one on first login and refreshing the provider-asserted fields otherwise.
func (s *LoginService) upsertUser(ctx context.Context, identity domain.Identity, now time.Time) (domain.User, error) {
	var user domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Users().GetUserByProviderSubject(ctx, identity.Provider, identity.Subject)
		if errors.Is(err, store.ErrNotFound) {
			user = domain.User{
				ID:              idx.New().String(),
				Provider:        identity.Provider,
				ProviderSubject: identity.Subject,
				Email:           identity.Email,
				EmailVerified:   identity.EmailVerified,
				DisplayName:     identity.Name,
				Picture:         identity.Picture,
				IsActive:        true,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			slogx.FromContext(ctx).Info("user created",
				slog.String("user_id", user.ID),
				slog.String("provider", identity.Provider),
			)
			return tx.Users().CreateUser(ctx, user)
		}
		if err != nil {
			return err
		}

		if !existing.IsActive {
			return ErrUserInactive
		}

		if err := tx.Users().UpdateUserProfile(ctx, existing.ID, identity.Email, identity.EmailVerified, identity.Name, identity.Picture); err != nil {
			return err
		}

		user = existing
		user.Email = identity.Email
		user.EmailVerified = identity.EmailVerified
		user.DisplayName = identity.Name
		user.Picture = identity.Picture
		user.UpdatedAt = now
		return nil
	})

	return user, err
}

// sanitizeReturnTo keeps post-login redirects on-site. Only relative paths
// pass; absolute URLs and protocol-relative ("//evil") values are dropped.
func sanitizeReturnTo(returnTo string) string {
	if returnTo == "" {
		return ""
	}
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return ""
	}
	return returnTo
}
