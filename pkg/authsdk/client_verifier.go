package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mysingle/auth/pkg/jwtx"
)

// DefaultJWKSRefreshInterval is how often the RemoteVerifier refetches the
// key set. Rotation publishes new keys before using them, so a conservative
// interval is fine.
const DefaultJWKSRefreshInterval = 15 * time.Minute

// RemoteVerifier verifies session credentials locally using public keys
// fetched from the auth service's JWKS endpoint. This is what sibling
// resource services embed so that every request doesn't round-trip to the
// auth service.
//
// On an unknown kid the verifier refetches the JWKS once before failing,
// which covers the window right after a key rotation.
type RemoteVerifier struct {
	client    *SDKClient
	algorithm string
	issuer    string
	audience  []string

	refreshInterval time.Duration

	mu          sync.Mutex
	keys        *jwtx.KeySet
	verifier    jwtx.Verifier
	lastFetched time.Time
}

// NewRemoteVerifier builds a RemoteVerifier and performs the initial JWKS
// fetch. The algorithm must match the auth service's configured signing
// algorithm; issuer and audience are enforced on every verification.
func NewRemoteVerifier(ctx context.Context, client *SDKClient, algorithm, issuer string, audience []string) (*RemoteVerifier, error) {
	switch algorithm {
	case jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA:
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}

	v := &RemoteVerifier{
		client:          client,
		algorithm:       algorithm,
		issuer:          issuer,
		audience:        audience,
		refreshInterval: DefaultJWKSRefreshInterval,
		keys:            jwtx.NewKeySet(),
	}

	if err := v.refresh(ctx); err != nil {
		return nil, fmt.Errorf("initial JWKS fetch failed: %w", err)
	}

	return v, nil
}

// Verify checks the credential's signature and claims. It satisfies
// jwtx.Verifier so it can be dropped into httpx.AuthnMiddleware.
func (v *RemoteVerifier) Verify(token string) (jwtx.Claims, error) {
	v.maybeRefresh()

	v.mu.Lock()
	verifier := v.verifier
	v.mu.Unlock()

	claims, err := verifier.Verify(token)
	if err == nil {
		return claims, nil
	}

	// Unknown kid right after a rotation: refetch once and retry.
	if errors.Is(err, jwtx.ErrNoKey) || errors.Is(err, jwtx.ErrUnknownKID) {
		if rerr := v.refresh(context.Background()); rerr == nil {
			v.mu.Lock()
			verifier = v.verifier
			v.mu.Unlock()
			return verifier.Verify(token)
		}
	}

	return jwtx.Claims{}, err
}

// maybeRefresh refetches the JWKS when the cached copy is older than the
// refresh interval. Failures keep the existing keys.
func (v *RemoteVerifier) maybeRefresh() {
	v.mu.Lock()
	stale := time.Since(v.lastFetched) > v.refreshInterval
	v.mu.Unlock()

	if stale {
		_ = v.refresh(context.Background())
	}
}

// refresh replaces the cached key set with a freshly fetched JWKS.
func (v *RemoteVerifier) refresh(ctx context.Context) error {
	jwksResp, err := v.client.GetJWKS(ctx)
	if err != nil {
		return err
	}

	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(jwtx.JWKS(*jwksResp)); err != nil {
		return err
	}

	var verifier jwtx.Verifier
	switch v.algorithm {
	case jwtx.AlgorithmRS256:
		verifier = jwtx.NewCommonRS256(keys, v.issuer, v.audience)
	case jwtx.AlgorithmES256:
		verifier = jwtx.NewCommonES256(keys, v.issuer, v.audience)
	case jwtx.AlgorithmEdDSA:
		verifier = jwtx.NewCommonEdDSA(keys, v.issuer, v.audience)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys = keys
	v.verifier = verifier
	v.lastFetched = time.Now()
	return nil
}
