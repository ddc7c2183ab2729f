package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/internal/auth/store"
)

type authorizationRequestsRepo struct {
	db dbtx
}

func (r *authorizationRequestsRepo) CreateAuthorizationRequest(ctx context.Context, req domain.AuthorizationRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authorization_requests (
			id, provider, state_hash, code_verifier, redirect_uri, return_to,
			scopes, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Provider, req.StateHash, req.CodeVerifier, req.RedirectURI,
		req.ReturnTo, joinScopes(req.Scopes), req.CreatedAt, req.ExpiresAt,
	)
	return err
}

func (r *authorizationRequestsRepo) GetAuthorizationRequestByStateHash(ctx context.Context, hash string) (domain.AuthorizationRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, provider, state_hash, code_verifier, redirect_uri, return_to,
			scopes, created_at, expires_at, used_at
		 FROM authorization_requests WHERE state_hash = ?`, hash)

	var req domain.AuthorizationRequest
	var scopes string
	var usedAt sql.NullTime
	err := row.Scan(
		&req.ID, &req.Provider, &req.StateHash, &req.CodeVerifier,
		&req.RedirectURI, &req.ReturnTo, &scopes,
		&req.CreatedAt, &req.ExpiresAt, &usedAt,
	)
	if err != nil {
		return domain.AuthorizationRequest{}, mapNotFound(err)
	}

	req.Scopes = splitScopes(scopes)
	req.UsedAt = mapNullTimePtr(usedAt)
	return req, nil
}

// ConsumeAuthorizationRequest is a conditional update so two concurrent
// callbacks with the same state cannot both win.
func (r *authorizationRequestsRepo) ConsumeAuthorizationRequest(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE authorization_requests SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *authorizationRequestsRepo) DeleteExpiredAuthorizationRequests(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM authorization_requests WHERE expires_at < ?`, time.Now().UTC())
	return err
}
