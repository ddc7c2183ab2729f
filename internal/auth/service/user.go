package service

import (
	"context"
	"log/slog"

	"github.com/mysingle/auth/internal/auth/domain"
	"github.com/mysingle/auth/internal/auth/store"
	"github.com/mysingle/auth/pkg/slogx"
)

// UserService exposes account lookups and the admin-side account switches.
// Account creation happens in the login flow, not here.
type UserService struct {
	Store store.Store
}

// GetUser returns one user by id. Callers map store.ErrNotFound themselves.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// Deactivate disables an account and revokes all of its live sessions in one
// transaction, so a deactivated user cannot keep using a store-mode session.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetUserActive(ctx, userID, false); err != nil {
			return err
		}
		return tx.Sessions().RevokeAllUserSessions(ctx, userID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user deactivated", slog.String("user_id", userID))
	return nil
}

// Activate re-enables a previously deactivated account. Old sessions stay
// revoked; the user logs in again.
func (s *UserService) Activate(ctx context.Context, userID string) error {
	return s.Store.Users().SetUserActive(ctx, userID, true)
}

// SetSuperuser flips the superuser flag. Takes effect on the next login;
// existing sessions keep the scopes they were issued with.
func (s *UserService) SetSuperuser(ctx context.Context, userID string, superuser bool) error {
	if err := s.Store.Users().SetUserSuperuser(ctx, userID, superuser); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user superuser flag changed",
		slog.String("user_id", userID),
		slog.Bool("superuser", superuser),
	)
	return nil
}
