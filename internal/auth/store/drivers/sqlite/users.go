package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mysingle/auth/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, provider, provider_subject, email, email_verified,
	display_name, picture, is_active, is_superuser, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Provider, &u.ProviderSubject, &u.Email, &u.EmailVerified,
		&u.DisplayName, &u.Picture, &u.IsActive, &u.IsSuperuser,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByProviderSubject(ctx context.Context, provider, subject string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = ? AND provider_subject = ?`,
		provider, subject)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (
			id, provider, provider_subject, email, email_verified,
			display_name, picture, is_active, is_superuser, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Provider, u.ProviderSubject, u.Email, u.EmailVerified,
		u.DisplayName, u.Picture, u.IsActive, u.IsSuperuser, now, now,
	)
	return err
}

func (r *usersRepo) UpdateUserProfile(ctx context.Context, userID, email string, emailVerified bool, displayName, picture string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, email_verified = ?, display_name = ?, picture = ?, updated_at = ?
		 WHERE id = ?`,
		email, emailVerified, displayName, picture, time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) SetUserActive(ctx context.Context, userID string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) SetUserSuperuser(ctx context.Context, userID string, superuser bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_superuser = ?, updated_at = ? WHERE id = ?`,
		superuser, time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}
