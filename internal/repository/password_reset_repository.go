package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/quantivue/backend/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, email, token string, expiresAt time.Time) error
	GetLatestByEmail(ctx context.Context, email string) (*models.PasswordReset, bool, error)
	Remove(ctx context.Context, id int64) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, email, token string, expiresAt time.Time) error {
	query := `INSERT INTO password_resets (email, token, expires_at) VALUES (LOWER($1), $2, $3)`
	_, err := r.db.ExecContext(ctx, query, email, token, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// GetLatestByEmail returns only the single most recent code by insertion
// order; older unconsumed codes are never matched.
func (r *passwordResetRepository) GetLatestByEmail(ctx context.Context, email string) (*models.PasswordReset, bool, error) {
	query := `
		SELECT id, email, token, expires_at, created_at
		FROM password_resets
		WHERE LOWER(email) = LOWER($1)
		ORDER BY id DESC
		LIMIT 1
	`

	var pr models.PasswordReset
	err := r.db.QueryRowContext(ctx, query, email).Scan(&pr.ID, &pr.Email, &pr.Token, &pr.ExpiresAt, &pr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &pr, true, nil
}

func (r *passwordResetRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM password_resets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *passwordResetRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at < $1`, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
