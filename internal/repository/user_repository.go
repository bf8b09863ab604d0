package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/quantivue/backend/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	LinkGoogleID(ctx context.Context, id int64, googleID string) error
	IncrementLoginCount(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	query := `SELECT id, full_name, email, password, signup_type, google_id, email_verified, sms_verified, verified, login_count, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FullName, &user.Email, &user.Password, &user.SignupType, &user.GoogleID,
		&user.EmailVerified, &user.SMSVerified, &user.Verified, &user.LoginCount, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	var user models.User
	query := `SELECT id, full_name, email, password, signup_type, google_id, email_verified, sms_verified, verified, login_count, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.FullName, &user.Email, &user.Password, &user.SignupType, &user.GoogleID,
		&user.EmailVerified, &user.SMSVerified, &user.Verified, &user.LoginCount, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (full_name, email, password, signup_type, google_id, email_verified, sms_verified, verified)
		VALUES ($1, LOWER($2), $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, user.FullName, user.Email, user.Password, user.SignupType, user.GoogleID, user.EmailVerified, user.SMSVerified, user.Verified).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, user.FullName, user.Email, user.Password, user.SignupType, user.GoogleID, user.EmailVerified, user.SMSVerified, user.Verified).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE users SET password = $1, updated_at = $2 WHERE LOWER(email) = LOWER($3)`
	_, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), email)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) LinkGoogleID(ctx context.Context, id int64, googleID string) error {
	query := `UPDATE users SET google_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, googleID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) IncrementLoginCount(ctx context.Context, id int64) error {
	query := `UPDATE users SET login_count = COALESCE(login_count, 0) + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, full_name, email, created_at FROM users ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.FullName, &user.Email, &user.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
