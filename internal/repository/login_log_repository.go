package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
)

type LoginLogRepository interface {
	Create(ctx context.Context, l *models.LoginLog) error
	Count(ctx context.Context) (int64, error)
}

type loginLogRepository struct {
	db *sql.DB
}

func NewLoginLogRepository(db *sql.DB) LoginLogRepository {
	return &loginLogRepository{db: db}
}

func (r *loginLogRepository) Create(ctx context.Context, l *models.LoginLog) error {
	query := `INSERT INTO login_logs (user_id, ip_address, user_agent) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, l.UserID, l.IPAddress, l.UserAgent)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *loginLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_logs`).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
