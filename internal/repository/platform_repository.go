package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/transfer"
)

type PlatformRepository interface {
	Create(ctx context.Context, tx *sql.Tx, postID int64, platform string) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformTarget, error)
	ListSummaries(ctx context.Context, postID int64) ([]*transfer.PlatformSummary, error)
	UpdateResult(ctx context.Context, postID int64, platform, status string, platformPostID, platformError *string) (bool, error)
}

type platformRepository struct {
	db *sql.DB
}

func NewPlatformRepository(db *sql.DB) PlatformRepository {
	return &platformRepository{db: db}
}

func (r *platformRepository) Create(ctx context.Context, tx *sql.Tx, postID int64, platform string) error {
	query := `INSERT INTO post_platforms (post_id, platform) VALUES ($1, $2)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, postID, platform)
	} else {
		_, err = r.db.ExecContext(ctx, query, postID, platform)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *platformRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformTarget, error) {
	query := `
		SELECT id, post_id, platform, platform_post_id, platform_status, platform_error, created_at, updated_at
		FROM post_platforms
		WHERE post_id = $1
		ORDER BY platform
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var targets []*models.PlatformTarget
	for rows.Next() {
		var t models.PlatformTarget
		err := rows.Scan(&t.ID, &t.PostID, &t.Platform, &t.PlatformPostID, &t.PlatformStatus, &t.PlatformError, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		targets = append(targets, &t)
	}
	return targets, rows.Err()
}

func (r *platformRepository) ListSummaries(ctx context.Context, postID int64) ([]*transfer.PlatformSummary, error) {
	query := `SELECT platform, platform_status FROM post_platforms WHERE post_id = $1 ORDER BY platform`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var summaries []*transfer.PlatformSummary
	for rows.Next() {
		var s transfer.PlatformSummary
		if err := rows.Scan(&s.Platform, &s.PlatformStatus); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// UpdateResult touches exactly the (post, platform) row named by the
// callback; platforms the engine did not mention stay untouched.
func (r *platformRepository) UpdateResult(ctx context.Context, postID int64, platform, status string, platformPostID, platformError *string) (bool, error) {
	query := `
		UPDATE post_platforms
		SET platform_status = $1, platform_post_id = $2, platform_error = $3, updated_at = CURRENT_TIMESTAMP
		WHERE post_id = $4 AND platform = $5
	`

	result, err := r.db.ExecContext(ctx, query, status, platformPostID, platformError, postID, platform)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
