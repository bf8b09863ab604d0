package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/transfer"
)

// StatusUpdate carries the optional fields applied together with a status
// change in a single statement. Nil fields are left untouched.
type StatusUpdate struct {
	Status         *string
	ErrorMessage   *string
	N8nExecutionID *string
	SetPostedAt    bool
}

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetDetail(ctx context.Context, id int64) (*transfer.PostDetail, error)
	ListByUserID(ctx context.Context, userID int64, status string, limit, offset int) ([]*transfer.PostSummary, error)
	UpdateStatus(ctx context.Context, postID int64, upd StatusUpdate) error
	UpdateStatusFrom(ctx context.Context, postID int64, from, to string) (bool, error)
	MarkFailed(ctx context.Context, postID int64, errorMessage string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, caption, posting_mode, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	var id int64
	var createdAt time.Time
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.Caption, post.PostingMode, post.Status, post.ScheduledAt).Scan(&id, &createdAt)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.Caption, post.PostingMode, post.Status, post.ScheduledAt).Scan(&id, &createdAt)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	post.ID = id
	post.CreatedAt = createdAt
	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT id, user_id, caption, posting_mode, status, scheduled_at, posted_at, error_message, n8n_execution_id, created_at, updated_at FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Caption, &post.PostingMode, &post.Status,
		&post.ScheduledAt, &post.PostedAt, &post.ErrorMessage, &post.N8nExecutionID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) GetDetail(ctx context.Context, id int64) (*transfer.PostDetail, error) {
	query := `
		SELECT p.id, p.user_id, p.caption, p.posting_mode, p.status, p.scheduled_at, p.posted_at,
		       p.error_message, p.n8n_execution_id, p.created_at, p.updated_at, u.email, u.full_name
		FROM posts p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var d transfer.PostDetail
	err := row.Scan(&d.ID, &d.UserID, &d.Caption, &d.PostingMode, &d.Status, &d.ScheduledAt, &d.PostedAt,
		&d.ErrorMessage, &d.N8nExecutionID, &d.CreatedAt, &d.UpdatedAt, &d.Email, &d.FullName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &d, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64, status string, limit, offset int) ([]*transfer.PostSummary, error) {
	query := `
		SELECT p.id, p.user_id, p.caption, p.posting_mode, p.status, p.scheduled_at, p.posted_at,
		       p.error_message, p.n8n_execution_id, p.created_at, p.updated_at, u.email, u.full_name,
		       COUNT(DISTINCT pp.id) AS platform_count,
		       COUNT(DISTINCT mf.id) AS media_count
		FROM posts p
		JOIN users u ON p.user_id = u.id
		LEFT JOIN post_platforms pp ON p.id = pp.post_id
		LEFT JOIN media_files mf ON p.id = mf.post_id
		WHERE p.user_id = $1
	`
	args := []interface{}{userID}
	argIdx := 2

	if status != "" {
		query += fmt.Sprintf(" AND p.status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	query += fmt.Sprintf(" GROUP BY p.id, u.email, u.full_name ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*transfer.PostSummary
	for rows.Next() {
		var s transfer.PostSummary
		err := rows.Scan(&s.ID, &s.UserID, &s.Caption, &s.PostingMode, &s.Status, &s.ScheduledAt, &s.PostedAt,
			&s.ErrorMessage, &s.N8nExecutionID, &s.CreatedAt, &s.UpdatedAt, &s.Email, &s.FullName,
			&s.PlatformCount, &s.MediaCount)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &s)
	}
	return posts, rows.Err()
}

// UpdateStatus applies whichever fields of upd are present in one
// statement. Setting status to posted stamps posted_at.
func (r *postRepository) UpdateStatus(ctx context.Context, postID int64, upd StatusUpdate) error {
	setClauses := ""
	args := []interface{}{}
	argIdx := 1

	addClause := func(clause string, value interface{}) {
		if setClauses != "" {
			setClauses += ", "
		}
		setClauses += fmt.Sprintf(clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if upd.Status != nil {
		addClause("status = $%d", *upd.Status)
	}
	if upd.ErrorMessage != nil {
		addClause("error_message = $%d", *upd.ErrorMessage)
	}
	if upd.N8nExecutionID != nil {
		addClause("n8n_execution_id = $%d", *upd.N8nExecutionID)
	}
	if upd.SetPostedAt {
		if setClauses != "" {
			setClauses += ", "
		}
		setClauses += "posted_at = CURRENT_TIMESTAMP"
	}

	if setClauses == "" {
		return nil
	}

	setClauses += ", updated_at = CURRENT_TIMESTAMP"
	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = $%d", setClauses, argIdx)
	args = append(args, postID)

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateStatusFrom transitions status only if it still equals from,
// reporting whether the row was won. Concurrent approvals race on this
// condition; exactly one caller sees true.
func (r *postRepository) UpdateStatusFrom(ctx context.Context, postID int64, from, to string) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, postID, from)
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

func (r *postRepository) MarkFailed(ctx context.Context, postID int64, errorMessage string) error {
	status := models.PostStatusFailed
	return r.UpdateStatus(ctx, postID, StatusUpdate{Status: &status, ErrorMessage: &errorMessage})
}
