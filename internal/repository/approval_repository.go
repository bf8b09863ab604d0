package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
)

type ApprovalRepository interface {
	Create(ctx context.Context, a *models.PostApproval) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostApproval, error)
}

type approvalRepository struct {
	db *sql.DB
}

func NewApprovalRepository(db *sql.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, a *models.PostApproval) (int64, error) {
	query := `
		INSERT INTO post_approvals (post_id, approver_id, action, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, a.PostID, a.ApproverID, a.Action, a.Comment).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *approvalRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostApproval, error) {
	query := `
		SELECT pa.id, pa.post_id, pa.approver_id, pa.action, pa.comment, pa.created_at,
		       u.email AS approver_email, u.full_name AS approver_name
		FROM post_approvals pa
		LEFT JOIN users u ON pa.approver_id = u.id
		WHERE pa.post_id = $1
		ORDER BY pa.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var approvals []*models.PostApproval
	for rows.Next() {
		var a models.PostApproval
		err := rows.Scan(&a.ID, &a.PostID, &a.ApproverID, &a.Action, &a.Comment, &a.CreatedAt, &a.ApproverEmail, &a.ApproverName)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		approvals = append(approvals, &a)
	}
	return approvals, rows.Err()
}
