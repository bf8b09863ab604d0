package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
)

type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	Create(ctx context.Context, w *models.Workflow) (int64, error)
}

type workflowRepository struct {
	db *sql.DB
}

func NewWorkflowRepository(db *sql.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT id, name, description FROM workflows ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		var w models.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Description); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		workflows = append(workflows, &w)
	}
	return workflows, rows.Err()
}

func (r *workflowRepository) Create(ctx context.Context, w *models.Workflow) (int64, error) {
	query := `INSERT INTO workflows (name, description) VALUES ($1, $2) RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, w.Name, w.Description).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	w.ID = id
	return id, nil
}
