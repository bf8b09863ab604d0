package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
)

type ContactRepository interface {
	Create(ctx context.Context, c *models.ContactSubmission) error
}

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, c *models.ContactSubmission) error {
	query := `INSERT INTO contact_submissions (name, email, subject, message) VALUES ($1, LOWER($2), $3, $4)`
	_, err := r.db.ExecContext(ctx, query, c.Name, c.Email, c.Subject, c.Message)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
