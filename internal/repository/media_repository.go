package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
)

type MediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, m *models.MediaFile) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.MediaFile, error)
}

type mediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, tx *sql.Tx, m *models.MediaFile) (int64, error) {
	query := `
		INSERT INTO media_files (post_id, file_name, file_path, file_type, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, m.PostID, m.FileName, m.FilePath, m.FileType, m.FileSize, m.MimeType).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, m.PostID, m.FileName, m.FilePath, m.FileType, m.FileSize, m.MimeType).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.MediaFile, error) {
	query := `
		SELECT id, post_id, file_name, file_path, file_type, file_size, mime_type, created_at
		FROM media_files
		WHERE post_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		var m models.MediaFile
		err := rows.Scan(&m.ID, &m.PostID, &m.FileName, &m.FilePath, &m.FileType, &m.FileSize, &m.MimeType, &m.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		files = append(files, &m)
	}
	return files, rows.Err()
}
