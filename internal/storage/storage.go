package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MediaStore persists raw media bytes and hands back the stored path and
// the public URL the automation engine will fetch.
type MediaStore interface {
	Save(ctx context.Context, fileName, contentType string, data []byte) (path string, url string, err error)
	URLFor(fileName string) string
}

// localStore keeps media on the local filesystem, served back under the
// static /uploads route.
type localStore struct {
	dir        string
	backendURL string
}

func NewLocalStore(dir, backendURL string) (MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &localStore{dir: dir, backendURL: backendURL}, nil
}

func (s *localStore) Save(ctx context.Context, fileName, contentType string, data []byte) (string, string, error) {
	path := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write media file: %w", err)
	}
	return path, s.URLFor(fileName), nil
}

func (s *localStore) URLFor(fileName string) string {
	return fmt.Sprintf("%s/uploads/media/%s", s.backendURL, fileName)
}
