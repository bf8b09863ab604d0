package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/transfer"
)

// TemplateService serves the workflow template catalog: JSON files sitting
// in a directory, identified by file name without extension.
type TemplateService interface {
	List(ctx context.Context, search string) ([]*transfer.TemplateInfo, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

type templateService struct {
	dir string
}

func NewTemplateService(dir string) TemplateService {
	return &templateService{dir: dir}
}

func (s *templateService) List(ctx context.Context, search string) ([]*transfer.TemplateInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*transfer.TemplateInfo{}, nil
		}
		return nil, err
	}

	search = strings.ToLower(search)

	var templates []*transfer.TemplateInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		name := templateName(id)

		if search != "" && !strings.Contains(strings.ToLower(name), search) && !strings.Contains(strings.ToLower(id), search) {
			continue
		}

		templates = append(templates, &transfer.TemplateInfo{ID: id, Name: name})
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	if templates == nil {
		templates = []*transfer.TemplateInfo{}
	}
	return templates, nil
}

func (s *templateService) Get(ctx context.Context, id string) ([]byte, error) {
	if !validTemplateID(id) {
		return nil, apperr.Validation("invalid template id")
	}

	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("template not found")
		}
		return nil, err
	}

	return data, nil
}

// validTemplateID rejects anything that could escape the template
// directory.
func validTemplateID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return false
	}
	return true
}

// templateName turns a file name like social-media_scheduler into
// "Social Media Scheduler".
func templateName(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
