package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/gateway"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/repository"
)

// N8nService imports catalogued templates into the automation engine and
// checks engine connectivity.
type N8nService interface {
	ImportTemplate(ctx context.Context, templateID string) (*gateway.ImportedWorkflow, error)
	Test(ctx context.Context) error
}

type n8nService struct {
	t  TemplateService
	gw gateway.N8nGateway
	w  repository.WorkflowRepository
}

func NewN8nService(t TemplateService, gw gateway.N8nGateway, w repository.WorkflowRepository) N8nService {
	return &n8nService{
		t:  t,
		gw: gw,
		w:  w,
	}
}

func (s *n8nService) ImportTemplate(ctx context.Context, templateID string) (*gateway.ImportedWorkflow, error) {
	data, err := s.t.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var workflow map[string]json.RawMessage
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, apperr.Validation("template is not a valid workflow document")
	}

	name := templateName(templateID)
	if raw, ok := workflow["name"]; ok {
		var n string
		if err := json.Unmarshal(raw, &n); err == nil && n != "" {
			name = n
		}
	}

	imported, err := s.gw.ImportWorkflow(ctx, name, workflow)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Imported from template %s", templateID)
	if _, err := s.w.Create(ctx, &models.Workflow{Name: imported.Name, Description: &description}); err != nil {
		return nil, err
	}

	return imported, nil
}

func (s *n8nService) Test(ctx context.Context) error {
	return s.gw.Ping(ctx)
}
