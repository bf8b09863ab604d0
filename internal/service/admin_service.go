package service

import (
	"context"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/transfer"
)

type AdminService interface {
	Metrics(ctx context.Context) *transfer.AdminMetrics
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
}

type adminService struct {
	u  repository.UserRepository
	ll repository.LoginLogRepository
	p  repository.PaymentRepository
	w  repository.WorkflowRepository
}

func NewAdminService(
	u repository.UserRepository,
	ll repository.LoginLogRepository,
	p repository.PaymentRepository,
	w repository.WorkflowRepository) AdminService {
	return &adminService{
		u:  u,
		ll: ll,
		p:  p,
		w:  w,
	}
}

// Metrics degrades to zeros on query failure rather than failing the
// dashboard outright.
func (s *adminService) Metrics(ctx context.Context) *transfer.AdminMetrics {
	m := &transfer.AdminMetrics{}

	users, err := s.u.Count(ctx)
	if err != nil {
		slog.Info(err.Error())
	} else {
		m.TotalUsers = users
	}

	logins, err := s.ll.Count(ctx)
	if err != nil {
		slog.Info(err.Error())
	} else {
		m.TotalLogins = logins
	}

	payments, err := s.p.SumCompleted(ctx)
	if err != nil {
		slog.Info(err.Error())
	} else {
		m.TotalPayments = payments
	}

	return m
}

func (s *adminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.u.List(ctx)
}

func (s *adminService) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return s.w.List(ctx)
}
