package service

import (
	"context"

	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/transfer"
)

const paymentHistoryLimit = 100

type BillingService interface {
	PaymentHistory(ctx context.Context, userID int64) ([]*models.Payment, error)
	PaymentMethods(ctx context.Context, userID int64) ([]*models.PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, userID int64, r *transfer.PaymentMethodRequest) (*models.PaymentMethod, error)
	Subscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

type billingService struct {
	p  repository.PaymentRepository
	pm repository.PaymentMethodRepository
	su repository.SubscriptionRepository
}

func NewBillingService(
	p repository.PaymentRepository,
	pm repository.PaymentMethodRepository,
	su repository.SubscriptionRepository) BillingService {
	return &billingService{
		p:  p,
		pm: pm,
		su: su,
	}
}

func (s *billingService) PaymentHistory(ctx context.Context, userID int64) ([]*models.Payment, error) {
	return s.p.ListByUserID(ctx, userID, paymentHistoryLimit)
}

func (s *billingService) PaymentMethods(ctx context.Context, userID int64) ([]*models.PaymentMethod, error) {
	return s.pm.ListByUserID(ctx, userID)
}

// AddPaymentMethod makes the first stored method the default, and an
// explicitly default method displaces the current one.
func (s *billingService) AddPaymentMethod(ctx context.Context, userID int64, r *transfer.PaymentMethodRequest) (*models.PaymentMethod, error) {
	if r.Type == "" {
		return nil, apperr.Validation("payment method type is required")
	}

	count, err := s.pm.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	isDefault := r.IsDefault || count == 0
	if isDefault && count > 0 {
		if err := s.pm.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}

	method := &models.PaymentMethod{
		UserID:    userID,
		Type:      r.Type,
		Last4:     r.Last4,
		Expiry:    r.Expiry,
		Email:     r.Email,
		UpiID:     r.UpiID,
		IsDefault: isDefault,
	}

	return s.pm.Create(ctx, method)
}

func (s *billingService) Subscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	return s.su.ListByUserID(ctx, userID)
}
