package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/quantivue/backend/internal/models"
)

type PaymentRepository interface {
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Payment, error)
	SumCompleted(ctx context.Context) (float64, error)
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	query := `
		SELECT id, user_id, amount, status, payment_method, transaction_id, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.Status, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) SumCompleted(ctx context.Context) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = $1`
	err := r.db.QueryRowContext(ctx, query, models.PaymentStatusCompleted).Scan(&total)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return total, nil
}

type PaymentMethodRepository interface {
	Create(ctx context.Context, m *models.PaymentMethod) (*models.PaymentMethod, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.PaymentMethod, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)
	ClearDefault(ctx context.Context, userID int64) error
}

type paymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) Create(ctx context.Context, m *models.PaymentMethod) (*models.PaymentMethod, error) {
	query := `
		INSERT INTO payment_methods (user_id, type, last4, expiry, email, upi_id, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, m.UserID, m.Type, m.Last4, m.Expiry, m.Email, m.UpiID, m.IsDefault).Scan(&m.ID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return m, nil
}

func (r *paymentMethodRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.PaymentMethod, error) {
	query := `
		SELECT id, user_id, type, last4, expiry, email, upi_id, is_default
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY is_default DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var methods []*models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Last4, &m.Expiry, &m.Email, &m.UpiID, &m.IsDefault)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		methods = append(methods, &m)
	}
	return methods, rows.Err()
}

func (r *paymentMethodRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_methods WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *paymentMethodRepository) ClearDefault(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payment_methods SET is_default = false WHERE user_id = $1`, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type SubscriptionRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	query := `
		SELECT id, user_id, name, price, status, next_billing
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		var s models.Subscription
		err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Price, &s.Status, &s.NextBilling)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
