package models

import "time"

type Payment struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	Amount        float64   `db:"amount" json:"amount"`
	Status        string    `db:"status" json:"status"`
	PaymentMethod *string   `db:"payment_method" json:"payment_method"`
	TransactionID *string   `db:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type PaymentMethod struct {
	ID        int64   `db:"id" json:"id"`
	UserID    int64   `db:"user_id" json:"-"`
	Type      string  `db:"type" json:"type"`
	Last4     *string `db:"last4" json:"last4"`
	Expiry    *string `db:"expiry" json:"expiry"`
	Email     *string `db:"email" json:"email"`
	UpiID     *string `db:"upi_id" json:"upi_id"`
	IsDefault bool    `db:"is_default" json:"is_default"`
}

type Subscription struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"-"`
	Name        string     `db:"name" json:"name"`
	Price       string     `db:"price" json:"price"`
	Status      string     `db:"status" json:"status"`
	NextBilling *time.Time `db:"next_billing" json:"next_billing"`
}

const PaymentStatusCompleted = "completed"
