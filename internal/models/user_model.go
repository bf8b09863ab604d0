package models

import "time"

type User struct {
	ID            int64     `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Password      string    `db:"password" json:"-"`
	SignupType    string    `db:"signup_type" json:"signup_type"`
	GoogleID      *string   `db:"google_id" json:"-"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	SMSVerified   bool      `db:"sms_verified" json:"sms_verified"`
	Verified      bool      `db:"verified" json:"verified"`
	LoginCount    int64     `db:"login_count" json:"login_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type LoginLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	LoginTime time.Time `db:"login_time" json:"login_time"`
	IPAddress *string   `db:"ip_address" json:"ip_address"`
	UserAgent *string   `db:"user_agent" json:"user_agent"`
}

type PasswordReset struct {
	ID        int64     `db:"id"`
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
