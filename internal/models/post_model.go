package models

import "time"

type Post struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Caption        string     `db:"caption" json:"caption"`
	PostingMode    string     `db:"posting_mode" json:"posting_mode"`
	Status         string     `db:"status" json:"status"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at"`
	PostedAt       *time.Time `db:"posted_at" json:"posted_at"`
	ErrorMessage   *string    `db:"error_message" json:"error_message"`
	N8nExecutionID *string    `db:"n8n_execution_id" json:"n8n_execution_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// PlatformTarget tracks one platform's independent publish outcome for a
// post. (post_id, platform) is unique.
type PlatformTarget struct {
	ID             int64     `db:"id" json:"id"`
	PostID         int64     `db:"post_id" json:"post_id"`
	Platform       string    `db:"platform" json:"platform"`
	PlatformPostID *string   `db:"platform_post_id" json:"platform_post_id"`
	PlatformStatus *string   `db:"platform_status" json:"platform_status"`
	PlatformError  *string   `db:"platform_error" json:"platform_error"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type MediaFile struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FilePath  string    `db:"file_path" json:"file_path"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PostApproval struct {
	ID            int64     `db:"id" json:"id"`
	PostID        int64     `db:"post_id" json:"post_id"`
	ApproverID    *int64    `db:"approver_id" json:"approver_id"`
	Action        string    `db:"action" json:"action"`
	Comment       *string   `db:"comment" json:"comment"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	ApproverEmail *string   `db:"approver_email" json:"approver_email,omitempty"`
	ApproverName  *string   `db:"approver_name" json:"approver_name,omitempty"`
}

const (
	PostStatusDraft           = "draft"
	PostStatusPendingApproval = "pending_approval"
	PostStatusScheduled       = "scheduled"
	PostStatusPosted          = "posted"
	PostStatusFailed          = "failed"
	PostStatusRejected        = "rejected"
)

const (
	PostingModeAutomatic = "automatic"
	PostingModeApproval  = "approval"
)

const (
	ApprovalActionApproved = "approved"
	ApprovalActionRejected = "rejected"
)

// Platforms is the closed set of publishable platforms.
var Platforms = map[string]struct{}{
	"instagram": {},
	"linkedin":  {},
	"youtube":   {},
	"facebook":  {},
	"x":         {},
}

func IsPlatform(name string) bool {
	_, ok := Platforms[name]
	return ok
}

// IsTerminalStatus reports whether a post can no longer transition on its
// own. draft is non-terminal but has no automatic transition either.
func IsTerminalStatus(status string) bool {
	switch status {
	case PostStatusPosted, PostStatusFailed, PostStatusRejected:
		return true
	}
	return false
}
