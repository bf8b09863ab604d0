package transfer

import (
	"time"

	"github.com/quantivue/backend/internal/models"
)

// PostCreation carries the multipart form fields of POST /api/posts.
// Platforms arrives as a JSON array string, ScheduledAt as RFC3339.
type PostCreation struct {
	Caption     string
	Platforms   string
	PostingMode string
	ScheduledAt string
}

// MediaFileInfo is the media descriptor sent to the automation engine:
// the URL must be publicly reachable so the engine can fetch the bytes.
type MediaFileInfo struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

// TriggerPayload is the outbound body of the engine trigger call.
type TriggerPayload struct {
	PostID      int64           `json:"postId"`
	UserID      int64           `json:"userId"`
	Caption     string          `json:"caption"`
	Platforms   []string        `json:"platforms"`
	PostingMode string          `json:"postingMode"`
	ScheduledAt *time.Time      `json:"scheduledAt"`
	MediaFiles  []MediaFileInfo `json:"mediaFiles"`
	CallbackURL string          `json:"callbackUrl"`
}

// PlatformStatusUpdate is one per-platform result inside the engine's
// webhook callback.
type PlatformStatusUpdate struct {
	Platform       string  `json:"platform"`
	Status         string  `json:"status"`
	PlatformPostID *string `json:"platformPostId"`
	Error          *string `json:"error"`
}

// WebhookStatus is the engine's callback body. Every field is optional;
// only supplied fields are applied.
type WebhookStatus struct {
	Status           *string                `json:"status"`
	PlatformStatuses []PlatformStatusUpdate `json:"platformStatuses"`
	ErrorMessage     *string                `json:"errorMessage"`
	N8nExecutionID   *string                `json:"n8nExecutionId"`
}

type MediaFileView struct {
	models.MediaFile
	URL string `json:"url"`
}

// PostDetail is a post with its platform targets, media and approval
// history, as returned by the detail and create endpoints.
type PostDetail struct {
	models.Post
	Email      string                   `json:"email"`
	FullName   string                   `json:"full_name"`
	Platforms  []*models.PlatformTarget `json:"platforms"`
	MediaFiles []*MediaFileView         `json:"mediaFiles"`
	Approvals  []*models.PostApproval   `json:"approvals"`
}

type PlatformSummary struct {
	Platform       string  `json:"platform"`
	PlatformStatus *string `json:"platform_status"`
}

// PostSummary is one row of the list endpoint: the post plus aggregate
// counts and a compact platform breakdown.
type PostSummary struct {
	models.Post
	Email         string             `json:"email"`
	FullName      string             `json:"full_name"`
	PlatformCount int64              `json:"platform_count"`
	MediaCount    int64              `json:"media_count"`
	Platforms     []*PlatformSummary `json:"platforms"`
}
