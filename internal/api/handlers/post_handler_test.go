package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostService struct {
	detail      *transfer.PostDetail
	summaries   []*transfer.PostSummary
	err         error
	webhookErr  error
	lastWebhook *transfer.WebhookStatus
	lastComment string
}

func (f *fakePostService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (*transfer.PostDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakePostService) List(ctx context.Context, userID int64, status string, limit, offset int) ([]*transfer.PostSummary, error) {
	return f.summaries, f.err
}

func (f *fakePostService) Detail(ctx context.Context, userID, postID int64) (*transfer.PostDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakePostService) Approve(ctx context.Context, userID, postID int64, comment string) (*transfer.PostDetail, error) {
	f.lastComment = comment
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakePostService) Reject(ctx context.Context, userID, postID int64, comment string) (*transfer.PostDetail, error) {
	f.lastComment = comment
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakePostService) HandleWebhook(ctx context.Context, postID int64, ws *transfer.WebhookStatus) error {
	f.lastWebhook = ws
	return f.webhookErr
}

func newPostApp(svc *fakePostService) *fiber.App {
	app := fiber.New()
	h := NewPostHandler(svc)

	// The auth middleware normally populates user_id.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "7")
		return c.Next()
	})

	app.Post("/api/posts", h.CreatePost)
	app.Get("/api/posts", h.ListPosts)
	app.Get("/api/posts/:id", h.GetPost)
	app.Post("/api/posts/:id/approve", h.ApprovePost)
	app.Post("/api/posts/:id/reject", h.RejectPost)
	app.Post("/api/posts/:id/webhook-status", h.WebhookStatus)

	return app
}

func TestCreatePostMultipart(t *testing.T) {
	svc := &fakePostService{detail: &transfer.PostDetail{Post: models.Post{ID: 1, Status: models.PostStatusDraft}}}
	app := newPostApp(svc)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("caption", "Launch day!")
	w.WriteField("platforms", `["instagram","x"]`)
	w.WriteField("postingMode", "automatic")
	fw, err := w.CreateFormFile("media", "pic.png")
	require.NoError(t, err)
	fw.Write([]byte("png-bytes"))
	w.Close()

	req := httptest.NewRequest("POST", "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var detail transfer.PostDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, int64(1), detail.ID)
}

func TestCreatePostValidationError(t *testing.T) {
	svc := &fakePostService{err: apperr.Validation("caption is required")}
	app := newPostApp(svc)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("platforms", `["x"]`)
	w.Close()

	req := httptest.NewRequest("POST", "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "caption is required")
}

func TestListPostsEmptyIsArray(t *testing.T) {
	app := newPostApp(&fakePostService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"posts":[]}`, string(body))
}

func TestApprovePassesComment(t *testing.T) {
	svc := &fakePostService{detail: &transfer.PostDetail{Post: models.Post{ID: 5, Status: models.PostStatusScheduled}}}
	app := newPostApp(svc)

	req := httptest.NewRequest("POST", "/api/posts/5/approve", strings.NewReader(`{"comment":"ship it"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ship it", svc.lastComment)
}

func TestApproveInvalidStateIs400(t *testing.T) {
	svc := &fakePostService{err: apperr.InvalidState("post is not pending approval")}
	app := newPostApp(svc)

	req := httptest.NewRequest("POST", "/api/posts/5/approve", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPostIDParamRejected(t *testing.T) {
	app := newPostApp(&fakePostService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookStatusUnknownPostIs404(t *testing.T) {
	svc := &fakePostService{webhookErr: apperr.NotFound("post not found")}
	app := newPostApp(svc)

	req := httptest.NewRequest("POST", "/api/posts/42/webhook-status", strings.NewReader(`{"status":"posted"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebhookStatusParsesPartialBody(t *testing.T) {
	svc := &fakePostService{}
	app := newPostApp(svc)

	body := `{"platformStatuses":[{"platform":"x","status":"posted","platformPostId":"ext-1"}]}`
	req := httptest.NewRequest("POST", "/api/posts/5/webhook-status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, svc.lastWebhook)
	assert.Nil(t, svc.lastWebhook.Status)
	require.Len(t, svc.lastWebhook.PlatformStatuses, 1)
	assert.Equal(t, "ext-1", *svc.lastWebhook.PlatformStatuses[0].PlatformPostID)
}
