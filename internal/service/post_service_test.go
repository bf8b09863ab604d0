package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/gateway"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostRepo struct {
	post       *models.Post
	detail     *transfer.PostDetail
	created    []*models.Post
	updates    []repository.StatusUpdate
	fromCalls  []string
	fromResult bool
	failedMsgs []string
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	post.ID = 1
	f.created = append(f.created, post)
	f.post = post
	if f.detail == nil {
		f.detail = &transfer.PostDetail{Post: *post}
	}
	return 1, nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	if f.post == nil || f.post.ID != id {
		return nil, nil
	}
	return f.post, nil
}

func (f *fakePostRepo) GetDetail(ctx context.Context, id int64) (*transfer.PostDetail, error) {
	if f.detail == nil {
		return nil, nil
	}
	return f.detail, nil
}

func (f *fakePostRepo) ListByUserID(ctx context.Context, userID int64, status string, limit, offset int) ([]*transfer.PostSummary, error) {
	return nil, nil
}

func (f *fakePostRepo) UpdateStatus(ctx context.Context, postID int64, upd repository.StatusUpdate) error {
	f.updates = append(f.updates, upd)
	if upd.Status != nil {
		f.post.Status = *upd.Status
	}
	return nil
}

func (f *fakePostRepo) UpdateStatusFrom(ctx context.Context, postID int64, from, to string) (bool, error) {
	f.fromCalls = append(f.fromCalls, from+"->"+to)
	if f.fromResult {
		f.post.Status = to
	}
	return f.fromResult, nil
}

func (f *fakePostRepo) MarkFailed(ctx context.Context, postID int64, errorMessage string) error {
	f.failedMsgs = append(f.failedMsgs, errorMessage)
	f.post.Status = models.PostStatusFailed
	return nil
}

type fakePlatformRepo struct {
	created []string
	results []string
	missing bool
}

func (f *fakePlatformRepo) Create(ctx context.Context, tx *sql.Tx, postID int64, platform string) error {
	f.created = append(f.created, platform)
	return nil
}

func (f *fakePlatformRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformTarget, error) {
	var targets []*models.PlatformTarget
	for _, p := range f.created {
		targets = append(targets, &models.PlatformTarget{PostID: postID, Platform: p})
	}
	return targets, nil
}

func (f *fakePlatformRepo) ListSummaries(ctx context.Context, postID int64) ([]*transfer.PlatformSummary, error) {
	return nil, nil
}

func (f *fakePlatformRepo) UpdateResult(ctx context.Context, postID int64, platform, status string, platformPostID, platformError *string) (bool, error) {
	f.results = append(f.results, platform+"="+status)
	return !f.missing, nil
}

type fakeMediaRepo struct{}

func (f *fakeMediaRepo) Create(ctx context.Context, tx *sql.Tx, m *models.MediaFile) (int64, error) {
	return 1, nil
}

func (f *fakeMediaRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.MediaFile, error) {
	return nil, nil
}

type fakeApprovalRepo struct {
	approvals []*models.PostApproval
}

func (f *fakeApprovalRepo) Create(ctx context.Context, a *models.PostApproval) (int64, error) {
	f.approvals = append(f.approvals, a)
	return int64(len(f.approvals)), nil
}

func (f *fakeApprovalRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostApproval, error) {
	return f.approvals, nil
}

type fakeStore struct{}

func (f *fakeStore) Save(ctx context.Context, fileName, contentType string, data []byte) (string, string, error) {
	return fileName, "http://localhost/uploads/media/" + fileName, nil
}

func (f *fakeStore) URLFor(fileName string) string {
	return "http://localhost/uploads/media/" + fileName
}

type fakeGateway struct {
	triggers []*transfer.TriggerPayload
	err      error
}

func (f *fakeGateway) TriggerPublish(ctx context.Context, payload *transfer.TriggerPayload) error {
	f.triggers = append(f.triggers, payload)
	return f.err
}

func (f *fakeGateway) ImportWorkflow(ctx context.Context, name string, workflow map[string]json.RawMessage) (*gateway.ImportedWorkflow, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) Ping(ctx context.Context) error { return nil }

type postFixture struct {
	svc  PostService
	pr   *fakePostRepo
	pl   *fakePlatformRepo
	ar   *fakeApprovalRepo
	gw   *fakeGateway
	mock sqlmock.Sqlmock
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pr := &fakePostRepo{fromResult: true}
	pl := &fakePlatformRepo{}
	ar := &fakeApprovalRepo{}
	gw := &fakeGateway{}

	svc := NewPostService(db, pr, pl, &fakeMediaRepo{}, ar, &fakeStore{}, gw, nil)

	return &postFixture{svc: svc, pr: pr, pl: pl, ar: ar, gw: gw, mock: mock}
}

func TestInitialStatus(t *testing.T) {
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name        string
		mode        string
		scheduledAt *time.Time
		want        string
	}{
		{"approval without schedule", models.PostingModeApproval, nil, models.PostStatusPendingApproval},
		{"approval with schedule", models.PostingModeApproval, &future, models.PostStatusPendingApproval},
		{"automatic with schedule", models.PostingModeAutomatic, &future, models.PostStatusScheduled},
		{"automatic without schedule", models.PostingModeAutomatic, nil, models.PostStatusDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, initialStatus(tt.mode, tt.scheduledAt))
		})
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		pc   transfer.PostCreation
	}{
		{"missing caption", transfer.PostCreation{Platforms: `["x"]`, PostingMode: "automatic"}},
		{"missing platforms", transfer.PostCreation{Caption: "hello", PostingMode: "automatic"}},
		{"empty platform list", transfer.PostCreation{Caption: "hello", Platforms: `[]`, PostingMode: "automatic"}},
		{"unknown platform", transfer.PostCreation{Caption: "hello", Platforms: `["myspace"]`, PostingMode: "automatic"}},
		{"platforms not json", transfer.PostCreation{Caption: "hello", Platforms: `instagram`, PostingMode: "automatic"}},
		{"bad mode", transfer.PostCreation{Caption: "hello", Platforms: `["x"]`, PostingMode: "manual"}},
		{"past schedule", transfer.PostCreation{Caption: "hello", Platforms: `["x"]`, PostingMode: "automatic", ScheduledAt: time.Now().Add(-time.Hour).Format(time.RFC3339)}},
		{"garbage schedule", transfer.PostCreation{Caption: "hello", Platforms: `["x"]`, PostingMode: "automatic", ScheduledAt: "tomorrow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostFixture(t)

			_, err := f.svc.Create(context.Background(), 7, &tt.pc, nil)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Empty(t, f.pr.created, "nothing should be persisted")
		})
	}
}

func TestCreateDraftDoesNotDispatch(t *testing.T) {
	f := newPostFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	detail, err := f.svc.Create(context.Background(), 7, &transfer.PostCreation{
		Caption:     "Launch day!",
		Platforms:   `["instagram","x"]`,
		PostingMode: models.PostingModeAutomatic,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusDraft, f.pr.created[0].Status)
	assert.ElementsMatch(t, []string{"instagram", "x"}, f.pl.created)
	assert.Empty(t, f.gw.triggers, "draft posts must not reach the engine")
	assert.NotNil(t, detail)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreatePendingApprovalDispatches(t *testing.T) {
	f := newPostFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Create(context.Background(), 7, &transfer.PostCreation{
		Caption:     "hello",
		Platforms:   `["linkedin"]`,
		PostingMode: models.PostingModeApproval,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPendingApproval, f.pr.created[0].Status)
	require.Len(t, f.gw.triggers, 1)
	assert.Equal(t, []string{"linkedin"}, f.gw.triggers[0].Platforms)
	assert.Equal(t, int64(1), f.gw.triggers[0].PostID)
}

func TestCreateDeduplicatesPlatforms(t *testing.T) {
	f := newPostFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Create(context.Background(), 7, &transfer.PostCreation{
		Caption:     "hello",
		Platforms:   `["x","x","instagram"]`,
		PostingMode: models.PostingModeAutomatic,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "instagram"}, f.pl.created)
}

func TestCreateDispatchFailureMarksFailedButSucceeds(t *testing.T) {
	f := newPostFixture(t)
	f.gw.err = errors.New("engine unreachable")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	detail, err := f.svc.Create(context.Background(), 7, &transfer.PostCreation{
		Caption:     "hello",
		Platforms:   `["x"]`,
		PostingMode: models.PostingModeApproval,
	}, nil)
	require.NoError(t, err, "create must succeed even when dispatch fails")

	require.Len(t, f.pr.failedMsgs, 1)
	assert.Contains(t, f.pr.failedMsgs[0], "engine unreachable")
	assert.NotNil(t, detail)
}

func TestApproveMovesToScheduledWithFutureSchedule(t *testing.T) {
	f := newPostFixture(t)
	future := time.Now().Add(2 * time.Hour)
	f.pr.post = &models.Post{ID: 5, UserID: 7, Status: models.PostStatusPendingApproval, ScheduledAt: &future}
	f.pr.detail = &transfer.PostDetail{Post: *f.pr.post}

	_, err := f.svc.Approve(context.Background(), 7, 5, "looks good")
	require.NoError(t, err)

	assert.Equal(t, []string{"pending_approval->scheduled"}, f.pr.fromCalls)
	require.Len(t, f.ar.approvals, 1)
	assert.Equal(t, models.ApprovalActionApproved, f.ar.approvals[0].Action)
	assert.Equal(t, "looks good", *f.ar.approvals[0].Comment)
	assert.Len(t, f.gw.triggers, 1)
}

func TestApproveWithoutScheduleMovesToPosted(t *testing.T) {
	f := newPostFixture(t)
	f.pr.post = &models.Post{ID: 5, UserID: 7, Status: models.PostStatusPendingApproval}
	f.pr.detail = &transfer.PostDetail{Post: *f.pr.post}

	_, err := f.svc.Approve(context.Background(), 7, 5, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"pending_approval->posted"}, f.pr.fromCalls)
	require.NotEmpty(t, f.pr.updates)
	assert.True(t, f.pr.updates[0].SetPostedAt)
}

func TestApproveNotPendingFails(t *testing.T) {
	f := newPostFixture(t)
	f.pr.fromResult = false
	f.pr.post = &models.Post{ID: 5, UserID: 7, Status: models.PostStatusPosted}
	f.pr.detail = &transfer.PostDetail{Post: *f.pr.post}

	_, err := f.svc.Approve(context.Background(), 7, 5, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Empty(t, f.ar.approvals)
	assert.Empty(t, f.gw.triggers)
}

func TestApproveForeignPostForbidden(t *testing.T) {
	f := newPostFixture(t)
	f.pr.post = &models.Post{ID: 5, UserID: 99, Status: models.PostStatusPendingApproval}

	_, err := f.svc.Approve(context.Background(), 7, 5, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestRejectRecordsApprovalAndSkipsDispatch(t *testing.T) {
	f := newPostFixture(t)
	f.pr.post = &models.Post{ID: 5, UserID: 7, Status: models.PostStatusPendingApproval}
	f.pr.detail = &transfer.PostDetail{Post: *f.pr.post}

	_, err := f.svc.Reject(context.Background(), 7, 5, "not ready")
	require.NoError(t, err)

	assert.Equal(t, []string{"pending_approval->rejected"}, f.pr.fromCalls)
	require.Len(t, f.ar.approvals, 1)
	assert.Equal(t, models.ApprovalActionRejected, f.ar.approvals[0].Action)
	assert.Empty(t, f.gw.triggers)
}

func TestWebhookUnknownPostIsNotFound(t *testing.T) {
	f := newPostFixture(t)

	err := f.svc.HandleWebhook(context.Background(), 42, &transfer.WebhookStatus{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestWebhookPartialUpdateTouchesOnlyNamedPlatform(t *testing.T) {
	f := newPostFixture(t)
	f.pr.post = &models.Post{ID: 5, UserID: 7, Status: models.PostStatusScheduled}
	f.pl.created = []string{"instagram", "x"}

	err := f.svc.HandleWebhook(context.Background(), 5, &transfer.WebhookStatus{
		PlatformStatuses: []transfer.PlatformStatusUpdate{
			{Platform: "instagram", Status: "posted"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"instagram=posted"}, f.pl.results)
	require.Len(t, f.pr.updates, 1)
	assert.Nil(t, f.pr.updates[0].Status, "omitted status must not change the post")
	assert.False(t, f.pr.updates[0].SetPostedAt)
}

func TestWebhookPostedStampsPostedAt(t *testing.T) {
	f := newPostFixture(t)
	f.pr.post = &models.Post{ID: 5, UserID: 7, Status: models.PostStatusScheduled}

	posted := models.PostStatusPosted
	execID := "exec-99"
	err := f.svc.HandleWebhook(context.Background(), 5, &transfer.WebhookStatus{
		Status:         &posted,
		N8nExecutionID: &execID,
	})
	require.NoError(t, err)

	require.Len(t, f.pr.updates, 1)
	assert.Equal(t, posted, *f.pr.updates[0].Status)
	assert.True(t, f.pr.updates[0].SetPostedAt)
	assert.Equal(t, execID, *f.pr.updates[0].N8nExecutionID)
}

func TestDetailOwnership(t *testing.T) {
	f := newPostFixture(t)
	f.pr.post = &models.Post{ID: 5, UserID: 99}
	f.pr.detail = &transfer.PostDetail{Post: *f.pr.post}

	_, err := f.svc.Detail(context.Background(), 7, 5)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.Detail(context.Background(), 99, 5)
	require.NoError(t, err)
}
