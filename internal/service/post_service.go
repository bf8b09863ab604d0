package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/hibiken/asynq"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/gateway"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/queue"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/storage"
	"github.com/quantivue/backend/internal/transfer"
)

const (
	maxMediaFiles    = 10
	maxMediaFileSize = 100 * 1024 * 1024
)

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (*transfer.PostDetail, error)
	List(ctx context.Context, userID int64, status string, limit, offset int) ([]*transfer.PostSummary, error)
	Detail(ctx context.Context, userID, postID int64) (*transfer.PostDetail, error)
	Approve(ctx context.Context, userID, postID int64, comment string) (*transfer.PostDetail, error)
	Reject(ctx context.Context, userID, postID int64, comment string) (*transfer.PostDetail, error)
	HandleWebhook(ctx context.Context, postID int64, ws *transfer.WebhookStatus) error
}

type postService struct {
	db     *sql.DB
	pr     repository.PostRepository
	pl     repository.PlatformRepository
	mr     repository.MediaRepository
	ar     repository.ApprovalRepository
	st     storage.MediaStore
	gw     gateway.N8nGateway
	client *asynq.Client
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	pl repository.PlatformRepository,
	mr repository.MediaRepository,
	ar repository.ApprovalRepository,
	st storage.MediaStore,
	gw gateway.N8nGateway,
	client *asynq.Client) PostService {
	return &postService{
		db:     db,
		pr:     pr,
		pl:     pl,
		mr:     mr,
		ar:     ar,
		st:     st,
		gw:     gw,
		client: client,
	}
}

// Create persists the post, its platform fan-out rows and media in one
// transaction, then dispatches to the automation engine after commit. A
// dispatch failure marks the post failed but does not undo the commit; the
// caller gets the post back in whatever state it ended up in.
func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (*transfer.PostDetail, error) {
	if pc.Caption == "" {
		return nil, apperr.Validation("caption is required")
	}

	platforms, err := parsePlatforms(pc.Platforms)
	if err != nil {
		return nil, err
	}

	if pc.PostingMode != models.PostingModeAutomatic && pc.PostingMode != models.PostingModeApproval {
		return nil, apperr.Validation("postingMode must be automatic or approval")
	}

	var scheduledAt *time.Time
	if pc.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, pc.ScheduledAt)
		if err != nil {
			return nil, apperr.Validation("scheduledAt must be a valid RFC3339 datetime")
		}
		if !t.After(time.Now()) {
			return nil, apperr.Validation("scheduledAt must be in the future")
		}
		scheduledAt = &t
	}

	if len(files) > maxMediaFiles {
		return nil, apperr.Validation(fmt.Sprintf("at most %d media files are allowed", maxMediaFiles))
	}

	status := initialStatus(pc.PostingMode, scheduledAt)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:      userID,
		Caption:     pc.Caption,
		PostingMode: pc.PostingMode,
		Status:      status,
		ScheduledAt: scheduledAt,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	for _, platform := range platforms {
		if err = s.pl.Create(ctx, tx, postID, platform); err != nil {
			return nil, fmt.Errorf("error saving platform %s: %w", platform, err)
		}
	}

	if err = s.processFiles(ctx, tx, postID, files); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if status != models.PostStatusDraft {
		s.dispatch(ctx, postID)
	}

	if status == models.PostStatusScheduled && scheduledAt != nil && s.client != nil {
		delay := time.Until(*scheduledAt)
		if delay < 0 {
			delay = 0
		}
		if err := queue.EnqueueDispatchDue(s.client, queue.DispatchDuePayload{PostID: postID}, delay); err != nil {
			slog.Info(err.Error())
		}
	}

	return s.detail(ctx, postID)
}

func (s *postService) List(ctx context.Context, userID int64, status string, limit, offset int) ([]*transfer.PostSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.pr.ListByUserID(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		summaries, err := s.pl.ListSummaries(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Platforms = summaries
	}

	return posts, nil
}

func (s *postService) Detail(ctx context.Context, userID, postID int64) (*transfer.PostDetail, error) {
	d, err := s.detail(ctx, postID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("post not found")
	}
	if d.UserID != userID {
		return nil, apperr.Forbidden("post belongs to another account")
	}
	return d, nil
}

// Approve moves a pending post onward and dispatches it. The status change
// is conditional on the post still being pending_approval at write time, so
// concurrent approvals resolve to a single dispatch.
func (s *postService) Approve(ctx context.Context, userID, postID int64, comment string) (*transfer.PostDetail, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	if post.UserID != userID {
		return nil, apperr.Forbidden("post belongs to another account")
	}

	to := models.PostStatusPosted
	if post.ScheduledAt != nil && post.ScheduledAt.After(time.Now()) {
		to = models.PostStatusScheduled
	}

	won, err := s.pr.UpdateStatusFrom(ctx, postID, models.PostStatusPendingApproval, to)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.InvalidState("post is not pending approval")
	}

	if err := s.recordApproval(ctx, postID, userID, models.ApprovalActionApproved, comment); err != nil {
		return nil, err
	}

	if to == models.PostStatusPosted {
		if err := s.pr.UpdateStatus(ctx, postID, repository.StatusUpdate{SetPostedAt: true}); err != nil {
			slog.Info(err.Error())
		}
	}

	s.dispatch(ctx, postID)

	if to == models.PostStatusScheduled && post.ScheduledAt != nil && s.client != nil {
		if err := queue.EnqueueDispatchDue(s.client, queue.DispatchDuePayload{PostID: postID}, time.Until(*post.ScheduledAt)); err != nil {
			slog.Info(err.Error())
		}
	}

	return s.detail(ctx, postID)
}

func (s *postService) Reject(ctx context.Context, userID, postID int64, comment string) (*transfer.PostDetail, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	if post.UserID != userID {
		return nil, apperr.Forbidden("post belongs to another account")
	}

	won, err := s.pr.UpdateStatusFrom(ctx, postID, models.PostStatusPendingApproval, models.PostStatusRejected)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.InvalidState("post is not pending approval")
	}

	if err := s.recordApproval(ctx, postID, userID, models.ApprovalActionRejected, comment); err != nil {
		return nil, err
	}

	return s.detail(ctx, postID)
}

// HandleWebhook applies whatever the engine reported. Omitted fields are
// left untouched; platform results only touch their own row. An unknown
// post id is an error rather than a silent no-op so a misrouted
// integration shows up loudly.
func (s *postService) HandleWebhook(ctx context.Context, postID int64, ws *transfer.WebhookStatus) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFound("post not found")
	}

	upd := repository.StatusUpdate{
		Status:         ws.Status,
		ErrorMessage:   ws.ErrorMessage,
		N8nExecutionID: ws.N8nExecutionID,
	}
	if ws.Status != nil && *ws.Status == models.PostStatusPosted {
		upd.SetPostedAt = true
	}

	if err := s.pr.UpdateStatus(ctx, postID, upd); err != nil {
		return err
	}

	for _, ps := range ws.PlatformStatuses {
		affected, err := s.pl.UpdateResult(ctx, postID, ps.Platform, ps.Status, ps.PlatformPostID, ps.Error)
		if err != nil {
			return err
		}
		if !affected {
			slog.Info(fmt.Sprintf("webhook mentioned unknown platform %s for post %d", ps.Platform, postID))
		}
	}

	return nil
}

// dispatch triggers the automation engine and records a failure on the
// post. It never returns an error; a failed dispatch is a post state, not
// a request failure.
func (s *postService) dispatch(ctx context.Context, postID int64) {
	payload, err := s.buildTriggerPayload(ctx, postID)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if err := s.gw.TriggerPublish(ctx, payload); err != nil {
		slog.Info(err.Error())
		if err := s.pr.MarkFailed(ctx, postID, err.Error()); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (s *postService) buildTriggerPayload(ctx context.Context, postID int64) (*transfer.TriggerPayload, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}

	platforms, err := s.pl.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	media, err := s.mr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	payload := &transfer.TriggerPayload{
		PostID:      post.ID,
		UserID:      post.UserID,
		Caption:     post.Caption,
		PostingMode: post.PostingMode,
		ScheduledAt: post.ScheduledAt,
	}
	for _, p := range platforms {
		payload.Platforms = append(payload.Platforms, p.Platform)
	}
	for _, m := range media {
		payload.MediaFiles = append(payload.MediaFiles, transfer.MediaFileInfo{
			FileName: m.FileName,
			FileType: m.FileType,
			MimeType: m.MimeType,
			URL:      s.st.URLFor(m.FileName),
		})
	}

	return payload, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, postID int64, files []*multipart.FileHeader) error {
	for _, file := range files {
		if file.Size > maxMediaFileSize {
			return apperr.Validation(fmt.Sprintf("file %s exceeds the 100 MiB limit", file.Filename))
		}

		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		kind, err := filetype.Match(fileBytes)
		if err != nil || kind == types.Unknown {
			return apperr.Validation(fmt.Sprintf("file %s has an unrecognized type", file.Filename))
		}

		var fileType string
		switch {
		case filetype.IsImage(fileBytes):
			fileType = "image"
		case filetype.IsVideo(fileBytes):
			fileType = "video"
		default:
			return apperr.Validation(fmt.Sprintf("file %s is not an image or video", file.Filename))
		}

		id, err := gonanoid.New()
		if err != nil {
			return err
		}
		storedName := id + "." + kind.Extension

		path, _, err := s.st.Save(ctx, storedName, kind.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error storing file: %w", err)
		}

		mediaFile := models.MediaFile{
			PostID:   postID,
			FileName: storedName,
			FilePath: path,
			FileType: fileType,
			FileSize: file.Size,
			MimeType: kind.MIME.Value,
		}
		if _, err := s.mr.Create(ctx, tx, &mediaFile); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *postService) recordApproval(ctx context.Context, postID, approverID int64, action, comment string) error {
	approval := models.PostApproval{
		PostID:     postID,
		ApproverID: &approverID,
		Action:     action,
	}
	if comment != "" {
		approval.Comment = &comment
	}
	_, err := s.ar.Create(ctx, &approval)
	return err
}

// detail assembles the full nested view of a post. Returns nil when the
// post does not exist.
func (s *postService) detail(ctx context.Context, postID int64) (*transfer.PostDetail, error) {
	d, err := s.pr.GetDetail(ctx, postID)
	if err != nil || d == nil {
		return d, err
	}

	platforms, err := s.pl.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	d.Platforms = platforms

	media, err := s.mr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	for _, m := range media {
		d.MediaFiles = append(d.MediaFiles, &transfer.MediaFileView{
			MediaFile: *m,
			URL:       s.st.URLFor(m.FileName),
		})
	}

	approvals, err := s.ar.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	d.Approvals = approvals

	return d, nil
}

func initialStatus(mode string, scheduledAt *time.Time) string {
	if mode == models.PostingModeApproval {
		return models.PostStatusPendingApproval
	}
	if scheduledAt != nil {
		return models.PostStatusScheduled
	}
	return models.PostStatusDraft
}

func parsePlatforms(raw string) ([]string, error) {
	if raw == "" {
		return nil, apperr.Validation("platforms is required")
	}

	var platforms []string
	if err := json.Unmarshal([]byte(raw), &platforms); err != nil {
		return nil, apperr.Validation("platforms must be a JSON array")
	}
	if len(platforms) == 0 {
		return nil, apperr.Validation("at least one platform is required")
	}

	seen := make(map[string]struct{}, len(platforms))
	deduped := platforms[:0]
	for _, p := range platforms {
		if !models.IsPlatform(p) {
			return nil, apperr.Validation(fmt.Sprintf("unsupported platform: %s", p))
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		deduped = append(deduped, p)
	}
	return deduped, nil
}
