package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/transfer"
)

func (q *Queue) HandleDispatchDueTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.DispatchDue(ctx, payload.PostID)
}

// DispatchDue re-triggers the automation engine for a post whose scheduled
// time has arrived. If the engine already reported a terminal status, or
// the post was rejected meanwhile, the task is a no-op.
func (q *Queue) DispatchDue(ctx context.Context, postID int64) error {
	post, err := q.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.Status != models.PostStatusScheduled {
		return nil
	}

	platforms, err := q.pl.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}

	media, err := q.mr.ListByPostID(ctx, postID)
	if err != nil {
		return err
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
			URL:      q.st.URLFor(m.FileName),
		})
	}

	if err := q.gw.TriggerPublish(ctx, payload); err != nil {
		return q.pr.MarkFailed(ctx, postID, err.Error())
	}

	return nil
}
