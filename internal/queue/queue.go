package queue

import (
	"github.com/quantivue/backend/internal/gateway"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/storage"
)

// Queue holds the collaborators of the scheduled-post watchdog. A task is
// enqueued when a post enters the scheduled status and fires at the
// scheduled time; the handler re-triggers the automation engine if the
// engine has not reported back by then.
type Queue struct {
	pr repository.PostRepository
	pl repository.PlatformRepository
	mr repository.MediaRepository
	st storage.MediaStore
	gw gateway.N8nGateway
}

func NewQueue(
	pr repository.PostRepository,
	pl repository.PlatformRepository,
	mr repository.MediaRepository,
	st storage.MediaStore,
	gw gateway.N8nGateway) *Queue {
	return &Queue{
		pr: pr,
		pl: pl,
		mr: mr,
		st: st,
		gw: gw,
	}
}

const TaskTypeDispatchDue = "dispatch:due"

type DispatchDuePayload struct {
	PostID int64 `json:"post_id"`
}
