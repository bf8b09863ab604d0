package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantivue/backend/internal/repository"
)

type ResetPurgeJob struct {
	pr repository.PasswordResetRepository
}

func NewResetPurgeJob(pr repository.PasswordResetRepository) *ResetPurgeJob {
	return &ResetPurgeJob{
		pr: pr,
	}
}

// PurgeExpired drops password reset codes past their expiry.
func (j *ResetPurgeJob) PurgeExpired() {
	ctx := context.Background()

	removed, err := j.pr.PurgeExpired(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if removed > 0 {
		slog.Info(fmt.Sprintf("purged %d expired password reset codes", removed))
	}
}
