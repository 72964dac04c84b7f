package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/washweek/washweek/internal/schedule"
)

// Rotator is the slice of the reservation service the rotation job needs.
type Rotator interface {
	RotateIfDue(ctx context.Context) (bool, error)
}

// Enqueuer submits follow-up tasks from inside a job handler.
type Enqueuer interface {
	EnqueueBroadcastReset(ctx context.Context, payload BroadcastResetPayload) error
}

// RotationJob runs the periodic rotation check. The original design was a
// daemon thread polling every ten minutes; here the scheduler enqueues
// this task on the same cadence and the document stays the only
// synchronization point with request handling.
type RotationJob struct {
	rotator  Rotator
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewRotationJob constructs the job.
func NewRotationJob(rotator Rotator, enqueuer Enqueuer, logger *slog.Logger) *RotationJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RotationJob{rotator: rotator, enqueuer: enqueuer, logger: logger}
}

// Handle processes a TaskRotationCheck task. A store outage is returned
// so asynq retries on its backoff schedule.
func (j *RotationJob) Handle(ctx context.Context, t *asynq.Task) error {
	rotated, err := j.rotator.RotateIfDue(ctx)
	if err != nil {
		j.logger.Warn("rotation check failed", slog.Any("error", err))
		return err
	}
	if !rotated {
		return nil
	}
	if j.enqueuer == nil {
		return nil
	}
	payload := BroadcastResetPayload{
		NoticeID: uuid.NewString(),
		Text:     schedule.MsgResetNotice,
	}
	if err := j.enqueuer.EnqueueBroadcastReset(ctx, payload); err != nil {
		// The rotation itself is already persisted; a lost notice is not
		// worth retrying the whole task for.
		j.logger.Warn("enqueue reset broadcast", slog.Any("error", err))
	}
	return nil
}
