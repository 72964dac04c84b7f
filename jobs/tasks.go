package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRotationCheck asks the worker to rotate the reservation period
	// when it is due.
	TaskRotationCheck = "schedule:rotate"
	// TaskBroadcastReset fans a post-rotation notice out to known chats.
	TaskBroadcastReset = "notify:reset"
)

// NewRotationCheckTask constructs the periodic rotation-check task. It
// carries no payload: the worker decides everything from the document.
func NewRotationCheckTask() *asynq.Task {
	return asynq.NewTask(TaskRotationCheck, nil)
}

// BroadcastResetPayload describes one post-rotation broadcast.
type BroadcastResetPayload struct {
	NoticeID string `json:"notice_id"`
	Text     string `json:"text"`
}

// NewBroadcastResetTask constructs a broadcast task.
func NewBroadcastResetTask(payload BroadcastResetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBroadcastReset, data), nil
}
