package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"

	"github.com/washweek/washweek/internal/schedule"
)

// Snapshotter provides the current ledger, which carries the known-chats
// notification list.
type Snapshotter interface {
	Snapshot(ctx context.Context) (schedule.Ledger, error)
}

// MessageSender is the outbound Telegram call the broadcast needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BroadcastJob delivers a reset notice to every chat the bot has seen.
type BroadcastJob struct {
	snapshots Snapshotter
	sender    MessageSender
	logger    *slog.Logger
}

// NewBroadcastJob constructs the job.
func NewBroadcastJob(snapshots Snapshotter, sender MessageSender, logger *slog.Logger) *BroadcastJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BroadcastJob{snapshots: snapshots, sender: sender, logger: logger}
}

// Handle processes a TaskBroadcastReset task. Per-chat delivery failures
// are logged and skipped; a chat that blocked the bot must not starve the
// rest of the list.
func (j *BroadcastJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload BroadcastResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ledger, err := j.snapshots.Snapshot(ctx)
	if err != nil {
		return err
	}
	delivered := 0
	for _, chatID := range ledger.KnownChats {
		if _, err := j.sender.Send(tgbotapi.NewMessage(chatID, payload.Text)); err != nil {
			j.logger.Warn("broadcast delivery failed",
				slog.Int64("chat_id", chatID), slog.Any("error", err))
			continue
		}
		delivered++
	}
	j.logger.Info("reset broadcast complete",
		slog.String("notice_id", payload.NoticeID),
		slog.Int("delivered", delivered),
		slog.Int("known_chats", len(ledger.KnownChats)))
	return nil
}
