package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/washweek/washweek/internal/schedule"
)

type fakeSnapshotter struct {
	ledger schedule.Ledger
	err    error
}

func (s *fakeSnapshotter) Snapshot(ctx context.Context) (schedule.Ledger, error) {
	return s.ledger, s.err
}

type fakeMessageSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (s *fakeMessageSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if s.failFor[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("blocked")
	}
	s.sent = append(s.sent, msg.ChatID)
	return tgbotapi.Message{}, nil
}

func broadcastTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewBroadcastResetTask(BroadcastResetPayload{
		NoticeID: "notice-1",
		Text:     schedule.MsgResetNotice,
	})
	require.NoError(t, err)
	return task
}

func TestBroadcastReachesEveryKnownChat(t *testing.T) {
	l := schedule.NewLedger(3)
	l.KnownChats = []int64{42, 43, 44}
	sender := &fakeMessageSender{}
	job := NewBroadcastJob(&fakeSnapshotter{ledger: l}, sender, slog.New(slog.DiscardHandler))

	require.NoError(t, job.Handle(context.Background(), broadcastTask(t)))
	require.Equal(t, []int64{42, 43, 44}, sender.sent)
}

func TestBroadcastSkipsFailedDeliveries(t *testing.T) {
	l := schedule.NewLedger(3)
	l.KnownChats = []int64{42, 43, 44}
	sender := &fakeMessageSender{failFor: map[int64]bool{43: true}}
	job := NewBroadcastJob(&fakeSnapshotter{ledger: l}, sender, slog.New(slog.DiscardHandler))

	require.NoError(t, job.Handle(context.Background(), broadcastTask(t)))
	require.Equal(t, []int64{42, 44}, sender.sent, "one blocked chat must not starve the rest")
}

func TestBroadcastStoreDown(t *testing.T) {
	job := NewBroadcastJob(&fakeSnapshotter{err: schedule.ErrStoreUnavailable}, &fakeMessageSender{}, slog.New(slog.DiscardHandler))

	err := job.Handle(context.Background(), broadcastTask(t))
	require.ErrorIs(t, err, schedule.ErrStoreUnavailable)
}
