package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Gateway abstracts the remote document store. Load must always return a
// well-formed ledger or ErrStoreUnavailable; Save replaces the remote
// document entirely.
type Gateway interface {
	Load(ctx context.Context) (Ledger, error)
	Save(ctx context.Context, l Ledger) error
}

// User-facing messages, in the bot's voice.
const (
	msgInvalidDay       = "❌ روز وارد شده معتبر نیست."
	msgInvalidSlot      = "❌ بازه زمانی نامعتبر است."
	msgSlotTaken        = "❌ این بازه قبلاً رزرو شده است."
	msgNothingToCancel  = "❌ رزروی برای شما یافت نشد."
	msgCancelled = "🔄 رزرو شما لغو شد."
	// MsgStoreUnavailable is the "try again later" answer shown whenever
	// the remote store cannot be reached.
	MsgStoreUnavailable = "❗ ارتباط با سرویس ذخیره‌سازی برقرار نشد. لطفاً کمی بعد دوباره تلاش کن."
	// MsgResetNotice is broadcast to known chats after a rotation.
	MsgResetNotice = "🧹 رزروهای هفته‌ی قبل پاک شدند. هفته‌ی جدید شروع شد!"
)

// Service orchestrates the reservation flow: load the document, rotate
// the period if due, validate and apply the mutation, persist. Each call
// works on its own freshly loaded snapshot; the remote document is the
// only shared state. Concurrent callers can race on the final save (last
// write wins) — the store offers no conditional update.
type Service struct {
	gw      Gateway
	periods *PeriodManager
	logger  *slog.Logger
	now     func() time.Time

	renderGroup singleflight.Group
}

// NewService builds a Service instance.
func NewService(gw Gateway, periods *PeriodManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, periods: periods, logger: logger, now: time.Now}
}

// loadCurrent fetches the ledger and rotates it first when the stored
// period is stale. The rotation is persisted before the snapshot is
// handed to the caller, so a failed rotation save blocks the dependent
// operation entirely.
func (s *Service) loadCurrent(ctx context.Context) (Ledger, error) {
	l, err := s.gw.Load(ctx)
	if err != nil {
		return Ledger{}, err
	}
	now := s.now()
	if !s.periods.NeedsRotation(l, now) {
		return l, nil
	}
	rotated := s.periods.Rotate(l, now)
	if err := s.gw.Save(ctx, rotated); err != nil {
		return Ledger{}, err
	}
	s.logger.Info("rotated reservation period",
		slog.String("period_start", rotated.PeriodStart),
		slog.String("last_reset", rotated.LastReset))
	return rotated, nil
}

// Snapshot returns the current, rotation-applied ledger.
func (s *Service) Snapshot(ctx context.Context) (Ledger, error) {
	return s.loadCurrent(ctx)
}

// HandleReserve reserves (day, slot) for the holder and returns the
// message to show them.
func (s *Service) HandleReserve(ctx context.Context, day string, slot int, name string, userID int64) string {
	l, err := s.loadCurrent(ctx)
	if err != nil {
		s.logger.Error("reserve: load ledger", slog.Any("error", err))
		return MsgStoreUnavailable
	}
	updated, err := l.Reserve(day, slot, name, userID)
	switch {
	case errors.Is(err, ErrInvalidDay):
		return msgInvalidDay
	case errors.Is(err, ErrInvalidSlot):
		return msgInvalidSlot
	case errors.Is(err, ErrSlotTaken):
		return msgSlotTaken
	case err != nil:
		s.logger.Error("reserve: unexpected outcome", slog.Any("error", err))
		return MsgStoreUnavailable
	}
	updated, _ = updated.RememberChat(userID)
	if err := s.gw.Save(ctx, updated); err != nil {
		s.logger.Error("reserve: save ledger", slog.Any("error", err))
		return MsgStoreUnavailable
	}
	return fmt.Sprintf("✅ رزرو ثبت شد: %s — بازه %d", day, slot+1)
}

// HandleCancel frees every slot held by the user.
func (s *Service) HandleCancel(ctx context.Context, userID int64) string {
	l, err := s.loadCurrent(ctx)
	if err != nil {
		s.logger.Error("cancel: load ledger", slog.Any("error", err))
		return MsgStoreUnavailable
	}
	updated, freed, err := l.Cancel(userID)
	if errors.Is(err, ErrNothingToCancel) {
		return msgNothingToCancel
	}
	if err := s.gw.Save(ctx, updated); err != nil {
		s.logger.Error("cancel: save ledger", slog.Any("error", err))
		return MsgStoreUnavailable
	}
	if freed > 1 {
		return fmt.Sprintf("%s (%d بازه آزاد شد)", msgCancelled, freed)
	}
	return msgCancelled
}

// HandleShowSchedule renders the weekly status. Concurrent calls share a
// single load of the remote document.
func (s *Service) HandleShowSchedule(ctx context.Context) string {
	v, err, _ := s.renderGroup.Do("render", func() (any, error) {
		l, err := s.loadCurrent(ctx)
		if err != nil {
			return nil, err
		}
		return l.RenderSchedule(), nil
	})
	if err != nil {
		s.logger.Error("schedule: load ledger", slog.Any("error", err))
		return MsgStoreUnavailable
	}
	return v.(string)
}

// RememberChat records a chat in the notification list, persisting only
// when the list actually changed.
func (s *Service) RememberChat(ctx context.Context, chatID int64) error {
	l, err := s.loadCurrent(ctx)
	if err != nil {
		return err
	}
	updated, changed := l.RememberChat(chatID)
	if !changed {
		return nil
	}
	return s.gw.Save(ctx, updated)
}

// RotateIfDue performs the periodic rotation check used by the scheduled
// job. It reports whether a rotation actually happened.
func (s *Service) RotateIfDue(ctx context.Context) (bool, error) {
	l, err := s.gw.Load(ctx)
	if err != nil {
		return false, err
	}
	now := s.now()
	if !s.periods.NeedsRotation(l, now) {
		return false, nil
	}
	rotated := s.periods.Rotate(l, now)
	if err := s.gw.Save(ctx, rotated); err != nil {
		return false, err
	}
	s.logger.Info("scheduled rotation complete",
		slog.String("period_start", rotated.PeriodStart))
	return true, nil
}
