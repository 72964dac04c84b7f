package schedule

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryGateway keeps the document in memory and can be told to fail.
type memoryGateway struct {
	ledger  Ledger
	loadErr error
	saveErr error
	saves   int
}

func (g *memoryGateway) Load(ctx context.Context) (Ledger, error) {
	if g.loadErr != nil {
		return Ledger{}, g.loadErr
	}
	return g.ledger, nil
}

func (g *memoryGateway) Save(ctx context.Context, l Ledger) error {
	if g.saveErr != nil {
		return g.saveErr
	}
	g.ledger = l
	g.saves++
	return nil
}

func newTestService(t *testing.T, gw *memoryGateway, now time.Time) *Service {
	t.Helper()
	periods := NewPeriodManager(tehran, time.Friday)
	svc := NewService(gw, periods, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return now }
	return svc
}

// currentLedger builds a ledger that will not trigger a rotation at now.
func currentLedger(now time.Time) Ledger {
	periods := NewPeriodManager(tehran, time.Friday)
	l := NewLedger(3)
	l.PeriodStart = periods.CurrentPeriodStart(now)
	l.LastReset = periods.Today(now)
	return l
}

func TestHandleReservePersistsAndConfirms(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now)}
	svc := newTestService(t, gw, now)

	out := svc.HandleReserve(context.Background(), DayLabels[3], 0, "Alice", 101)
	require.Contains(t, out, "✅")
	require.Contains(t, out, DayLabels[3])

	held := gw.ledger.HolderOn(DayLabels[3], 0)
	require.NotNil(t, held)
	require.Equal(t, int64(101), held.ID)
	require.Contains(t, gw.ledger.KnownChats, int64(101), "reserving registers the chat for notices")
}

func TestHandleReserveValidationMessages(t *testing.T) {
	now := fridayAt(12)

	tests := []struct {
		name string
		day  string
		slot int
		want string
	}{
		{"invalid day", "NotADay", 0, msgInvalidDay},
		{"invalid slot", DayLabels[0], 99, msgInvalidSlot},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &memoryGateway{ledger: currentLedger(now)}
			svc := newTestService(t, gw, now)
			out := svc.HandleReserve(context.Background(), tc.day, tc.slot, "X", 1)
			require.Equal(t, tc.want, out)
			require.Zero(t, gw.saves, "validation failures must not write")
		})
	}
}

func TestHandleReserveSlotTaken(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now)}
	svc := newTestService(t, gw, now)

	ctx := context.Background()
	require.Contains(t, svc.HandleReserve(ctx, DayLabels[3], 0, "Alice", 101), "✅")
	require.Equal(t, msgSlotTaken, svc.HandleReserve(ctx, DayLabels[3], 0, "Bob", 202))

	require.Equal(t, msgCancelled, svc.HandleCancel(ctx, 101))
	require.Contains(t, svc.HandleReserve(ctx, DayLabels[3], 0, "Bob", 202), "✅")
}

func TestHandleReserveStoreDown(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now), loadErr: ErrStoreUnavailable}
	svc := newTestService(t, gw, now)

	out := svc.HandleReserve(context.Background(), DayLabels[3], 0, "Alice", 101)
	require.Equal(t, MsgStoreUnavailable, out)
	require.Zero(t, gw.saves)
	require.Nil(t, gw.ledger.HolderOn(DayLabels[3], 0), "store must remain untouched")
}

func TestHandleReserveSaveFails(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now), saveErr: ErrStoreUnavailable}
	svc := newTestService(t, gw, now)

	out := svc.HandleReserve(context.Background(), DayLabels[3], 0, "Alice", 101)
	require.Equal(t, MsgStoreUnavailable, out)
	require.Nil(t, gw.ledger.HolderOn(DayLabels[3], 0))
}

func TestHandleCancelNothingToCancel(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now)}
	svc := newTestService(t, gw, now)

	require.Equal(t, msgNothingToCancel, svc.HandleCancel(context.Background(), 999))
	require.Zero(t, gw.saves)
}

func TestRotationRunsBeforeReserve(t *testing.T) {
	now := fridayAt(12)
	periods := NewPeriodManager(tehran, time.Friday)

	stale := NewLedger(3)
	stale.PeriodStart = "2026-08-21"
	stale.LastReset = "2026-08-21"
	var err error
	stale, err = stale.Reserve(DayLabels[0], 0, "Old", 7)
	require.NoError(t, err)
	stale.KnownChats = []int64{7}

	gw := &memoryGateway{ledger: stale}
	svc := newTestService(t, gw, now)

	out := svc.HandleReserve(context.Background(), DayLabels[0], 0, "Alice", 101)
	require.Contains(t, out, "✅", "the stale holder is cleared by rotation first")

	require.Equal(t, periods.CurrentPeriodStart(now), gw.ledger.PeriodStart)
	require.Equal(t, []int64{7, 101}, gw.ledger.KnownChats)
	held := gw.ledger.HolderOn(DayLabels[0], 0)
	require.NotNil(t, held)
	require.Equal(t, "Alice", held.Name)
}

func TestRotationFailureBlocksReserve(t *testing.T) {
	now := fridayAt(12)

	stale := NewLedger(3)
	stale.PeriodStart = "2026-08-21"
	stale.LastReset = "2026-08-21"

	gw := &memoryGateway{ledger: stale, saveErr: ErrStoreUnavailable}
	svc := newTestService(t, gw, now)

	out := svc.HandleReserve(context.Background(), DayLabels[0], 0, "Alice", 101)
	require.Equal(t, MsgStoreUnavailable, out, "fail closed when the rotation cannot persist")
	require.Equal(t, "2026-08-21", gw.ledger.PeriodStart)
}

func TestHandleShowSchedule(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now)}
	svc := newTestService(t, gw, now)

	ctx := context.Background()
	svc.HandleReserve(ctx, DayLabels[2], 1, "Alice", 101)

	out := svc.HandleShowSchedule(ctx)
	require.Contains(t, out, "Alice")
	for _, day := range DayLabels {
		require.Contains(t, out, day)
	}
}

func TestRotateIfDue(t *testing.T) {
	now := fridayAt(12)

	stale := NewLedger(3)
	stale.PeriodStart = "2026-08-21"
	stale.LastReset = "2026-08-21"
	gw := &memoryGateway{ledger: stale}
	svc := newTestService(t, gw, now)

	rotated, err := svc.RotateIfDue(context.Background())
	require.NoError(t, err)
	require.True(t, rotated)

	// Second check on the same day is a no-op.
	rotated, err = svc.RotateIfDue(context.Background())
	require.NoError(t, err)
	require.False(t, rotated)
	require.Equal(t, 1, gw.saves)
}

func TestRotateIfDueStoreDown(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{loadErr: ErrStoreUnavailable}
	svc := newTestService(t, gw, now)

	_, err := svc.RotateIfDue(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRememberChatPersistsOnlyOnChange(t *testing.T) {
	now := fridayAt(12)
	gw := &memoryGateway{ledger: currentLedger(now)}
	svc := newTestService(t, gw, now)

	ctx := context.Background()
	require.NoError(t, svc.RememberChat(ctx, 42))
	require.Equal(t, 1, gw.saves)
	require.NoError(t, svc.RememberChat(ctx, 42))
	require.Equal(t, 1, gw.saves)
}
