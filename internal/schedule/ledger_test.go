package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReserveLifecycle(t *testing.T) {
	l := NewLedger(3)
	day := DayLabels[3]

	l, err := l.Reserve(day, 0, "Alice", 101)
	require.NoError(t, err)
	require.NotNil(t, l.HolderOn(day, 0))
	require.Equal(t, "Alice", l.HolderOn(day, 0).Name)
	require.Equal(t, int64(101), l.HolderOn(day, 0).ID)

	// Same slot again, different holder.
	_, err = l.Reserve(day, 0, "Bob", 202)
	require.ErrorIs(t, err, ErrSlotTaken)

	// Same slot, same holder: not idempotent by design.
	_, err = l.Reserve(day, 0, "Alice", 101)
	require.ErrorIs(t, err, ErrSlotTaken)

	l, freed, err := l.Cancel(101)
	require.NoError(t, err)
	require.Equal(t, 1, freed)
	require.Nil(t, l.HolderOn(day, 0))

	l, err = l.Reserve(day, 0, "Bob", 202)
	require.NoError(t, err)
	require.Equal(t, "Bob", l.HolderOn(day, 0).Name)
}

func TestReserveValidation(t *testing.T) {
	l := NewLedger(3)

	_, err := l.Reserve("NotADay", 0, "X", 1)
	require.ErrorIs(t, err, ErrInvalidDay)

	_, err = l.Reserve(DayLabels[0], 99, "X", 1)
	require.ErrorIs(t, err, ErrInvalidSlot)

	_, err = l.Reserve(DayLabels[0], -1, "X", 1)
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestReserveDoesNotMutateReceiver(t *testing.T) {
	l := NewLedger(3)
	day := DayLabels[0]

	updated, err := l.Reserve(day, 1, "Alice", 101)
	require.NoError(t, err)
	require.Nil(t, l.HolderOn(day, 1))
	require.NotNil(t, updated.HolderOn(day, 1))
}

func TestCancelFreesAllSlotsOfHolder(t *testing.T) {
	l := NewLedger(3)

	// A historically inconsistent document can hold several slots for
	// one user; Cancel must clear them all.
	l, err := l.Reserve(DayLabels[1], 0, "Alice", 101)
	require.NoError(t, err)
	l, err = l.Reserve(DayLabels[4], 2, "Alice", 101)
	require.NoError(t, err)
	l, err = l.Reserve(DayLabels[4], 1, "Bob", 202)
	require.NoError(t, err)

	l, freed, err := l.Cancel(101)
	require.NoError(t, err)
	require.Equal(t, 2, freed)
	require.Nil(t, l.HolderOn(DayLabels[1], 0))
	require.Nil(t, l.HolderOn(DayLabels[4], 2))
	require.NotNil(t, l.HolderOn(DayLabels[4], 1), "other holders must be untouched")

	_, _, err = l.Cancel(101)
	require.ErrorIs(t, err, ErrNothingToCancel)
}

func TestCancelUnknownHolder(t *testing.T) {
	l := NewLedger(3)
	_, _, err := l.Cancel(999)
	require.ErrorIs(t, err, ErrNothingToCancel)
}

func TestRenderScheduleListsEveryDayAndSlot(t *testing.T) {
	l := NewLedger(3)
	l, err := l.Reserve(DayLabels[2], 1, "Alice", 101)
	require.NoError(t, err)

	out := l.RenderSchedule()
	for _, day := range DayLabels {
		require.Contains(t, out, day)
	}
	require.Contains(t, out, "Alice")
	// 7 days x 3 slots, one indented line per slot.
	require.Equal(t, 21, strings.Count(out, "\n  "))

	// Rendering is deterministic and pure.
	require.Equal(t, out, l.RenderSchedule())
}

func TestRenderScheduleEmptyLedger(t *testing.T) {
	out := NewLedger(3).RenderSchedule()
	require.Equal(t, 21, strings.Count(out, "آزاد\n"))
}

func TestRememberChat(t *testing.T) {
	l := NewLedger(3)

	l, changed := l.RememberChat(42)
	require.True(t, changed)
	l, changed = l.RememberChat(42)
	require.False(t, changed)
	l, changed = l.RememberChat(43)
	require.True(t, changed)
	require.Equal(t, []int64{42, 43}, l.KnownChats)
}

func TestNormalizeRepairsStructure(t *testing.T) {
	l := Ledger{Days: map[string][]*Reservation{
		DayLabels[0]: {nil, {Name: "Alice", ID: 101}},
	}}

	fixed := l.Normalize(3)
	require.Equal(t, 3, fixed.Capacity)
	for _, day := range DayLabels {
		require.Len(t, fixed.Days[day], 3)
	}
	require.NotNil(t, fixed.HolderOn(DayLabels[0], 1), "surviving reservations stay in place")
}
