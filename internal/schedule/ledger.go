package schedule

import (
	"fmt"
	"strings"
)

// Reserve places a reservation on (day, slot) for the given holder. The
// returned ledger is a copy; the receiver is never mutated. Reserving an
// occupied slot fails with ErrSlotTaken even when the same holder asks
// twice: freeing requires an explicit Cancel or a rotation.
func (l Ledger) Reserve(day string, slot int, name string, holderID int64) (Ledger, error) {
	if !IsValidDay(day) {
		return l, ErrInvalidDay
	}
	if slot < 0 || slot >= l.Capacity || slot >= len(l.Days[day]) {
		return l, ErrInvalidSlot
	}
	if l.Days[day][slot] != nil {
		return l, ErrSlotTaken
	}
	out := l.clone()
	out.Days[day][slot] = &Reservation{Name: name, ID: holderID}
	return out, nil
}

// Cancel frees every slot held by holderID across the whole week and
// reports how many were freed. Multiple hits are tolerated so that
// historically inconsistent documents still clean up in one call.
func (l Ledger) Cancel(holderID int64) (Ledger, int, error) {
	out := l.clone()
	freed := 0
	for _, day := range DayLabels {
		for i, r := range out.Days[day] {
			if r != nil && r.ID == holderID {
				out.Days[day][i] = nil
				freed++
			}
		}
	}
	if freed == 0 {
		return l, 0, ErrNothingToCancel
	}
	return out, freed, nil
}

// HolderOn returns the reservation holding (day, slot), or nil when the
// pair is invalid or free.
func (l Ledger) HolderOn(day string, slot int) *Reservation {
	if !IsValidDay(day) || slot < 0 || slot >= len(l.Days[day]) {
		return nil
	}
	return l.Days[day][slot]
}

// FreeSlots counts the unreserved slots of a day.
func (l Ledger) FreeSlots(day string) int {
	free := 0
	for _, r := range l.Days[day] {
		if r == nil {
			free++
		}
	}
	return free
}

// RenderSchedule produces the weekly status text shown to users: all
// seven days in order, each with its numbered slots and holder names.
func (l Ledger) RenderSchedule() string {
	var b strings.Builder
	b.WriteString("🧺 وضعیت رزرو این هفته:\n")
	for _, day := range DayLabels {
		fmt.Fprintf(&b, "\n%s (%d/%d آزاد)\n", day, l.FreeSlots(day), l.Capacity)
		for i, r := range l.Days[day] {
			if r == nil {
				fmt.Fprintf(&b, "  %d) آزاد\n", i+1)
			} else {
				fmt.Fprintf(&b, "  %d) %s\n", i+1, r.Name)
			}
		}
	}
	return b.String()
}
