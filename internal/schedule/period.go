package schedule

import "time"

// dateLayout is the ISO date format stored in the remote document.
const dateLayout = "2006-01-02"

// PeriodManager decides what the current reservation period is and when
// the weekly rotation must run. Rotation is day-anchored: it happens only
// on the configured anchor weekday, at most once per calendar day in the
// configured civil timezone.
type PeriodManager struct {
	loc    *time.Location
	anchor time.Weekday
}

// NewPeriodManager builds a manager for the given timezone and anchor
// weekday.
func NewPeriodManager(loc *time.Location, anchor time.Weekday) *PeriodManager {
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodManager{loc: loc, anchor: anchor}
}

// Today formats now as a civil date in the manager's timezone.
func (m *PeriodManager) Today(now time.Time) string {
	return now.In(m.loc).Format(dateLayout)
}

// CurrentPeriodStart returns the canonical start date of the period that
// contains now: the most recent anchor weekday, inclusive of today.
func (m *PeriodManager) CurrentPeriodStart(now time.Time) string {
	local := now.In(m.loc)
	back := (int(local.Weekday()) - int(m.anchor) + 7) % 7
	return local.AddDate(0, 0, -back).Format(dateLayout)
}

// NeedsRotation reports whether the ledger belongs to a stale period. It
// is true when the stored period start disagrees with the computed one,
// or when today is the anchor weekday and the reset marker is not yet
// today's date.
func (m *PeriodManager) NeedsRotation(l Ledger, now time.Time) bool {
	if l.PeriodStart != m.CurrentPeriodStart(now) {
		return true
	}
	local := now.In(m.loc)
	return local.Weekday() == m.anchor && l.LastReset != m.Today(now)
}

// Rotate produces a fresh all-empty ledger for the period containing now.
// The notification recipient list survives the rotation; every
// reservation is dropped as one batch.
func (m *PeriodManager) Rotate(l Ledger, now time.Time) Ledger {
	out := NewLedger(l.Capacity)
	out.LastReset = m.Today(now)
	out.PeriodStart = m.CurrentPeriodStart(now)
	out.KnownChats = append([]int64(nil), l.KnownChats...)
	return out
}
