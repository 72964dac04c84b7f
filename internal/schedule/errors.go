package schedule

import "errors"

var (
	// ErrInvalidDay indicates the day label is not in the weekday set.
	ErrInvalidDay = errors.New("schedule: unknown day label")
	// ErrInvalidSlot indicates the slot index is outside the day's capacity.
	ErrInvalidSlot = errors.New("schedule: slot index out of range")
	// ErrSlotTaken indicates the target slot already holds a reservation.
	ErrSlotTaken = errors.New("schedule: slot already reserved")
	// ErrNothingToCancel indicates the holder has no reservation to free.
	ErrNothingToCancel = errors.New("schedule: no reservation for holder")
	// ErrStoreUnavailable indicates the remote document could not be
	// loaded or saved. It never means "slot free" or "slot taken".
	ErrStoreUnavailable = errors.New("schedule: reservation store unavailable")
)
