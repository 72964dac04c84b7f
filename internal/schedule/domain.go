package schedule

// DayLabels is the fixed weekday set of the reservation week, Saturday
// first, using the Persian labels the bot presents to users.
var DayLabels = [7]string{
	"شنبه",
	"یکشنبه",
	"دوشنبه",
	"سه‌شنبه",
	"چهارشنبه",
	"پنجشنبه",
	"جمعه",
}

// DefaultCapacity is the number of reservable slots per day.
const DefaultCapacity = 3

// Reservation marks a slot as held by a single Telegram user.
type Reservation struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Ledger is the full reservation document for the active period. It is a
// plain value: operations take a ledger and return an updated copy, the
// remote document is the only durable copy.
type Ledger struct {
	LastReset   string
	PeriodStart string
	Days        map[string][]*Reservation
	KnownChats  []int64
	Capacity    int
}

// NewLedger returns an all-empty ledger with the given per-day capacity.
func NewLedger(capacity int) Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	days := make(map[string][]*Reservation, len(DayLabels))
	for _, day := range DayLabels {
		days[day] = make([]*Reservation, capacity)
	}
	return Ledger{Days: days, Capacity: capacity}
}

// IsValidDay reports whether label is one of the seven weekday labels.
func IsValidDay(label string) bool {
	for _, day := range DayLabels {
		if day == label {
			return true
		}
	}
	return false
}

// Normalize repairs structural damage in a loaded document: missing days,
// wrong slot counts, or a zero capacity. Reservation entries that survive
// the repair are kept in place.
func (l Ledger) Normalize(capacity int) Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	out := l.clone()
	out.Capacity = capacity
	if out.Days == nil {
		out.Days = make(map[string][]*Reservation, len(DayLabels))
	}
	for _, day := range DayLabels {
		slots := out.Days[day]
		if len(slots) == capacity {
			continue
		}
		fixed := make([]*Reservation, capacity)
		copy(fixed, slots)
		out.Days[day] = fixed
	}
	return out
}

// RememberChat records a chat id in the notification list. The second
// return value reports whether the ledger changed.
func (l Ledger) RememberChat(chatID int64) (Ledger, bool) {
	for _, known := range l.KnownChats {
		if known == chatID {
			return l, false
		}
	}
	out := l.clone()
	out.KnownChats = append(out.KnownChats, chatID)
	return out, true
}

func (l Ledger) clone() Ledger {
	out := l
	out.Days = make(map[string][]*Reservation, len(l.Days))
	for day, slots := range l.Days {
		copied := make([]*Reservation, len(slots))
		for i, r := range slots {
			if r != nil {
				held := *r
				copied[i] = &held
			}
		}
		out.Days[day] = copied
	}
	out.KnownChats = append([]int64(nil), l.KnownChats...)
	return out
}
