package schedule

import (
	"bytes"
	"encoding/json"
)

// The remote document is a flat JSON object: bookkeeping keys plus one
// key per weekday label mapping to a fixed-length slot array. An empty
// slot is null on the wire; older documents used false, which the decoder
// still accepts.

const (
	keyLastReset   = "last_reset"
	keyPeriodStart = "period_start"
	keyKnownChats  = "known_chats"
)

// MarshalJSON renders the ledger in the remote document shape.
func (l Ledger) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(DayLabels)+3)
	doc[keyLastReset] = l.LastReset
	doc[keyPeriodStart] = l.PeriodStart
	if len(l.KnownChats) > 0 {
		doc[keyKnownChats] = l.KnownChats
	}
	for _, day := range DayLabels {
		doc[day] = l.Days[day]
	}
	return json.Marshal(doc)
}

// UnmarshalJSON parses the remote document shape. Unrecognised keys are
// ignored and damaged slot cells decode as empty; structural repair
// (missing days, wrong lengths) is left to Normalize.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := Ledger{Days: make(map[string][]*Reservation, len(DayLabels))}
	if raw, ok := doc[keyLastReset]; ok {
		_ = json.Unmarshal(raw, &out.LastReset)
	}
	if raw, ok := doc[keyPeriodStart]; ok {
		_ = json.Unmarshal(raw, &out.PeriodStart)
	}
	if raw, ok := doc[keyKnownChats]; ok {
		_ = json.Unmarshal(raw, &out.KnownChats)
	}
	for _, day := range DayLabels {
		raw, ok := doc[day]
		if !ok {
			continue
		}
		var cells []json.RawMessage
		if err := json.Unmarshal(raw, &cells); err != nil {
			continue
		}
		slots := make([]*Reservation, len(cells))
		for i, cell := range cells {
			slots[i] = decodeSlot(cell)
		}
		out.Days[day] = slots
		if len(cells) > out.Capacity {
			out.Capacity = len(cells)
		}
	}
	*l = out
	return nil
}

func decodeSlot(cell json.RawMessage) *Reservation {
	cell = bytes.TrimSpace(cell)
	if len(cell) == 0 || bytes.Equal(cell, []byte("null")) || bytes.Equal(cell, []byte("false")) {
		return nil
	}
	var r Reservation
	if err := json.Unmarshal(cell, &r); err != nil {
		return nil
	}
	if r.ID == 0 && r.Name == "" {
		return nil
	}
	return &r
}
