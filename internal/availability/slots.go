// Package availability answers "when is the advisor free" from a fixed calendar.
package availability

import (
	"context"
	"sort"
	"time"
)

// TimestampLayout is the format used for requested and stored slot bounds.
const TimestampLayout = "2006-01-02T15:04"

// TimestampPattern matches the shape of TimestampLayout, as a JSON Schema pattern.
const TimestampPattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`

// DisplayLayout is how a slot is read out to the customer.
const DisplayLayout = "Mon 02 Jan 2006 15:04"

// Slot is one free period of the advisor.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Within reports whether the slot lies entirely inside [from, to].
func (s Slot) Within(from, to time.Time) bool {
	return !s.Start.Before(from) && !s.End.After(to)
}

// Source provides the advisor's free slots.
type Source interface {
	Slots(ctx context.Context) ([]Slot, error)
}

// StaticSource serves a fixed slot list.
type StaticSource []Slot

// Slots implements Source.
func (s StaticSource) Slots(ctx context.Context) ([]Slot, error) {
	return s, nil
}

// Earliest returns the earliest slot fully contained in [from, to].
func Earliest(slots []Slot, from, to time.Time) (Slot, bool) {
	matches := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Within(from, to) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return Slot{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start.Before(matches[j].Start)
	})
	return matches[0], true
}

// ParseTimestamp parses a "YYYY-MM-DDTHH:MM" timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
