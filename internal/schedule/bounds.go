package schedule

import (
	"github.com/theakshaypant/opengym/internal/core"
)

const (
	// DefaultMinHour and DefaultMaxHour bound the grid when nothing widens it.
	DefaultMinHour = 7
	DefaultMaxHour = 21

	// minSpan is forced onto degenerate bounds.
	minSpan = 6
)

// HourBounds is the visible hour range [Min, Max) of one grid.
type HourBounds struct {
	Min int
	Max int
}

// DefaultBounds returns the padded default range.
func DefaultBounds() HourBounds {
	return HourBounds{Min: DefaultMinHour, Max: DefaultMaxHour}
}

// Rows returns the number of hour rows the bounds span.
func (b HourBounds) Rows() int {
	return b.Max - b.Min
}

// StartHour is the hour row an event begins in.
func StartHour(e core.Event) int {
	return e.Start.Hour()
}

// EndHour is the first hour row an event no longer touches, counted on the
// day the event starts. A partial hour counts as a full row and an event
// running past midnight ends at 24.
func EndHour(e core.Event) int {
	end := e.End.In(e.Start.Location())
	if end.After(e.Start) && KeyOf(end) != KeyOf(e.Start) {
		return 24
	}
	h := end.Hour()
	if end.Minute() != 0 {
		h++
	}
	return h
}

// Bounds computes the visible hour range for a set of events.
//
// Loose bounds widen the 7–21 default only where an event falls outside it.
// Strict bounds fit the events exactly so a grid has no dead rows. With no
// timed events both policies return the default. All-day events are ignored.
func Bounds(events []core.Event, strict bool) HourBounds {
	lo, hi := 0, 0
	seen := false
	for _, e := range events {
		if e.IsAllDay {
			continue
		}
		sh, eh := StartHour(e), EndHour(e)
		if !seen {
			lo, hi = sh, eh
			seen = true
			continue
		}
		lo = min(lo, sh)
		hi = max(hi, eh)
	}

	if !seen {
		return DefaultBounds()
	}

	b := HourBounds{Min: lo, Max: hi}
	if !strict {
		b.Min = min(DefaultMinHour, lo)
		b.Max = max(DefaultMaxHour, hi)
	}
	if b.Max <= b.Min {
		b.Max = b.Min + minSpan
	}
	return b
}

// DayBounds is Bounds over every event in the given days.
func DayBounds(days []DayBucket, strict bool) HourBounds {
	var events []core.Event
	for _, d := range days {
		events = append(events, d.Events...)
	}
	return Bounds(events, strict)
}
