package core

import (
	"strings"
	"time"
)

// Kind classifies a schedule entry by what it offers.
type Kind int

const (
	KindOther  Kind = iota // Anything we don't recognise
	KindOpen               // Open gym / open access session
	KindLesson             // Coached lesson or class
)

// String returns the lowercase tag handed to the rendering boundary.
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindLesson:
		return "lesson"
	default:
		return "other"
	}
}

// ClassifyTitle derives the Kind from an event title. Matching is
// case-insensitive and OPEN wins over LESSON ("Open Lesson" is open access).
func ClassifyTitle(title string) Kind {
	upper := strings.ToUpper(title)
	switch {
	case strings.Contains(upper, "OPEN"):
		return KindOpen
	case strings.Contains(upper, "LESSON"):
		return KindLesson
	default:
		return KindOther
	}
}

// IsQualifying reports whether a title denotes an open session, i.e. one that
// counts for the next-session countdown.
func IsQualifying(title string) bool {
	return ClassifyTitle(title) == KindOpen
}

// Event is the immutable calendar entry every provider converts its data to.
// Start and End are expected in the display location once they leave the
// refresher; providers may hand them over in any zone.
type Event struct {
	// Unique ID (provided by the source)
	ID string `json:"id"`
	// The ID of the provider source (e.g. "google", "ics")
	ProviderID string `json:"provider_id,omitempty"`
	// Details
	Title       string `json:"title"`
	Kind        Kind   `json:"kind"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	// Calendar event page URL
	URL string `json:"url,omitempty"`
	// Timing
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	IsAllDay bool      `json:"all_day,omitempty"`
}

// NewEvent builds an Event and derives its Kind from the title.
func NewEvent(id, title string, start, end time.Time) Event {
	return Event{
		ID:    id,
		Title: title,
		Kind:  ClassifyTitle(title),
		Start: start,
		End:   end,
	}
}

// Valid reports whether the event has a positive duration.
func (e Event) Valid() bool {
	return e.Start.Before(e.End)
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// InProgress checks if the event is happening right now.
func (e Event) InProgress(now time.Time) bool {
	return !now.Before(e.Start) && now.Before(e.End)
}

// In returns a copy of the event with its times converted to loc.
// All-day events keep their wall-clock date rather than shifting across midnight.
func (e Event) In(loc *time.Location) Event {
	if loc == nil {
		return e
	}
	if e.IsAllDay {
		e.Start = time.Date(e.Start.Year(), e.Start.Month(), e.Start.Day(), 0, 0, 0, 0, loc)
		e.End = time.Date(e.End.Year(), e.End.Month(), e.End.Day(), 0, 0, 0, 0, loc)
		return e
	}
	e.Start = e.Start.In(loc)
	e.End = e.End.In(loc)
	return e
}
