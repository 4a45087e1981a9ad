package core

import (
	"context"
	"time"
)

// ScheduleSpan is how far ahead the schedule reaches: three weeks from the
// Monday of the current week.
const ScheduleSpan = 21 * 24 * time.Hour

// FetchOptions configures which events to retrieve.
type FetchOptions struct {
	Start time.Time
	End   time.Time

	// Filter by calendar ID. Empty means the provider's configured calendar(s).
	CalendarIDs []string
}

// DefaultFetchOptions returns a window starting at start and covering the
// full schedule span.
func DefaultFetchOptions(start time.Time) FetchOptions {
	return FetchOptions{
		Start: start,
		End:   start.Add(ScheduleSpan),
	}
}

// Provider represents a calendar source (Google, Outlook, an ICS feed).
type Provider interface {
	// ID returns the unique identifier (e.g. "google")
	ID() string
	// Name returns a human-readable label (e.g. "Google Calendar")
	Name() string
	// FetchEvents retrieves events matching the given options.
	// This should block until done or context is cancelled.
	FetchEvents(ctx context.Context, opts FetchOptions) ([]Event, error)
}
