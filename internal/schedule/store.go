// Package schedule turns a flat list of calendar events into the day and
// week structures the grids are drawn from, and projects events onto
// grid rows and columns.
package schedule

import (
	"slices"
	"time"

	"github.com/theakshaypant/opengym/internal/core"
)

// DateKey identifies a calendar day, formatted as YYYY-MM-DD.
type DateKey string

const dateKeyLayout = "2006-01-02"

// KeyOf returns the key of the calendar day t falls on, in t's own location.
func KeyOf(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// DateOf strips the time of day from t.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBucket holds one day's events sorted by start time.
type DayBucket struct {
	Date   time.Time
	Events []core.Event
}

// Key returns the bucket's date key.
func (b DayBucket) Key() DateKey {
	return KeyOf(b.Date)
}

// Timed returns the events that occupy grid rows (everything but all-day).
func (b DayBucket) Timed() []core.Event {
	var out []core.Event
	for _, e := range b.Events {
		if !e.IsAllDay {
			out = append(out, e)
		}
	}
	return out
}

// AllDay returns the all-day events, shown in the day header.
func (b DayBucket) AllDay() []core.Event {
	var out []core.Event
	for _, e := range b.Events {
		if e.IsAllDay {
			out = append(out, e)
		}
	}
	return out
}

// Buckets maps calendar days to their events.
type Buckets map[DateKey]DayBucket

// Day returns the bucket for the day containing t, or an empty bucket
// carrying that date.
func (bs Buckets) Day(t time.Time) DayBucket {
	if b, ok := bs[KeyOf(t)]; ok {
		return b
	}
	return DayBucket{Date: DateOf(t)}
}

// Bucket groups events by the local calendar day of their start and sorts
// each day by start time. The sort is stable, so events starting together
// keep their input order. Nothing is dropped or deduplicated.
func Bucket(events []core.Event, loc *time.Location) Buckets {
	if loc == nil {
		loc = time.Local
	}

	buckets := make(Buckets)
	for _, e := range events {
		start := e.Start.In(loc)
		key := KeyOf(start)
		b, ok := buckets[key]
		if !ok {
			b.Date = DateOf(start)
		}
		b.Events = append(b.Events, e)
		buckets[key] = b
	}

	for key, b := range buckets {
		slices.SortStableFunc(b.Events, func(x, y core.Event) int {
			return x.Start.Compare(y.Start)
		})
		buckets[key] = b
	}

	return buckets
}
