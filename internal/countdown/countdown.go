// Package countdown turns the cached next open session into the short
// relative-time string shown next to the schedule.
package countdown

import (
	"fmt"
	"time"

	"github.com/theakshaypant/opengym/internal/core"
)

const (
	// Interval is how often the countdown is re-evaluated.
	Interval = time.Second
	// StartedWindow is how long after its start a session still reads as
	// "started just now" before the cached event is considered stale.
	StartedWindow = 10 * time.Minute
)

// Phase is where the countdown sits relative to the cached session.
type Phase int

const (
	NoEvent Phase = iota
	Upcoming
	JustStarted
	Stale
)

func (p Phase) String() string {
	switch p {
	case Upcoming:
		return "upcoming"
	case JustStarted:
		return "just-started"
	case Stale:
		return "stale"
	default:
		return "no-event"
	}
}

const (
	textNoEvent     = "no upcoming sessions"
	textJustStarted = "started just now"
)

// Display is what the countdown widget renders.
type Display struct {
	Phase   Phase
	Hours   int
	Minutes int
	Text    string
	// ClearCache asks the owner to drop the cached event and refetch.
	ClearCache bool
}

// Evaluate computes the display state for next at now. It is pure; see
// Tracker for flicker suppression across ticks.
func Evaluate(now time.Time, next *core.Event) Display {
	if next == nil {
		return Display{Phase: NoEvent, Text: textNoEvent}
	}

	start := next.Start
	switch {
	case now.Before(start):
		total := remainingMinutes(start.Sub(now))
		d := Display{
			Phase:   Upcoming,
			Hours:   total / 60,
			Minutes: total % 60,
		}
		d.Text = formatRemaining(d.Hours, d.Minutes)
		return d
	case now.Before(start.Add(StartedWindow)):
		return Display{Phase: JustStarted, Text: textJustStarted}
	default:
		return Display{Phase: Stale, Text: textNoEvent, ClearCache: true}
	}
}

// remainingMinutes rounds up so that "starts in 1m" is shown until the
// session actually starts.
func remainingMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}

func formatRemaining(hours, minutes int) string {
	if hours == 0 {
		return fmt.Sprintf("starts in %dm", minutes)
	}
	return fmt.Sprintf("starts in %dh %02dm", hours, minutes)
}

// Tracker remembers the last rendered display so sub-minute ticks don't
// trigger a redraw.
type Tracker struct {
	last Display
	seen bool
}

// Tick evaluates the countdown and reports whether the result differs from
// the previous tick in phase or in its whole-minute value.
func (t *Tracker) Tick(now time.Time, next *core.Event) (Display, bool) {
	d := Evaluate(now, next)
	changed := !t.seen ||
		d.Phase != t.last.Phase ||
		d.Hours != t.last.Hours ||
		d.Minutes != t.last.Minutes
	t.last = d
	t.seen = true
	return d, changed
}

// Last returns the most recent display, or the NoEvent display before the
// first tick.
func (t *Tracker) Last() Display {
	if !t.seen {
		return Evaluate(time.Time{}, nil)
	}
	return t.last
}

// Reset forgets the previous tick so the next one always reports a change.
func (t *Tracker) Reset() {
	t.seen = false
	t.last = Display{}
}

// NextSession picks the earliest timed open session that has not gone stale
// at now. It returns nil when none qualifies.
func NextSession(events []core.Event, now time.Time) *core.Event {
	var best *core.Event
	for i := range events {
		e := events[i]
		if e.IsAllDay || !core.IsQualifying(e.Title) {
			continue
		}
		if !now.Before(e.Start.Add(StartedWindow)) {
			continue
		}
		if best == nil || e.Start.Before(best.Start) {
			best = &e
		}
	}
	return best
}
