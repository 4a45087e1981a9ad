package schedule

import (
	"fmt"
	"time"

	"github.com/theakshaypant/opengym/internal/core"
)

const (
	// WeekCount is how many weeks the schedule shows: this week and two ahead.
	WeekCount = 3
	// DaysPerWeek counts weekdays only; weekends are never rendered.
	DaysPerWeek = 5
)

var weekNames = [WeekCount]string{"This Week", "Next Week", "2 Weeks Out"}

// WeekView is one Monday–Friday page of the desktop grid.
type WeekView struct {
	Label string
	Days  []DayBucket
}

// Dates returns the calendar date of each day in the week.
func (w WeekView) Dates() []time.Time {
	out := make([]time.Time, len(w.Days))
	for i, d := range w.Days {
		out[i] = d.Date
	}
	return out
}

// Schedule is everything the two layouts are drawn from. It is rebuilt from
// scratch whenever a new snapshot arrives.
type Schedule struct {
	Weeks [WeekCount]WeekView
	// MobileDays holds the weekdays of all three weeks from today on.
	MobileDays []DayBucket
}

// WeekStart returns the Monday of the week containing t, at midnight.
// Sunday belongs to the week that started six days earlier.
func WeekStart(t time.Time) time.Time {
	d := DateOf(t)
	wd := int(d.Weekday())
	if wd == 0 {
		return d.AddDate(0, 0, -6)
	}
	return d.AddDate(0, 0, 1-wd)
}

// RangeLabel formats a date range, compressing it when both ends share a
// month: "Oct 19 - 23" or "Oct 26 - Nov 1".
func RangeLabel(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return fmt.Sprintf("%s - %d", start.Format("Jan 2"), end.Day())
	}
	return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2"))
}

// Build buckets events and assembles the three week pages plus the flattened
// future-day sequence for the mobile window. now fixes both "this week" and
// "today"; its location is the display location.
func Build(events []core.Event, now time.Time) Schedule {
	return BuildFrom(Bucket(events, now.Location()), now)
}

// BuildFrom assembles a Schedule from existing buckets.
func BuildFrom(buckets Buckets, now time.Time) Schedule {
	var s Schedule
	monday := WeekStart(now)
	today := DateOf(now)

	for w := 0; w < WeekCount; w++ {
		first := monday.AddDate(0, 0, 7*w)
		last := first.AddDate(0, 0, DaysPerWeek-1)

		week := WeekView{
			Label: fmt.Sprintf("%s (%s)", weekNames[w], RangeLabel(first, last)),
			Days:  make([]DayBucket, 0, DaysPerWeek),
		}
		for d := 0; d < DaysPerWeek; d++ {
			day := buckets.Day(first.AddDate(0, 0, d))
			week.Days = append(week.Days, day)
			if !day.Date.Before(today) {
				s.MobileDays = append(s.MobileDays, day)
			}
		}
		s.Weeks[w] = week
	}

	return s
}
