package ics

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/core"
)

// maxOccurrences caps a single recurring series within one window.
const maxOccurrences = 500

// expand turns parsed VEVENTs into concrete events starting in
// [start, end). RRULE series are expanded, EXDATEs removed and
// RECURRENCE-ID overrides applied. Cancelled instances are dropped.
func expand(events []vevent, start, end time.Time, logger *zap.Logger) []core.Event {
	bases := make(map[string][]vevent)
	overrides := make(map[string][]vevent)
	var order []string

	for _, ev := range events {
		if ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := bases[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		bases[ev.UID] = append(bases[ev.UID], ev)
	}

	var out []core.Event
	for _, uid := range order {
		for _, ev := range bases[uid] {
			if ev.RRule == "" {
				if overlaps(ev.Start, ev.End, start, end) && !ev.Cancelled {
					out = append(out, toEvent(ev, ev.UID))
				}
				continue
			}
			out = append(out, expandSeries(ev, overrides[uid], start, end, logger)...)
		}
	}

	slices.SortStableFunc(out, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

func expandSeries(ev vevent, overrides []vevent, start, end time.Time, logger *zap.Logger) []core.Event {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		logger.Warn("unparsable RRULE", zap.String("uid", ev.UID), zap.String("rrule", ev.RRule), zap.Error(err))
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	times := set.Between(start.In(loc), end.In(loc), true)
	if len(times) > maxOccurrences {
		logger.Warn("recurring series truncated", zap.String("uid", ev.UID), zap.Int("occurrences", len(times)))
		times = times[:maxOccurrences]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]core.Event, 0, len(times))
	for _, t := range times {
		inst := ev
		inst.RRule = ""
		inst.Start = t
		inst.End = t.Add(dur)

		if o, ok := findOverride(overrides, t); ok {
			inst = o
		}
		if inst.Cancelled || !overlaps(inst.Start, inst.End, start, end) {
			continue
		}
		out = append(out, toEvent(inst, ev.UID+"@"+t.UTC().Format("20060102T150405Z")))
	}
	return out
}

func findOverride(overrides []vevent, at time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(at) {
			return o, true
		}
	}
	return vevent{}, false
}

func toEvent(ev vevent, id string) core.Event {
	e := core.NewEvent(id, ev.Summary, ev.Start, ev.End)
	e.Description = ev.Description
	e.Location = ev.Location
	e.URL = ev.URL
	e.IsAllDay = ev.AllDay
	return e
}

// overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
// Zero-length events count when they start inside the window.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) {
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
