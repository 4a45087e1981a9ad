package schedule

import (
	"math"
	"time"

	"github.com/theakshaypant/opengym/internal/core"
)

// headerRows is the number of grid rows above the first hour (the day header).
const headerRows = 1

// GridCoordinate locates an event on the grid. Columns are 1-based day
// indexes; rows are 1-based with row 1 reserved for the day header.
// RowEnd is exclusive.
type GridCoordinate struct {
	Column   int
	RowStart int
	RowEnd   int
}

// RowFor returns the grid row of an hour given the first visible hour.
func RowFor(hour, minHour int) int {
	return headerRows + 1 + (hour - minHour)
}

// SpanFor returns the rows an event covers. Every event covers at least
// one row. ok is false when the event starts before minHour; such events
// are left out of the view rather than clamped.
func SpanFor(e core.Event, minHour int) (rowStart, rowEnd int, ok bool) {
	sh := StartHour(e)
	if sh < minHour {
		return 0, 0, false
	}
	duration := max(1, EndHour(e)-sh)
	rowStart = RowFor(sh, minHour)
	return rowStart, rowStart + duration, true
}

// Placement is an event positioned in a day column. Events whose rows
// overlap are split into side-by-side lanes; Lanes is the lane count of the
// overlapping group the event belongs to.
type Placement struct {
	Event core.Event
	Coord GridCoordinate
	Lane  int
	Lanes int
}

// LayoutDay places a day's timed events into the given column. Events are
// expected in start order, as DayBucket keeps them.
func LayoutDay(events []core.Event, column int, bounds HourBounds) []Placement {
	var (
		out        []Placement
		laneEnds   []int // row where each lane frees up
		groupStart int   // index into out of the current overlap group
		groupEnd   int   // last row touched by the current group
	)

	closeGroup := func() {
		for i := groupStart; i < len(out); i++ {
			out[i].Lanes = len(laneEnds)
		}
		laneEnds = laneEnds[:0]
		groupStart = len(out)
	}

	for _, e := range events {
		if e.IsAllDay {
			continue
		}
		rs, re, ok := SpanFor(e, bounds.Min)
		if !ok {
			continue
		}

		if len(laneEnds) > 0 && rs >= groupEnd {
			closeGroup()
		}

		lane := -1
		for i, end := range laneEnds {
			if end <= rs {
				lane = i
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, 0)
		}
		laneEnds[lane] = re

		if len(out) == groupStart {
			groupEnd = re
		} else {
			groupEnd = max(groupEnd, re)
		}

		out = append(out, Placement{
			Event: e,
			Coord: GridCoordinate{Column: column, RowStart: rs, RowEnd: re},
			Lane:  lane,
		})
	}
	closeGroup()

	return out
}

// LayoutDays places every visible day, columns numbered from 1.
func LayoutDays(days []DayBucket, bounds HourBounds) []Placement {
	var out []Placement
	for i, d := range days {
		out = append(out, LayoutDay(d.Events, i+1, bounds)...)
	}
	return out
}

// NowMarker positions the current-time line. Offset is the distance into
// Row, scaled to the row height the caller draws with, so the marker moves
// with the minutes instead of jumping from hour to hour.
type NowMarker struct {
	Column int
	Row    int
	Offset int
}

// MarkerFor returns the marker for now over the given column dates. ok is
// false when today is not one of the columns or now falls outside bounds.
func MarkerFor(now time.Time, dates []time.Time, bounds HourBounds, rowHeight int) (NowMarker, bool) {
	column := 0
	today := KeyOf(now)
	for i, d := range dates {
		if KeyOf(d.In(now.Location())) == today {
			column = i + 1
			break
		}
	}
	if column == 0 {
		return NowMarker{}, false
	}

	floatHour := float64(now.Hour()) + float64(now.Minute())/60
	if floatHour < float64(bounds.Min) || floatHour >= float64(bounds.Max) {
		return NowMarker{}, false
	}

	fromStart := floatHour - float64(bounds.Min)
	whole := math.Floor(fromStart)
	return NowMarker{
		Column: column,
		Row:    headerRows + 1 + int(whole),
		Offset: int((fromStart - whole) * float64(rowHeight)),
	}, true
}
