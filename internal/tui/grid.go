package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theakshaypant/opengym/internal/core"
	"github.com/theakshaypant/opengym/internal/schedule"
	"github.com/theakshaypant/opengym/internal/util"
)

const (
	// rowLines is how many terminal lines one hour row takes.
	rowLines    = 2
	gutterWidth = 6
	minColWidth = 10
)

// gridView is everything needed to draw one page: the visible days plus
// the bounds, placements and marker derived from them.
type gridView struct {
	Days       []schedule.DayBucket
	Bounds     schedule.HourBounds
	Placements []schedule.Placement
	Marker     schedule.NowMarker
	HasMarker  bool
}

func buildGrid(days []schedule.DayBucket, strict bool, now time.Time) gridView {
	g := gridView{
		Days:   days,
		Bounds: schedule.DayBounds(days, strict),
	}
	g.Placements = schedule.LayoutDays(days, g.Bounds)

	dates := make([]time.Time, len(days))
	for i, d := range days {
		dates[i] = d.Date
	}
	g.Marker, g.HasMarker = schedule.MarkerFor(now, dates, g.Bounds, rowLines)
	return g
}

func columnWidth(width, days int) int {
	if days == 0 {
		return minColWidth
	}
	return max((width-gutterWidth)/days, minColWidth)
}

// renderHeader draws the day names and, when any day has them, a line of
// all-day events.
func renderHeader(g gridView, width int, now time.Time) []string {
	cw := columnWidth(width, len(g.Days))
	today := schedule.KeyOf(now)

	var names, allDay strings.Builder
	names.WriteString(strings.Repeat(" ", gutterWidth))
	allDay.WriteString(strings.Repeat(" ", gutterWidth))
	hasAllDay := false

	for _, d := range g.Days {
		label := util.Center(d.Date.Format("Mon 2"), cw-1)
		if d.Key() == today {
			names.WriteString(TodayStyle.Render(label))
		} else {
			names.WriteString(DayHeaderStyle.Render(label))
		}
		names.WriteString(" ")

		var titles []string
		for _, e := range d.AllDay() {
			titles = append(titles, e.Title)
		}
		if len(titles) > 0 {
			hasAllDay = true
		}
		allDay.WriteString(AllDayStyle.Render(util.Center(util.Truncate(strings.Join(titles, ", "), cw-1), cw-1)))
		allDay.WriteString(" ")
	}

	out := []string{names.String()}
	if hasAllDay {
		out = append(out, allDay.String())
	}
	return out
}

// renderBody draws the hour rows with the hour gutter on the left.
func renderBody(g gridView, width int, now time.Time) []string {
	cols := len(g.Days)
	cw := columnWidth(width, cols)
	height := g.Bounds.Rows() * rowLines
	c := newCanvas(cw*cols, height)

	for col := 0; col < cols; col++ {
		x := col*cw + cw - 1
		for y := 0; y < height; y++ {
			c.fill(x, y, 1, '│', styleRule)
		}
		for y := 0; y < height; y += rowLines {
			c.fill(col*cw, y, cw-1, '·', styleRule)
		}
	}

	for _, p := range g.Placements {
		paintEvent(c, p, cw)
	}

	markerLine := -1
	if g.HasMarker {
		markerLine = (g.Marker.Row-2)*rowLines + g.Marker.Offset
		x0 := (g.Marker.Column - 1) * cw
		for x := x0; x < x0+cw-1; x++ {
			if c.in(x, markerLine) && c.cells[markerLine][x].style <= styleRule {
				c.cells[markerLine][x] = cell{r: '─', style: styleNow}
			}
		}
		if c.in(x0, markerLine) {
			c.cells[markerLine][x0] = cell{r: '●', style: styleNow}
		}
	}

	lines := c.lines()
	for y := range lines {
		var gutter string
		switch {
		case y == markerLine:
			gutter = NowStyle.Render(now.Format("15:04")) + " "
		case y%rowLines == 0:
			hour := (g.Bounds.Min + y/rowLines) % 24
			gutter = GutterStyle.Render(fmt.Sprintf("%02d:00", hour)) + " "
		default:
			gutter = strings.Repeat(" ", gutterWidth)
		}
		lines[y] = gutter + lines[y]
	}
	return lines
}

func paintEvent(c *canvas, p schedule.Placement, cw int) {
	inner := cw - 1
	lanes := max(p.Lanes, 1)
	laneW := max(inner/lanes, 1)
	x := (p.Coord.Column-1)*cw + p.Lane*laneW
	w := laneW
	if p.Lane == lanes-1 {
		w = inner - p.Lane*laneW
	}

	y0 := (p.Coord.RowStart - 2) * rowLines
	y1 := (p.Coord.RowEnd - 2) * rowLines
	style := kindStyle(p.Event.Kind)

	for y := y0; y < y1; y++ {
		c.fill(x, y, w, ' ', style)
	}
	c.text(x+1, y0, w-1, p.Event.Title, style)
	if y1-y0 > 1 {
		c.text(x+1, y0+1, w-1, timeRange(p.Event), style)
	}
}

func kindStyle(k core.Kind) cellStyle {
	switch k {
	case core.KindOpen:
		return styleOpen
	case core.KindLesson:
		return styleLesson
	default:
		return styleOther
	}
}

func timeRange(e core.Event) string {
	return e.Start.Format("15:04") + "-" + e.End.Format("15:04")
}
