package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// cellStyle indexes the palette a canvas is rendered with.
type cellStyle int

const (
	styleBlank cellStyle = iota
	styleRule
	styleOpen
	styleLesson
	styleOther
	styleNow
)

var palette = map[cellStyle]lipgloss.Style{
	styleRule:   RuleStyle,
	styleOpen:   OpenStyle,
	styleLesson: LessonStyle,
	styleOther:  OtherStyle,
	styleNow:    NowStyle,
}

// cont marks the second cell of a double-width rune.
const cont rune = 0

type cell struct {
	r     rune
	style cellStyle
}

// canvas is a fixed grid of terminal cells. Event blocks, rules and the
// now marker are painted onto it and it is rendered line by line, one
// lipgloss call per run of equally styled cells.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: max(w, 0), h: max(h, 0)}
	c.cells = make([][]cell, c.h)
	for y := range c.cells {
		row := make([]cell, c.w)
		for x := range row {
			row[x] = cell{r: ' '}
		}
		c.cells[y] = row
	}
	return c
}

func (c *canvas) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.w && y < c.h
}

// fill paints w cells starting at (x, y) with r in style.
func (c *canvas) fill(x, y, w int, r rune, style cellStyle) {
	for i := 0; i < w; i++ {
		if c.in(x+i, y) {
			c.cells[y][x+i] = cell{r: r, style: style}
		}
	}
}

// text writes s from (x, y), clipped to w cells, keeping each cell's style
// unless style is non-blank. Wide runes take two cells; zero-width runes
// are dropped.
func (c *canvas) text(x, y, w int, s string, style cellStyle) {
	i := 0
	for _, r := range s {
		rw := ansi.StringWidth(string(r))
		if rw == 0 {
			continue
		}
		if i+rw > w {
			break
		}
		for j := 0; j < rw; j++ {
			if !c.in(x+i+j, y) {
				continue
			}
			st := c.cells[y][x+i+j].style
			if style != styleBlank {
				st = style
			}
			ch := r
			if j > 0 {
				ch = cont
			}
			c.cells[y][x+i+j] = cell{r: ch, style: st}
		}
		i += rw
	}
}

// glyph is what cell x of row draws. A wide rune whose second cell was
// painted over, or a second cell whose rune was, becomes a space.
func glyph(row []cell, x int) string {
	r := row[x].r
	if r == cont {
		if x > 0 && row[x-1].r != cont && ansi.StringWidth(string(row[x-1].r)) > 1 {
			return ""
		}
		return " "
	}
	if ansi.StringWidth(string(r)) > 1 && (x+1 >= len(row) || row[x+1].r != cont) {
		return " "
	}
	return string(r)
}

func (c *canvas) lines() []string {
	out := make([]string, c.h)
	for y, row := range c.cells {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].style == row[start].style {
				continue
			}
			var run strings.Builder
			for i := start; i < x; i++ {
				run.WriteString(glyph(row, i))
			}
			if st, ok := palette[row[start].style]; ok {
				b.WriteString(st.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			start = x
		}
		out[y] = b.String()
	}
	return out
}
