package tui

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestCanvasWideRunes(t *testing.T) {
	tests := []struct {
		name string
		text string
		w    int
		want string
	}{
		{name: "ascii", text: "OPEN", w: 7, want: "OPEN   │"},
		{name: "wide fits", text: "日本語x", w: 6, want: "日本語 │"},
		{name: "wide clipped whole", text: "日本語", w: 5, want: "日本   │"},
		{name: "zero width dropped", text: "e\u0301x", w: 7, want: "ex     │"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCanvas(8, 1)
			c.fill(7, 0, 1, '│', styleRule)
			c.text(0, 0, tt.w, tt.text, styleOpen)

			line := c.lines()[0]
			assert.Equal(t, tt.want, ansi.Strip(line))
			assert.Equal(t, 8, ansi.StringWidth(line))
		})
	}
}

func TestCanvasWideRunePaintedOver(t *testing.T) {
	c := newCanvas(6, 2)
	c.text(0, 0, 6, "日本語", styleLesson)
	c.fill(1, 0, 1, '·', styleRule)

	c.text(0, 1, 6, "日本語", styleLesson)
	c.fill(2, 1, 1, '·', styleRule)

	for _, line := range c.lines() {
		assert.Equal(t, 6, ansi.StringWidth(line))
	}
	assert.Equal(t, " ·本語", ansi.Strip(c.lines()[0]))
	assert.Equal(t, "日· 語", ansi.Strip(c.lines()[1]))
}
