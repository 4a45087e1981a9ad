package util

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Hyperlink wraps text in an OSC 8 link. Terminals without support show the
// text alone.
func Hyperlink(url, text string) string {
	if url == "" {
		return text
	}
	if text == "" {
		text = url
	}
	return ansi.SetHyperlink(url) + text + ansi.ResetHyperlink()
}

// Truncate shortens s to at most width cells, ending in "…" when cut.
// Escape sequences are preserved and not counted.
func Truncate(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// PadRight pads s with spaces to width cells.
func PadRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Center places s in the middle of width cells.
func Center(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return Truncate(s, width)
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}
