package util

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Bring   indoor shoes", "Bring indoor shoes"},
		{"breaks", "Line one<br>Line two<br/>Line three", "Line one\nLine two\nLine three"},
		{"paragraphs", "<p>First</p><p>Second</p>", "First\nSecond"},
		{"list", "<ul><li>Shoes</li><li>Water</li></ul>", "• Shoes\n• Water"},
		{"entities", "Kids &amp; adults &lt;18", "Kids & adults <18"},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in, 0))
		})
	}
}

func TestHTMLToTextLinks(t *testing.T) {
	in := `Book at <a href="https://www.google.com/url?q=https://gym.example/book&amp;sa=D">the booking page</a>.`
	out := HTMLToText(in, 8)

	assert.Contains(t, out, "https://gym.example/book")
	assert.NotContains(t, out, "google.com")
	assert.Equal(t, "Book at the boo….", ansi.Strip(out))
}

func TestHyperlink(t *testing.T) {
	link := Hyperlink("https://gym.example", "Gym")
	assert.Equal(t, "Gym", ansi.Strip(link))
	assert.Contains(t, link, "https://gym.example")

	assert.Equal(t, "Gym", Hyperlink("", "Gym"))
	assert.Equal(t, "https://gym.example", ansi.Strip(Hyperlink("https://gym.example", "")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "OPEN GYM", Truncate("OPEN GYM", 8))
	assert.Equal(t, "OPEN G…", Truncate("OPEN GYM", 7))
	assert.Equal(t, "OPEN GYM", Truncate("OPEN GYM", 0))
}

func TestPadAndCenter(t *testing.T) {
	assert.Equal(t, "Mon  ", PadRight("Mon", 5))
	assert.Equal(t, "Monday", PadRight("Monday", 3))
	assert.Equal(t, " Mon  ", Center("Mon", 6))
	assert.Equal(t, "Mo…", Center("Monday", 3))
}
