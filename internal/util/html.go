package util

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	anchorRe    = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a\s*>`)
	breakRe     = regexp.MustCompile(`(?i)<br\s*/?\s*>|</(?:p|div|h[1-6]|tr)\s*>`)
	itemRe      = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	spacesRe    = regexp.MustCompile(`[^\S\n]+`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText flattens an event description to terminal text. Booking
// systems and Outlook often send HTML bodies; plain text passes through
// with only whitespace tidied. Links become OSC 8 hyperlinks whose label
// is cut to width cells (width <= 0 keeps it whole).
func HTMLToText(s string, width int) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")

	s = anchorRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := anchorRe.FindStringSubmatch(m)
		href := unwrapRedirect(html.UnescapeString(parts[1]))
		label := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(parts[2], "")))
		if label == "" {
			label = href
		}
		return Hyperlink(href, Truncate(label, width))
	})

	s = itemRe.ReplaceAllString(s, "\n• ")
	s = breakRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spacesRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRunsRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// unwrapRedirect returns the target of a google.com/url?q= redirect.
func unwrapRedirect(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Host == "www.google.com" && u.Path == "/url" {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}
	return raw
}
