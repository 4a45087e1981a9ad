package outlook

import (
	"encoding/json"
	"os"

	"golang.org/x/oauth2"

	"github.com/theakshaypant/opengym/internal/core"
)

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

// tokenFromFile reads an OAuth token from a JSON file.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// SaveToken writes tok to path, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// dedupeByUID keeps the first copy of each iCalendar UID. Events without a
// UID are always kept.
func dedupeByUID(events []graphEvent) []core.Event {
	seen := make(map[string]bool, len(events))
	result := make([]core.Event, 0, len(events))
	for _, e := range events {
		if e.uid != "" {
			if seen[e.uid] {
				continue
			}
			seen[e.uid] = true
		}
		result = append(result, e.Event)
	}
	return result
}
