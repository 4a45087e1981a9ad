package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/core"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Riverside Gym//Schedule//EN
BEGIN:VEVENT
UID:open-gym-series
SUMMARY:OPEN GYM
LOCATION:Main hall
DTSTART:20261019T180000Z
DTEND:20261019T193000Z
RRULE:FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6
EXDATE:20261021T180000Z
END:VEVENT
BEGIN:VEVENT
UID:open-gym-series
RECURRENCE-ID:20261026T180000Z
SUMMARY:OPEN GYM (late)
DTSTART:20261026T190000Z
DTEND:20261026T203000Z
END:VEVENT
BEGIN:VEVENT
UID:lesson-1
SUMMARY:Beginner Lesson
DTSTART:20261020T170000
DTEND:20261020T180000
END:VEVENT
BEGIN:VEVENT
UID:closed-1
SUMMARY:Gym closed
DTSTART;VALUE=DATE:20261022
END:VEVENT
BEGIN:VEVENT
SUMMARY:Pop-up open mat
DTSTART:20261023T120000Z
DTEND:20261023T130000Z
END:VEVENT
BEGIN:VEVENT
UID:cancelled-1
SUMMARY:OPEN GYM
STATUS:CANCELLED
DTSTART:20261020T090000Z
DTEND:20261020T100000Z
END:VEVENT
BEGIN:VEVENT
UID:broken-1
SUMMARY:No start
END:VEVENT
BEGIN:VEVENT
UID:outside-1
SUMMARY:OPEN GYM
DTSTART:20261201T090000Z
DTEND:20261201T100000Z
END:VEVENT
END:VCALENDAR
`

var (
	windowStart = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.AddDate(0, 0, 21)
)

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func TestParseFeed(t *testing.T) {
	f, err := parseFeed([]byte(crlf(sampleFeed)), time.UTC)
	require.NoError(t, err)

	assert.Len(t, f.events, 7)
	assert.Len(t, f.skipped, 1, "VEVENT without DTSTART")

	byUID := map[string]vevent{}
	for _, ev := range f.events {
		if ev.Recurrence == nil {
			byUID[ev.UID] = ev
		}
	}

	series := byUID["open-gym-series"]
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6", series.RRule)
	require.Len(t, series.ExDates, 1)
	assert.Equal(t, time.Date(2026, 10, 21, 18, 0, 0, 0, time.UTC), series.ExDates[0])

	closed := byUID["closed-1"]
	assert.True(t, closed.AllDay)
	assert.Equal(t, 24*time.Hour, closed.End.Sub(closed.Start))

	assert.True(t, byUID["cancelled-1"].Cancelled)
}

func TestParseFeedGeneratesStableUID(t *testing.T) {
	a, err := parseFeed([]byte(crlf(sampleFeed)), time.UTC)
	require.NoError(t, err)
	b, err := parseFeed([]byte(crlf(sampleFeed)), time.UTC)
	require.NoError(t, err)

	find := func(f feed) string {
		for _, ev := range f.events {
			if ev.Summary == "Pop-up open mat" {
				return ev.UID
			}
		}
		return ""
	}
	require.NotEmpty(t, find(a))
	assert.Equal(t, find(a), find(b))
}

func TestParseFeedEmpty(t *testing.T) {
	_, err := parseFeed([]byte("  \n"), time.UTC)
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)

	v, allDay, err := parseTime("20261019T093000", nil, tokyo)
	require.NoError(t, err)
	assert.False(t, allDay)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC), v.UTC())

	v, allDay, err = parseTime("20261019", map[string][]string{"VALUE": {"DATE"}}, tokyo)
	require.NoError(t, err)
	assert.True(t, allDay)
	assert.Equal(t, 19, v.Day())

	_, _, err = parseTime("", nil, tokyo)
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	f, err := parseFeed([]byte(crlf(sampleFeed)), time.UTC)
	require.NoError(t, err)

	events := expand(f.events, windowStart, windowEnd, zap.NewNop())

	var titles []string
	var open []core.Event
	for _, e := range events {
		titles = append(titles, e.Title)
		if strings.HasPrefix(e.Title, "OPEN GYM") {
			open = append(open, e)
		}
	}

	// 6 occurrences less one EXDATE; the cancelled and out-of-window
	// events are gone.
	require.Len(t, open, 5, "%v", titles)
	assert.Equal(t, time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC), open[0].Start.UTC())
	assert.Equal(t, "OPEN GYM (late)", open[1].Title)
	assert.Equal(t, 19, open[1].Start.UTC().Hour())
	assert.Equal(t, time.Date(2026, 11, 4, 18, 0, 0, 0, time.UTC), open[4].Start.UTC())
	assert.Equal(t, 90*time.Minute, open[0].Duration())
	assert.Equal(t, core.KindOpen, open[0].Kind)
	assert.Equal(t, "Main hall", open[0].Location)
	assert.NotEqual(t, open[0].ID, open[2].ID)

	assert.Contains(t, titles, "Beginner Lesson")
	assert.Contains(t, titles, "Gym closed")
	assert.Contains(t, titles, "Pop-up open mat")
	assert.Len(t, events, 8)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Start.Before(events[i-1].Start), "sorted by start")
	}
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return windowStart.Add(time.Duration(h) * time.Hour) }

	assert.True(t, overlaps(at(1), at(2), at(0), at(3)))
	assert.True(t, overlaps(at(-1), at(1), at(0), at(3)))
	assert.False(t, overlaps(at(-2), at(0), at(0), at(3)))
	assert.False(t, overlaps(at(3), at(4), at(0), at(3)))
	assert.True(t, overlaps(at(1), at(1), at(0), at(3)))
}

func TestAdapterFetchEvents(t *testing.T) {
	var hits, status atomic.Int32
	status.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` && status.Load() == http.StatusOK {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(crlf(sampleFeed)))
	}))
	defer srv.Close()

	a := NewICSAdapter("ics", "Riverside Gym", srv.URL+"/private/token.ics", time.UTC, nil)
	require.NoError(t, a.Login(context.Background()))
	opts := core.FetchOptions{Start: windowStart, End: windowEnd}

	first, err := a.FetchEvents(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, first, 8)
	assert.Equal(t, "ics", first[0].ProviderID)

	second, err := a.FetchEvents(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second, "304 reuses the previous body")

	status.Store(http.StatusInternalServerError)
	third, err := a.FetchEvents(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, third, 8)
	assert.EqualValues(t, 3, hits.Load())
}

func TestAdapterFetchFailsWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewICSAdapter("ics", "Gym", srv.URL+"/secret-token.ics", time.UTC, nil)
	_, err := a.FetchEvents(context.Background(), core.FetchOptions{Start: windowStart, End: windowEnd})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestLogin(t *testing.T) {
	a := NewICSAdapter("ics", "Gym", "webcal://example.com/gym.ics", nil, nil)
	require.NoError(t, a.Login(context.Background()))
	assert.Contains(t, a.Calendars(), "https://example.com/gym.ics")

	bad := NewICSAdapter("ics", "Gym", "ftp://example.com/gym.ics", nil, nil)
	assert.Error(t, bad.Login(context.Background()))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/abc.ics?token=x"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
