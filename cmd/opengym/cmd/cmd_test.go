package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/opengym/internal/core"
	"github.com/theakshaypant/opengym/internal/crowd"
	"github.com/theakshaypant/opengym/internal/refresh"
	"github.com/theakshaypant/opengym/internal/schedule"
	"github.com/theakshaypant/opengym/internal/tui"
)

// Wednesday 2026-10-21 08:00 UTC.
var wednesday = time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC)

type staticProvider struct{ events []core.Event }

func (s staticProvider) ID() string   { return "static" }
func (s staticProvider) Name() string { return "Static" }
func (s staticProvider) FetchEvents(context.Context, core.FetchOptions) ([]core.Event, error) {
	return s.events, nil
}

func sampleEvents() []core.Event {
	closed := core.NewEvent("closed", "Closed for meet", time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC))
	closed.IsAllDay = true
	return []core.Event{
		core.NewEvent("open", "OPEN GYM", wednesday.Add(time.Hour), wednesday.Add(3*time.Hour)),
		closed,
	}
}

func TestPrintWeek(t *testing.T) {
	sched := schedule.Build(sampleEvents(), wednesday)

	var buf bytes.Buffer
	printWeek(&buf, sched.Weeks[0], true)
	out := buf.String()

	assert.Contains(t, out, "This Week (Oct 19 - 23)  09:00-11:00")
	assert.Contains(t, out, "Wed, Oct 21")
	assert.Contains(t, out, "09:00-11:00  OPEN GYM")
	assert.Contains(t, out, "[open]")
	assert.Contains(t, out, "all day      Closed for meet")
	assert.Contains(t, out, "Total: 2 events")

	buf.Reset()
	printWeek(&buf, sched.Weeks[0], false)
	assert.Contains(t, buf.String(), "07:00-21:00")

	buf.Reset()
	printWeek(&buf, sched.Weeks[2], true)
	assert.Contains(t, buf.String(), "2 Weeks Out (Nov 2 - 6)")
	assert.Contains(t, buf.String(), "Total: 0 events")
}

func TestPrintNextSession(t *testing.T) {
	next := sampleEvents()[0]
	next.Location = "Main hall"
	next.Description = "<p>Bring <b>shoes</b></p>"
	reading := crowd.Reading{Count: 12, Capacity: 40, Level: crowd.Quiet}

	var buf bytes.Buffer
	printNextSession(&buf, &next, wednesday.Add(15*time.Minute), reading)
	out := buf.String()
	assert.Contains(t, out, "STARTS IN 45M")
	assert.Contains(t, out, "quiet (12 of 40)")
	assert.Contains(t, out, "📍 Location:    Main hall")
	assert.Contains(t, out, "Bring shoes")

	buf.Reset()
	printNextSession(&buf, nil, wednesday, reading)
	assert.Contains(t, buf.String(), "no upcoming sessions")
	assert.NotContains(t, buf.String(), "When:")
}

func TestWatcher(t *testing.T) {
	now := wednesday
	r := refresh.New(staticProvider{events: sampleEvents()}, nil, nil,
		refresh.WithClock(func() time.Time { return now }),
		refresh.WithLocation(time.UTC))

	var buf bytes.Buffer
	w := newWatcher(context.Background(), &buf, r, crowd.Fixed(30), 40)
	w.refresh()
	assert.Contains(t, buf.String(), "08:00:00  starts in 1h 00m")

	// Sub-minute ticks don't print.
	buf.Reset()
	now = wednesday.Add(20 * time.Second)
	w.tick()
	assert.Empty(t, buf.String())

	now = wednesday.Add(time.Minute)
	w.tick()
	assert.Equal(t, "08:01:00  starts in 59m\n", buf.String())

	buf.Reset()
	w.sample()
	w.sample()
	assert.Equal(t, "08:01:00  crowd busy (30 of 40)\n", buf.String())
}

// recordingProvider hands each fetch's context to the test.
type recordingProvider struct {
	staticProvider
	ctxs chan context.Context
}

func (p recordingProvider) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	p.ctxs <- ctx
	return p.staticProvider.FetchEvents(ctx, opts)
}

func TestWatcherStaleRefreshFollowsCommandContext(t *testing.T) {
	now := wednesday
	p := recordingProvider{staticProvider: staticProvider{events: sampleEvents()}, ctxs: make(chan context.Context, 4)}
	r := refresh.New(p, nil, nil,
		refresh.WithClock(func() time.Time { return now }),
		refresh.WithLocation(time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newWatcher(ctx, io.Discard, r, crowd.Fixed(0), 40)
	w.refresh()
	require.Len(t, p.ctxs, 1)
	<-p.ctxs
	require.NotNil(t, r.Current().NextEvent)

	// Ten minutes after the session started the cached event is stale.
	now = wednesday.Add(70 * time.Minute)
	w.tick()
	w.wait()
	require.Len(t, p.ctxs, 1)
	got := <-p.ctxs
	assert.Nil(t, r.Current().NextEvent)

	cancel()
	assert.ErrorIs(t, got.Err(), context.Canceled)

	w.refresh()
	assert.Empty(t, p.ctxs)
}

func TestDisplayLocation(t *testing.T) {
	loc, err := displayLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = displayLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = displayLocation("Not/AZone")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a@x", "b@y"}, splitList(" a@x, ,b@y "))
	assert.Nil(t, splitList(""))
}

func TestParseLayout(t *testing.T) {
	l, err := parseLayout("mobile")
	require.NoError(t, err)
	assert.Equal(t, tui.LayoutMobile, l)

	l, err = parseLayout("")
	require.NoError(t, err)
	assert.Equal(t, tui.LayoutAuto, l)

	_, err = parseLayout("tablet")
	assert.Error(t, err)
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config, err := readConfigFile(path)
	require.NoError(t, err)
	assert.Empty(t, config)

	config["default_profile"] = "downtown"
	config["profiles"] = map[string]interface{}{
		"downtown": map[string]interface{}{"provider": "ics", "crowd_capacity": 60},
	}
	require.NoError(t, writeConfigFile(path, config))

	got, err := readConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "downtown", got["default_profile"])
	profiles := got["profiles"].(map[string]interface{})
	assert.Equal(t, "ics", profiles["downtown"].(map[string]interface{})["provider"])
	assert.Equal(t, 60, profiles["downtown"].(map[string]interface{})["crowd_capacity"])
}
