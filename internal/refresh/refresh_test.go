package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theakshaypant/opengym/internal/cache"
	"github.com/theakshaypant/opengym/internal/core"
)

type fakeProvider struct {
	fetch func(ctx context.Context, opts core.FetchOptions) ([]core.Event, error)
	calls []core.FetchOptions
}

func (f *fakeProvider) ID() string   { return "fake" }
func (f *fakeProvider) Name() string { return "Fake" }
func (f *fakeProvider) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	f.calls = append(f.calls, opts)
	return f.fetch(ctx, opts)
}

type brokenStore struct{ err error }

func (b brokenStore) Load() (core.Snapshot, error) { return core.Snapshot{}, b.err }
func (b brokenStore) Save(core.Snapshot) error     { return b.err }

// Wednesday 2026-10-21 08:00 UTC.
var wednesday = time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC)

func at(title string, offset time.Duration, length time.Duration) core.Event {
	start := wednesday.Add(offset)
	return core.NewEvent(title+offset.String(), title, start, start.Add(length))
}

func clock() time.Time { return wednesday }

func TestRefreshBuildsSnapshot(t *testing.T) {
	events := []core.Event{
		at("Open Gym", 4*time.Hour, time.Hour),
		at("Lesson", time.Hour, time.Hour),
		at("OPEN mat", 2*time.Hour, time.Hour),
		at("Broken", time.Hour, 0),
	}
	p := &fakeProvider{fetch: func(context.Context, core.FetchOptions) ([]core.Event, error) {
		return events, nil
	}}
	store := &cache.Memory{}
	r := New(p, store, nil, WithClock(clock), WithLocation(time.UTC))

	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, p.calls, 1)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), p.calls[0].Start)
	assert.Equal(t, time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC), p.calls[0].End)

	require.Len(t, snap.Events, 3, "invalid event dropped")
	assert.Equal(t, "Lesson", snap.Events[0].Title)
	require.NotNil(t, snap.NextEvent)
	assert.Equal(t, "OPEN mat", snap.NextEvent.Title)
	assert.Equal(t, wednesday, snap.FetchedAt)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, saved)
	assert.Equal(t, snap, r.Current())
}

func TestRefreshFailureKeepsLastGood(t *testing.T) {
	fail := false
	p := &fakeProvider{fetch: func(context.Context, core.FetchOptions) ([]core.Event, error) {
		if fail {
			return nil, errors.New("503")
		}
		return []core.Event{at("Open Gym", time.Hour, time.Hour)}, nil
	}}
	r := New(p, nil, nil, WithClock(clock))

	good, err := r.Refresh(context.Background())
	require.NoError(t, err)

	fail = true
	snap, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, good, snap)
	assert.Equal(t, good, r.Current())
	assert.False(t, r.InFlight(), "flag cleared after failure")
}

func TestRefreshCoalescesOverlappingCalls(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	p := &fakeProvider{fetch: func(context.Context, core.FetchOptions) ([]core.Event, error) {
		close(entered)
		<-release
		return nil, nil
	}}
	r := New(p, nil, nil, WithClock(clock))

	done := make(chan error, 1)
	go func() {
		_, err := r.Refresh(context.Background())
		done <- err
	}()

	<-entered
	assert.True(t, r.InFlight())
	_, err := r.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, r.InFlight())
	assert.Len(t, p.calls, 1)
}

func TestSeed(t *testing.T) {
	next := at("Open Gym", time.Hour, time.Hour)
	store := &cache.Memory{}
	require.NoError(t, store.Save(core.Snapshot{
		NextEvent: &next,
		Events:    []core.Event{next},
		FetchedAt: wednesday.Add(-time.Hour),
	}))

	tokyo := time.FixedZone("JST", 9*3600)
	r := New(&fakeProvider{}, store, nil, WithClock(clock), WithLocation(tokyo))
	snap := r.Seed()

	require.Len(t, snap.Events, 1)
	assert.Equal(t, tokyo, snap.Events[0].Start.Location())
	require.NotNil(t, snap.NextEvent)
	assert.Equal(t, 18, snap.NextEvent.Start.Hour())
	assert.Equal(t, snap, r.Current())
}

func TestSeedIgnoresBrokenCache(t *testing.T) {
	r := New(&fakeProvider{}, brokenStore{err: errors.New("corrupt")}, nil)
	assert.True(t, r.Seed().Empty())

	r = New(&fakeProvider{}, nil, nil)
	assert.True(t, r.Seed().Empty())
}

func TestSaveFailureStillSwaps(t *testing.T) {
	p := &fakeProvider{fetch: func(context.Context, core.FetchOptions) ([]core.Event, error) {
		return []core.Event{at("Open Gym", time.Hour, time.Hour)}, nil
	}}
	r := New(p, brokenStore{err: errors.New("disk full")}, nil, WithClock(clock))

	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Events, 1)
	assert.Len(t, r.Current().Events, 1)
}

func TestClearNext(t *testing.T) {
	p := &fakeProvider{fetch: func(context.Context, core.FetchOptions) ([]core.Event, error) {
		return []core.Event{at("Open Gym", time.Hour, time.Hour)}, nil
	}}
	r := New(p, nil, nil, WithClock(clock))
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r.Current().NextEvent)

	r.ClearNext()
	assert.Nil(t, r.Current().NextEvent)
	assert.Len(t, r.Current().Events, 1)
	r.ClearNext()
}
