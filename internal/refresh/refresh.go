// Package refresh owns the cached schedule snapshot: it seeds it from disk,
// replaces it after every successful fetch and keeps the last good copy
// when a fetch fails.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/cache"
	"github.com/theakshaypant/opengym/internal/core"
	"github.com/theakshaypant/opengym/internal/countdown"
	"github.com/theakshaypant/opengym/internal/schedule"
)

// Interval is the schedule refresh cadence.
const Interval = 10 * time.Minute

// ErrInFlight is returned when a refresh is requested while another one is
// still running. The request is dropped, not queued.
var ErrInFlight = errors.New("refresh: already in flight")

// Refresher fetches events from a provider and maintains the snapshot.
type Refresher struct {
	provider core.Provider
	store    core.SnapshotStore
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time

	inFlight atomic.Bool

	mu   sync.RWMutex
	snap core.Snapshot
}

// Option customises a Refresher.
type Option func(*Refresher)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// WithLocation sets the display location events are normalized to.
func WithLocation(loc *time.Location) Option {
	return func(r *Refresher) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// New creates a Refresher. A nil store keeps snapshots in memory only and a
// nil logger discards log output.
func New(p core.Provider, store core.SnapshotStore, logger *zap.Logger, opts ...Option) *Refresher {
	if store == nil {
		store = &cache.Memory{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{
		provider: p,
		store:    store,
		logger:   logger,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the display location.
func (r *Refresher) Location() *time.Location {
	return r.loc
}

// Now returns the current time in the display location.
func (r *Refresher) Now() time.Time {
	return r.now().In(r.loc)
}

// Seed loads the persisted snapshot. A missing or unreadable snapshot is
// logged and the refresher starts empty.
func (r *Refresher) Seed() core.Snapshot {
	snap, err := r.store.Load()
	switch {
	case errors.Is(err, cache.ErrNoSnapshot):
		r.logger.Debug("no cached snapshot")
		return r.Current()
	case err != nil:
		r.logger.Warn("ignoring cached snapshot", zap.Error(err))
		return r.Current()
	}

	snap = r.normalize(snap)
	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	r.logger.Debug("seeded from cache",
		zap.Int("events", len(snap.Events)),
		zap.Time("fetched_at", snap.FetchedAt))
	return snap
}

// Refresh fetches the three-week window and swaps in the new snapshot.
// On failure the previous snapshot is kept and the error returned.
// Concurrent calls return ErrInFlight.
func (r *Refresher) Refresh(ctx context.Context) (core.Snapshot, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("refresh skipped, previous still running")
		return r.Current(), ErrInFlight
	}
	defer r.inFlight.Store(false)

	now := r.Now()
	start := schedule.WeekStart(now)
	opts := core.FetchOptions{Start: start, End: start.AddDate(0, 0, schedule.WeekCount*7)}

	events, err := r.provider.FetchEvents(ctx, opts)
	if err != nil {
		r.logger.Error("fetch failed, keeping last snapshot",
			zap.String("provider", r.provider.ID()),
			zap.Error(err))
		return r.Current(), fmt.Errorf("fetch %s: %w", r.provider.Name(), err)
	}

	snap := r.normalize(core.Snapshot{Events: events, FetchedAt: now})
	snap.NextEvent = countdown.NextSession(snap.Events, now)

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	if err := r.store.Save(snap); err != nil {
		r.logger.Warn("unable to persist snapshot", zap.Error(err))
	}

	r.logger.Info("schedule refreshed",
		zap.String("provider", r.provider.ID()),
		zap.Int("events", len(snap.Events)),
		zap.Bool("has_next", snap.NextEvent != nil))
	return snap, nil
}

// InFlight reports whether a refresh is running.
func (r *Refresher) InFlight() bool {
	return r.inFlight.Load()
}

// Current returns the snapshot in use.
func (r *Refresher) Current() core.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// ClearNext drops the cached next session, typically after the countdown
// reported it stale. The schedule itself is untouched.
func (r *Refresher) ClearNext() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap.NextEvent == nil {
		return
	}
	r.logger.Debug("clearing stale next session", zap.String("id", r.snap.NextEvent.ID))
	r.snap.NextEvent = nil
}

// normalize converts times to the display location, drops events without a
// positive duration and fills in missing kinds.
func (r *Refresher) normalize(snap core.Snapshot) core.Snapshot {
	out := make([]core.Event, 0, len(snap.Events))
	for _, e := range snap.Events {
		if !e.Valid() {
			r.logger.Warn("dropping event with non-positive duration",
				zap.String("id", e.ID),
				zap.String("title", e.Title))
			continue
		}
		if e.Kind == core.KindOther {
			e.Kind = core.ClassifyTitle(e.Title)
		}
		out = append(out, e.In(r.loc))
	}
	slices.SortStableFunc(out, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
	snap.Events = out

	if snap.NextEvent != nil {
		next := snap.NextEvent.In(r.loc)
		snap.NextEvent = &next
	}
	return snap
}
