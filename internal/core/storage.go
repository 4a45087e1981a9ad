package core

import (
	"time"
)

// Snapshot is one successful fetch: the full schedule plus the cached next
// qualifying session. It is replaced wholesale, never patched.
type Snapshot struct {
	// NextEvent is nil when no open session is coming up.
	NextEvent *Event    `json:"next_event"`
	Events    []Event   `json:"events"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Empty reports whether the snapshot carries no schedule at all.
func (s Snapshot) Empty() bool {
	return s.NextEvent == nil && len(s.Events) == 0
}

// SnapshotStore persists the latest snapshot between runs. It is read only
// at start-up, before the first network refresh completes.
type SnapshotStore interface {
	Load() (Snapshot, error)
	Save(s Snapshot) error
}
