// Package crowd estimates how busy the gym is right now.
//
// The only estimator shipped is a random placeholder. Anything that can
// report a head count (a door sensor, a booking system) can implement
// Estimator and be swapped in.
package crowd

import (
	"math/rand/v2"
	"time"
)

const (
	// Interval is how often the crowd reading is refreshed.
	Interval = time.Minute
	// DefaultCapacity is used when no capacity is configured.
	DefaultCapacity = 40
)

// Estimator reports the current occupancy as a head count.
type Estimator interface {
	Estimate() int
}

// Level buckets an occupancy count relative to capacity.
type Level int

const (
	Quiet Level = iota
	Moderate
	Busy
)

func (l Level) String() string {
	switch l {
	case Moderate:
		return "moderate"
	case Busy:
		return "busy"
	default:
		return "quiet"
	}
}

// Classify maps count onto a Level. A non-positive capacity falls back to
// DefaultCapacity.
func Classify(count, capacity int) Level {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	pct := count * 100 / capacity
	switch {
	case pct < 34:
		return Quiet
	case pct < 67:
		return Moderate
	default:
		return Busy
	}
}

// Reading is one sampled occupancy value.
type Reading struct {
	Count    int
	Capacity int
	Level    Level
	At       time.Time
}

// Sample asks est for a count and classifies it.
func Sample(est Estimator, capacity int, now time.Time) Reading {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	count := max(est.Estimate(), 0)
	return Reading{
		Count:    count,
		Capacity: capacity,
		Level:    Classify(count, capacity),
		At:       now,
	}
}

// RandomEstimator returns an uncorrelated count in [0, Capacity] on every
// call.
type RandomEstimator struct {
	Capacity int
}

func (r RandomEstimator) Estimate() int {
	c := r.Capacity
	if c <= 0 {
		c = DefaultCapacity
	}
	return rand.IntN(c + 1)
}

// Fixed always reports the same count.
type Fixed int

func (f Fixed) Estimate() int { return int(f) }
