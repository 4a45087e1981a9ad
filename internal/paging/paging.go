// Package paging tracks which week (desktop) or which three-day window
// (mobile) is on screen and sequences the animated transitions between them.
//
// Every transition is two-phase. Begin starts the "out" animation and
// records what should happen; the caller waits SettleDelay and then calls
// Settle, which applies the cursor change and reports the direction the new
// content should animate in from. State is a plain value: callers own it and
// keep it across re-renders.
package paging

import (
	"errors"
	"time"
)

const (
	// MaxWeekOffset is the last desktop page (two weeks ahead).
	MaxWeekOffset = 2
	// DayStep is how far the mobile window moves per transition.
	DayStep = 3
	// WindowSize is the number of days the mobile window shows.
	WindowSize = 3
	// SettleDelay is how long the out animation runs before the cursor moves.
	SettleDelay = 250 * time.Millisecond
)

// ErrBusy is returned when a transition is requested while another one is
// still waiting to settle.
var ErrBusy = errors.New("paging: transition in progress")

// View selects which cursor a transition moves.
type View int

const (
	Desktop View = iota
	Mobile
)

func (v View) String() string {
	if v == Mobile {
		return "mobile"
	}
	return "desktop"
}

// Direction is a navigation intent and doubles as the animation hint.
type Direction int

const (
	None Direction = iota
	Prev
	Next
)

func (d Direction) String() string {
	switch d {
	case Prev:
		return "prev"
	case Next:
		return "next"
	default:
		return "none"
	}
}

// Phase of the transition state machine.
type Phase int

const (
	Idle Phase = iota
	TransitioningOut
)

// Transition is a pending cursor move.
type Transition struct {
	View      View
	Direction Direction
	Token     uint64
}

// State holds both cursors and the transition in flight, if any.
type State struct {
	WeekOffset int
	DayIndex   int
	Phase      Phase
	Pending    Transition
	// Token identifies the latest scheduled transition. Settle calls carrying
	// an older token are ignored.
	Token uint64
}

// maxDayIndex is the furthest the mobile window may start for n future days.
func maxDayIndex(n int) int {
	return max(0, n-WindowSize)
}

// CanPrev reports whether a prev transition would move the cursor.
// The UI disables its prev affordance when it is false.
func (s State) CanPrev(v View) bool {
	if v == Mobile {
		return s.DayIndex > 0
	}
	return s.WeekOffset > 0
}

// CanNext reports whether a next transition would move the cursor for a
// mobile sequence of n days.
func (s State) CanNext(v View, n int) bool {
	if v == Mobile {
		return s.DayIndex < n-WindowSize
	}
	return s.WeekOffset < MaxWeekOffset
}

// Begin starts a transition. It returns the new state and the pending
// transition, whose Direction is the "out" animation to play. ok is false
// when the request is out of range (silently ignored) or rejected because
// another transition has not settled yet; in the latter case err is ErrBusy.
func Begin(s State, v View, d Direction, n int) (next State, t Transition, ok bool, err error) {
	if s.Phase == TransitioningOut {
		return s, Transition{}, false, ErrBusy
	}

	switch d {
	case Prev:
		if !s.CanPrev(v) {
			return s, Transition{}, false, nil
		}
	case Next:
		if !s.CanNext(v, n) {
			return s, Transition{}, false, nil
		}
	default:
		return s, Transition{}, false, nil
	}

	s.Token++
	t = Transition{View: v, Direction: d, Token: s.Token}
	s.Phase = TransitioningOut
	s.Pending = t
	return s, t, true, nil
}

// Settle applies the pending transition identified by token. It returns
// the new state and the direction the incoming content animates with.
// ok is false when there is nothing to settle or the token is stale.
func Settle(s State, token uint64, n int) (next State, in Direction, ok bool) {
	if s.Phase != TransitioningOut || s.Pending.Token != token {
		return s, None, false
	}

	t := s.Pending
	switch t.View {
	case Mobile:
		if t.Direction == Prev {
			s.DayIndex = max(0, s.DayIndex-DayStep)
		} else {
			s.DayIndex = min(s.DayIndex+DayStep, maxDayIndex(n))
		}
	default:
		if t.Direction == Prev {
			s.WeekOffset = max(0, s.WeekOffset-1)
		} else {
			s.WeekOffset = min(s.WeekOffset+1, MaxWeekOffset)
		}
	}

	s.Phase = Idle
	s.Pending = Transition{}
	return s, t.Direction, true
}

// Cancel drops a pending transition. Its deferred Settle becomes a no-op.
func Cancel(s State) State {
	if s.Phase != TransitioningOut {
		return s
	}
	s.Phase = Idle
	s.Pending = Transition{}
	s.Token++
	return s
}

// Clamp keeps both cursors in range after the schedule was rebuilt with n
// future days. Positions are preserved where they are still valid.
func Clamp(s State, n int) State {
	s.WeekOffset = min(max(s.WeekOffset, 0), MaxWeekOffset)
	s.DayIndex = min(max(s.DayIndex, 0), maxDayIndex(n))
	return s
}

// Window returns the indexes [from, to) of the mobile days on screen.
func (s State) Window(n int) (from, to int) {
	from = min(max(s.DayIndex, 0), maxDayIndex(n))
	to = min(from+WindowSize, n)
	return from, to
}
