package paging

// SwipeThreshold is the net horizontal travel, in pixels, a drag must
// exceed to count as a swipe.
const SwipeThreshold = 50

// ClassifySwipe maps a drag from startX to endX onto a direction. Dragging
// left pages forward, dragging right pages back. Only the net displacement
// matters.
func ClassifySwipe(startX, endX float64) Direction {
	dx := endX - startX
	switch {
	case dx < -SwipeThreshold:
		return Next
	case dx > SwipeThreshold:
		return Prev
	default:
		return None
	}
}

// Gesture tracks a single drag between its press and release.
type Gesture struct {
	startX float64
	active bool
}

// Start records where the drag began.
func (g *Gesture) Start(x float64) {
	g.startX = x
	g.active = true
}

// Active reports whether a drag is in progress.
func (g *Gesture) Active() bool {
	return g.active
}

// End finishes the drag at x and classifies it. A release without a
// matching press yields None.
func (g *Gesture) End(x float64) Direction {
	if !g.active {
		return None
	}
	g.active = false
	return ClassifySwipe(g.startX, x)
}

// Reset abandons a drag in progress.
func (g *Gesture) Reset() {
	g.active = false
}
