package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/theakshaypant/opengym/internal/core"
	"github.com/theakshaypant/opengym/internal/countdown"
	"github.com/theakshaypant/opengym/internal/crowd"
	"github.com/theakshaypant/opengym/internal/paging"
	"github.com/theakshaypant/opengym/internal/refresh"
	"github.com/theakshaypant/opengym/internal/schedule"
)

const (
	// MobileBreakpoint is the terminal width below which the three-day
	// window replaces the week grid.
	MobileBreakpoint = 100
	// CellWidth converts terminal columns to the pixel distances the swipe
	// threshold is expressed in.
	CellWidth = 8
)

// KeyMap defines the keybindings for the TUI
type KeyMap struct {
	Prev       key.Binding
	Next       key.Binding
	Today      key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Layout     key.Binding
	Refresh    key.Binding
	Quit       key.Binding
	Help       key.Binding
}

var DefaultKeyMap = KeyMap{
	Prev: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "prev"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "next"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "this week"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("up", "k", "pgup"),
		key.WithHelp("↑", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("down", "j", "pgdown"),
		key.WithHelp("↓", "scroll down"),
	),
	Layout: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "layout"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// LayoutMode selects between the week grid and the three-day window.
type LayoutMode int

const (
	LayoutAuto LayoutMode = iota
	LayoutDesktop
	LayoutMobile
)

func (l LayoutMode) String() string {
	switch l {
	case LayoutDesktop:
		return "desktop"
	case LayoutMobile:
		return "mobile"
	default:
		return "auto"
	}
}

// Options configures a Model.
type Options struct {
	Title     string
	Refresher *refresh.Refresher
	Estimator crowd.Estimator
	Capacity  int
	// Strict selects exact-fit hour bounds instead of the padded defaults.
	Strict bool
	Layout LayoutMode
	// Now overrides the refresher's clock.
	Now func() time.Time
}

// Model is the Bubble Tea model for the schedule grid.
type Model struct {
	title     string
	refresher *refresh.Refresher
	estimator crowd.Estimator
	capacity  int
	strict    bool
	layout    LayoutMode
	now       func() time.Time

	snap     core.Snapshot
	sched    schedule.Schedule
	builtFor schedule.DateKey

	paging  paging.State
	anim    paging.Direction // "in" hint after the last settle
	animTok uint64
	gesture paging.Gesture

	tracker countdown.Tracker
	display countdown.Display
	reading crowd.Reading

	width      int
	height     int
	keys       KeyMap
	body       viewport.Model
	ready      bool
	refreshing bool
	err        error
	showHelp   bool
}

// Messages
type snapshotMsg struct {
	snap core.Snapshot
	err  error
}

type countdownTickMsg time.Time

type refreshTickMsg time.Time

type crowdTickMsg time.Time

type settleMsg struct{ token uint64 }

type animDoneMsg struct{ token uint64 }

// NewModel builds the model from the refresher's current (seeded) snapshot.
func NewModel(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = opts.Refresher.Now
	}
	est := opts.Estimator
	if est == nil {
		est = crowd.RandomEstimator{Capacity: opts.Capacity}
	}

	m := Model{
		title:     opts.Title,
		refresher: opts.Refresher,
		estimator: est,
		capacity:  opts.Capacity,
		strict:    opts.Strict,
		layout:    opts.Layout,
		now:       now,
		keys:      DefaultKeyMap,
		snap:      opts.Refresher.Current(),
		// Init sends the first fetch.
		refreshing: true,
	}
	if m.title == "" {
		m.title = "Open Gym"
	}

	t := m.now()
	m.rebuild(t)
	m.display, _ = m.tracker.Tick(t, m.snap.NextEvent)
	m.reading = crowd.Sample(m.estimator, m.capacity, t)
	return m
}

// Commands
func (m Model) refreshCmd() tea.Cmd {
	r := m.refresher
	return func() tea.Msg {
		snap, err := r.Refresh(context.Background())
		return snapshotMsg{snap: snap, err: err}
	}
}

func countdownTickCmd() tea.Cmd {
	return tea.Tick(countdown.Interval, func(t time.Time) tea.Msg {
		return countdownTickMsg(t)
	})
}

func refreshTickCmd() tea.Cmd {
	return tea.Tick(refresh.Interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func crowdTickCmd() tea.Cmd {
	return tea.Tick(crowd.Interval, func(t time.Time) tea.Msg {
		return crowdTickMsg(t)
	})
}

func settleCmd(token uint64) tea.Cmd {
	return tea.Tick(paging.SettleDelay, func(time.Time) tea.Msg {
		return settleMsg{token: token}
	})
}

func animDoneCmd(token uint64) tea.Cmd {
	return tea.Tick(paging.SettleDelay, func(time.Time) tea.Msg {
		return animDoneMsg{token: token}
	})
}

// Init starts the first fetch and the three periodic triggers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), countdownTickCmd(), refreshTickCmd(), crowdTickCmd())
}

// ActiveView selects the layout in effect.
func (m Model) ActiveView() paging.View {
	switch m.layout {
	case LayoutDesktop:
		return paging.Desktop
	case LayoutMobile:
		return paging.Mobile
	}
	if m.width > 0 && m.width < MobileBreakpoint {
		return paging.Mobile
	}
	return paging.Desktop
}

// Paging exposes the cursors, mostly for tests.
func (m Model) Paging() paging.State {
	return m.paging
}

// rebuild re-derives the schedule from the snapshot. Cursors are clamped,
// never reset, so a background refresh keeps the user's place.
func (m *Model) rebuild(now time.Time) {
	m.sched = schedule.Build(m.snap.Events, now)
	m.builtFor = schedule.KeyOf(now)
	m.paging = paging.Clamp(m.paging, len(m.sched.MobileDays))
}

func (m *Model) navigate(d paging.Direction) tea.Cmd {
	s, t, ok, err := paging.Begin(m.paging, m.ActiveView(), d, len(m.sched.MobileDays))
	if errors.Is(err, paging.ErrBusy) || !ok {
		return nil
	}
	m.paging = s
	m.anim = paging.None
	return settleCmd(t.Token)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.syncBody()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		before := m.ActiveView()
		m.width = msg.Width
		m.height = msg.Height
		if m.ActiveView() != before {
			m.paging = paging.Cancel(m.paging)
		}
		m.resizeBody()
		return m, nil

	case snapshotMsg:
		m.refreshing = false
		if errors.Is(msg.err, refresh.ErrInFlight) {
			return m, nil
		}
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.snap = msg.snap
		m.rebuild(m.now())
		m.tracker.Reset()
		m.display, _ = m.tracker.Tick(m.now(), m.snap.NextEvent)
		return m, nil

	case countdownTickMsg:
		now := m.now()
		if schedule.KeyOf(now) != m.builtFor {
			m.rebuild(now)
		}
		d, changed := m.tracker.Tick(now, m.snap.NextEvent)
		if changed {
			m.display = d
		}
		if d.ClearCache {
			m.refresher.ClearNext()
			m.snap.NextEvent = nil
			if !m.refreshing {
				m.refreshing = true
				return m, tea.Batch(m.refreshCmd(), countdownTickCmd())
			}
		}
		return m, countdownTickCmd()

	case refreshTickMsg:
		if m.refreshing {
			return m, refreshTickCmd()
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(), refreshTickCmd())

	case crowdTickMsg:
		m.reading = crowd.Sample(m.estimator, m.capacity, m.now())
		return m, crowdTickCmd()

	case settleMsg:
		s, in, ok := paging.Settle(m.paging, msg.token, len(m.sched.MobileDays))
		if !ok {
			return m, nil
		}
		m.paging = s
		m.anim = in
		m.animTok = msg.token
		m.body.GotoTop()
		return m, animDoneCmd(msg.token)

	case animDoneMsg:
		if msg.token == m.animTok {
			m.anim = paging.None
		}
		return m, nil

	case tea.MouseMsg:
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft {
				m.gesture.Start(float64(msg.X * CellWidth))
			}
		case tea.MouseActionRelease:
			if d := m.gesture.End(float64(msg.X * CellWidth)); d != paging.None {
				return m, m.navigate(d)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil

		case key.Matches(msg, m.keys.Prev):
			return m, m.navigate(paging.Prev)

		case key.Matches(msg, m.keys.Next):
			return m, m.navigate(paging.Next)

		case key.Matches(msg, m.keys.Today):
			m.paging = paging.Cancel(m.paging)
			m.paging.WeekOffset = 0
			m.paging.DayIndex = 0
			m.anim = paging.None
			return m, nil

		case key.Matches(msg, m.keys.ScrollUp):
			m.body.ViewUp()
			return m, nil

		case key.Matches(msg, m.keys.ScrollDown):
			m.body.ViewDown()
			return m, nil

		case key.Matches(msg, m.keys.Layout):
			m.layout = (m.layout + 1) % 3
			m.paging = paging.Cancel(m.paging)
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refreshCmd()
		}
	}
	return m, nil
}

// chromeLines is the space taken by everything except the hour rows.
const chromeLines = 7

func (m *Model) resizeBody() {
	h := max(m.height-chromeLines, rowLines)
	w := max(m.width-2, gutterWidth+minColWidth)
	if !m.ready {
		m.body = viewport.New(w, h)
		m.ready = true
		return
	}
	m.body.Width = w
	m.body.Height = h
}

// syncBody redraws the hour rows into the viewport.
func (m *Model) syncBody() {
	if !m.ready {
		return
	}
	now := m.now()
	g := buildGrid(m.visibleDays(), m.strict, now)
	m.body.SetContent(joinLines(renderBody(g, m.body.Width, now)))
}

// visibleDays returns the week page or the three-day window.
func (m Model) visibleDays() []schedule.DayBucket {
	if m.ActiveView() == paging.Mobile {
		from, to := m.paging.Window(len(m.sched.MobileDays))
		return m.sched.MobileDays[from:to]
	}
	return m.sched.Weeks[m.paging.WeekOffset].Days
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
