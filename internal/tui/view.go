package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theakshaypant/opengym/internal/countdown"
	"github.com/theakshaypant/opengym/internal/crowd"
	"github.com/theakshaypant/opengym/internal/paging"
	"github.com/theakshaypant/opengym/internal/schedule"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderStatus()
	label := m.renderLabel()

	var content string
	if m.showHelp {
		content = m.renderHelpPanel()
	} else {
		now := m.now()
		g := buildGrid(m.visibleDays(), m.strict, now)
		days := renderHeader(g, m.body.Width, now)
		if len(g.Days) == 0 {
			content = MutedStyle.Render("No days left to show")
		} else {
			content = lipgloss.JoinVertical(lipgloss.Left, joinLines(days), m.body.View())
		}
		if m.paging.Phase == paging.TransitioningOut {
			content = FadingStyle.Render(content)
		}
	}

	return AppStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, label, content, m.renderHelp()),
	)
}

// renderStatus is the top line: title, countdown, crowd level and any
// refresh state.
func (m Model) renderStatus() string {
	parts := []string{HeaderStyle.Render(m.title)}

	switch m.display.Phase {
	case countdown.JustStarted:
		parts = append(parts, StartedStyle.Render(m.display.Text))
	case countdown.Upcoming:
		parts = append(parts, CountdownStyle.Render(m.display.Text))
	default:
		parts = append(parts, MutedStyle.Render(m.display.Text))
	}

	parts = append(parts, crowdBadge(m.reading))

	switch {
	case m.refreshing:
		parts = append(parts, MutedStyle.Render("refreshing..."))
	case m.err != nil:
		parts = append(parts, ErrorStyle.Render("refresh failed"))
	}
	return strings.Join(parts, "  ")
}

func crowdBadge(r crowd.Reading) string {
	text := fmt.Sprintf("%s %d/%d", r.Level, r.Count, r.Capacity)
	switch r.Level {
	case crowd.Busy:
		return BusyStyle.Render(text)
	case crowd.Moderate:
		return ModerateStyle.Render(text)
	default:
		return QuietStyle.Render(text)
	}
}

// renderLabel draws "‹ This Week (Oct 19 - 23) ›" with each arrow dimmed
// when paging that way would not move.
func (m Model) renderLabel() string {
	v := m.ActiveView()
	n := len(m.sched.MobileDays)

	prev := ArrowDisabledStyle.Render("‹")
	if m.paging.CanPrev(v) {
		prev = ArrowStyle.Render("‹")
	}
	next := ArrowDisabledStyle.Render("›")
	if m.paging.CanNext(v, n) {
		next = ArrowStyle.Render("›")
	}

	text := m.windowLabel()
	if m.paging.Phase == paging.TransitioningOut {
		// The page leaves through the edge it is paged away from.
		switch m.paging.Pending.Direction {
		case paging.Next:
			text = "« " + text
		case paging.Prev:
			text = text + " »"
		}
	} else {
		switch m.anim {
		case paging.Next:
			text = "» " + text
		case paging.Prev:
			text = text + " «"
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, prev, " ", LabelStyle.Render(text), " ", next)
}

func (m Model) windowLabel() string {
	days := m.visibleDays()
	if len(days) == 0 {
		return "Nothing scheduled"
	}
	if m.ActiveView() == paging.Mobile {
		return schedule.RangeLabel(days[0].Date, days[len(days)-1].Date)
	}
	return m.sched.Weeks[m.paging.WeekOffset].Label
}

func (m Model) renderHelp() string {
	keys := []string{
		HelpKeyStyle.Render("←/→") + " page",
		HelpKeyStyle.Render("↑/↓") + " scroll",
		HelpKeyStyle.Render("t") + " this week",
		HelpKeyStyle.Render("m") + " layout (" + m.layout.String() + ")",
		HelpKeyStyle.Render("r") + " refresh",
		HelpKeyStyle.Render("q") + " quit",
	}

	fullLine := strings.Join(keys, "  •  ")
	if lipgloss.Width(fullLine) > m.width-4 {
		return HelpStyle.Render(HelpKeyStyle.Render("?") + " help")
	}
	return HelpStyle.Render(fullLine)
}

func (m Model) renderHelpPanel() string {
	header := HeaderStyle.Render("Keyboard Shortcuts")

	lines := []string{
		"",
		HelpKeyStyle.Render("  ← / h      ") + " Previous week or days",
		HelpKeyStyle.Render("  → / l      ") + " Next week or days",
		HelpKeyStyle.Render("  swipe      ") + " Drag left or right to page",
		HelpKeyStyle.Render("  ↑ / ↓      ") + " Scroll hours",
		HelpKeyStyle.Render("  t          ") + " Back to this week",
		HelpKeyStyle.Render("  m          ") + " Cycle layout: auto, desktop, mobile",
		HelpKeyStyle.Render("  r          ") + " Refresh schedule",
		HelpKeyStyle.Render("  q / ctrl+c ") + " Quit",
		"",
		MutedStyle.Render("  Press any key to close"),
	}

	return HelpPanel.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")),
	)
}
