package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	lessonColor    = lipgloss.Color("#2563EB") // Blue
	otherColor     = lipgloss.Color("#374151") // Dark gray
	fgColor        = lipgloss.Color("#F9FAFB") // Light

	// Layout styles
	AppStyle    = lipgloss.NewStyle().Padding(0, 1)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	// Week / window label with its paging arrows
	LabelStyle         = lipgloss.NewStyle().Bold(true).Foreground(fgColor)
	ArrowStyle         = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	ArrowDisabledStyle = lipgloss.NewStyle().Foreground(otherColor)

	// Day column headers
	DayHeaderStyle = lipgloss.NewStyle().Foreground(mutedColor).Bold(true)
	TodayStyle     = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	AllDayStyle    = lipgloss.NewStyle().Foreground(accentColor).Italic(true)

	// Grid cells, one per cell style
	GutterStyle = lipgloss.NewStyle().Foreground(mutedColor)
	RuleStyle   = lipgloss.NewStyle().Foreground(otherColor)
	OpenStyle   = lipgloss.NewStyle().Background(secondaryColor).Foreground(fgColor).Bold(true)
	LessonStyle = lipgloss.NewStyle().Background(lessonColor).Foreground(fgColor)
	OtherStyle  = lipgloss.NewStyle().Background(otherColor).Foreground(fgColor)
	NowStyle    = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	// Status line
	CountdownStyle = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	StartedStyle   = lipgloss.NewStyle().Background(secondaryColor).Foreground(fgColor).Bold(true).Padding(0, 1)
	QuietStyle     = lipgloss.NewStyle().Foreground(secondaryColor)
	ModerateStyle  = lipgloss.NewStyle().Foreground(accentColor)
	BusyStyle      = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(errorColor)
	MutedStyle     = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	// Transition "out" phase
	FadingStyle = lipgloss.NewStyle().Faint(true)

	// Help bar
	HelpStyle    = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	HelpPanel    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(1, 2)
)
