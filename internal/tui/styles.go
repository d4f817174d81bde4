package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theakshaypant/plan/internal/core"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	lineColor      = lipgloss.Color("#374151")
	fgColor        = lipgloss.Color("#F9FAFB") // Light

	// Layout styles
	AppStyle    = lipgloss.NewStyle().Padding(1, 2)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	// Grid panel (left side)
	GridPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)

	// Detail panel (right side)
	DetailPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(1, 2)

	// Grid
	GutterStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	NowGutterStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	SlotStyle      = lipgloss.NewStyle().Foreground(lineColor)
	DayHeaderStyle = lipgloss.NewStyle().Foreground(mutedColor).Bold(true)
	TodayStyle     = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	OtherMonthDay  = lipgloss.NewStyle().Foreground(lineColor)

	// Detail panel styles
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	LabelStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(14)
	ValueStyle = lipgloss.NewStyle().Foreground(fgColor)
	LinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Underline(true)
	DoneStyle  = lipgloss.NewStyle().Foreground(secondaryColor)

	// Help bar
	HelpStyle    = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	StatusStyle  = lipgloss.NewStyle().Foreground(accentColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	PromptStyle  = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

	// In progress indicator
	InProgressStyle = lipgloss.NewStyle().Background(secondaryColor).Foreground(fgColor).Bold(true).Padding(0, 1)
)

// blockStyle colors an event block by category. Completed events are
// struck through and faint; the selected block is bold and underlined.
func blockStyle(c core.Category, completed, selected bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Background(lipgloss.Color(c.Info().Color)).
		Foreground(fgColor)
	if completed {
		s = s.Faint(true).Strikethrough(true)
	}
	if selected {
		s = s.Bold(true).Underline(true)
	}
	return s
}

// chipStyle is the filter indicator for a category.
func chipStyle(c core.Category, active bool) lipgloss.Style {
	if !active {
		return lipgloss.NewStyle().Foreground(lineColor).Strikethrough(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Info().Color)).Bold(true)
}
