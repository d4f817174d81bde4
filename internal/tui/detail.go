package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/util"
)

func (m Model) renderHeader() string {
	now := m.now().In(m.loc)

	var dateStr string
	switch m.view {
	case calendar.ViewWeek:
		days := calendar.WeekDays(m.date)
		dateStr = days[0].Format("Jan 2") + " - " + days[6].Format("Jan 2, 2006")
	case calendar.ViewMonth:
		dateStr = m.date.Format("January 2006")
	default:
		dateStr = m.date.Format("Monday, January 2, 2006")
		if calendar.SameDay(m.date, now) {
			dateStr = "Today • " + dateStr
		}
	}

	title := HeaderStyle.Render("📅 plan")
	date := lipgloss.NewStyle().Foreground(mutedColor).Render(dateStr)

	var tabs []string
	for _, v := range []calendar.View{calendar.ViewDay, calendar.ViewWeek, calendar.ViewMonth} {
		s := lipgloss.NewStyle().Foreground(mutedColor)
		if v == m.view {
			s = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
		}
		tabs = append(tabs, s.Render(string(v)))
	}

	var chips []string
	for i, c := range core.Categories() {
		chips = append(chips, chipStyle(c, m.filter.Active(c)).Render(fmt.Sprintf("%d %s", i+1, c.Info().Name)))
	}

	parts := []string{title, date, strings.Join(tabs, " "), strings.Join(chips, " ")}
	if m.filter.Query != "" {
		parts = append(parts, PromptStyle.Render("/"+m.filter.Query))
	}
	if m.loading {
		parts = append(parts, lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("loading..."))
	}

	// In compact mode, show which panel is focused
	if m.compactMode {
		label := "[Calendar]"
		if m.focusedPanel == FocusDetail {
			label = "[Details]"
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(label))
	}

	// One line plus a spacer keeps the grid at a fixed screen row
	return ansi.Truncate(strings.Join(parts, "  "), max(m.width-4, 1), "…") + "\n"
}

func (m Model) renderFooter() string {
	maxWidth := max(m.width-4, 1)
	switch {
	case m.mode != modeNone:
		return HelpStyle.Render(ansi.Truncate(m.input.View(), maxWidth, "…"))
	case m.status != "":
		style := StatusStyle
		if strings.HasPrefix(m.status, "error") {
			style = ErrorStyle
		}
		return HelpStyle.Render(style.Render(ansi.Truncate(m.status, maxWidth, "…")))
	}

	keys := []string{
		HelpKeyStyle.Render("←/→") + " move",
		HelpKeyStyle.Render("d/w/m") + " view",
		HelpKeyStyle.Render("1-6") + " filter",
		HelpKeyStyle.Render("/") + " search",
		HelpKeyStyle.Render("a") + " add",
		HelpKeyStyle.Render("x") + " done",
		HelpKeyStyle.Render("?") + " help",
		HelpKeyStyle.Render("q") + " quit",
	}
	fullLine := strings.Join(keys, "  •  ")

	if lipgloss.Width(fullLine) > maxWidth {
		// Doesn't fit, show minimal hint
		return HelpStyle.Render(HelpKeyStyle.Render("?") + " help")
	}
	return HelpStyle.Render(fullLine)
}

// updateDetailContent updates the viewport with the selected occurrence
func (m *Model) updateDetailContent() {
	if !m.viewportReady {
		return
	}
	occ, ok := m.Selected()
	if !ok {
		m.detailView.SetContent("")
		return
	}

	width := m.detailView.Width
	var lines []string

	// Title (wrap to panel width)
	lines = append(lines, TitleStyle.Render(ansi.Wordwrap(occ.Title, width, "")))
	lines = append(lines, "")

	info := occ.Category.Info()
	lines = append(lines, renderField("🏷  Category", info.Icon+" "+info.Name))

	allDay := isAllDay(occ.Event)
	lines = append(lines, renderWrappedField("🕐 When", formatEventTime(occ.Start, occ.End, allDay), width))
	if !allDay {
		lines = append(lines, renderField("⏱  Duration", formatDuration(occ.Duration())))
	}

	if occ.Repeat.Active() {
		lines = append(lines, renderWrappedField("🔁 Repeats", occ.Repeat.Describe(), width))
		if !occ.Editable() {
			lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Italic(true).
				Render(fmt.Sprintf("   occurrence %d, edit the first one to change the series", occ.Index+1)))
		}
	}

	if occ.Completed {
		lines = append(lines, DoneStyle.Render("✓ Done"))
	}

	// Status: Past / In Progress / Upcoming
	now := m.now()
	switch {
	case occ.End.Before(now):
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true).
			Render(fmt.Sprintf("Ended %s ago", formatDuration(now.Sub(occ.End)))))
	case occ.InProgress(now):
		lines = append(lines, "")
		lines = append(lines, InProgressStyle.Render(fmt.Sprintf("IN PROGRESS • %s remaining", formatDuration(occ.End.Sub(now)))))
	case occ.Start.After(now):
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().Foreground(accentColor).Render(fmt.Sprintf("⏳ Starts in %s", formatDuration(occ.Start.Sub(now)))))
	}

	if url := util.FirstURL(occ.Description); url != "" {
		labelWidth := lipgloss.Width(LabelStyle.Render("🔗 Link")) + 1
		displayURL := util.TruncateText(url, width-labelWidth)
		lines = append(lines, "")
		lines = append(lines, renderField("🔗 Link", util.MakeHyperlink(url, LinkStyle.Render(displayURL))))
	}

	if occ.Description != "" {
		lines = append(lines, "")
		lines = append(lines, LabelStyle.Render("📝 Description"))
		wrapped := ansi.Wordwrap(occ.Description, width, "")
		lines = append(lines, ValueStyle.Render(util.Linkify(wrapped, width)))
	}

	m.detailView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderDetailPanel() string {
	if _, ok := m.Selected(); !ok {
		msg := "No event selected"
		if len(m.occ) == 0 {
			msg = "No events. Click an empty slot or press a to add one."
		}
		return DetailPanelStyle.Width(m.lay.detailWidth).Height(m.lay.contentHeight).Render(
			lipgloss.NewStyle().Foreground(mutedColor).Render(msg),
		)
	}

	// Add scroll indicator if content is scrollable
	scrollInfo := ""
	if m.viewportReady && m.detailView.TotalLineCount() > m.detailView.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf(" (%d%%)", int(m.detailView.ScrollPercent()*100)))
	}

	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Event Details") + scrollInfo

	return DetailPanelStyle.Width(m.lay.detailWidth).Height(m.lay.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.detailView.View()),
	)
}

func (m Model) renderHelpPanel() string {
	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Keyboard & Mouse")

	lines := []string{
		"",
		HelpKeyStyle.Render("  ↑/↓        ") + " Previous / next event",
		HelpKeyStyle.Render("  ←/→        ") + " Previous / next day, week or month",
		HelpKeyStyle.Render("  d / w / m  ") + " Day, week or month view",
		HelpKeyStyle.Render("  t          ") + " Jump to today",
		HelpKeyStyle.Render("  ctrl+u/d   ") + " Scroll the grid",
		HelpKeyStyle.Render("  1-6 / 0    ") + " Toggle a category / show all",
		HelpKeyStyle.Render("  /          ") + " Search",
		HelpKeyStyle.Render("  a          ") + " Quick add from a sentence",
		HelpKeyStyle.Render("  x          ") + " Toggle done",
		HelpKeyStyle.Render("  D          ") + " Delete event",
		HelpKeyStyle.Render("  enter      ") + " Open link",
		HelpKeyStyle.Render("  tab        ") + " Switch panel",
		HelpKeyStyle.Render("  r          ") + " Refresh",
		HelpKeyStyle.Render("  q / ctrl+c ") + " Quit",
		"",
		HelpKeyStyle.Render("  drag       ") + " Move an event",
		HelpKeyStyle.Render("  ▴ / ▾      ") + " Drag to resize",
		HelpKeyStyle.Render("  click      ") + " New event in an empty slot",
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("  Press any key to close"),
	}

	panelWidth := m.lay.detailWidth
	if m.compactMode {
		panelWidth = m.lay.gridWidth
	}
	return DetailPanelStyle.Width(panelWidth).Height(m.lay.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")),
	)
}

// Helper functions
func renderField(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

// renderWrappedField renders a label-value field, word-wrapping the value
// to fit within maxWidth. Continuation lines are indented to align with the value.
func renderWrappedField(label, value string, maxWidth int) string {
	labelRendered := LabelStyle.Render(label)
	labelWidth := lipgloss.Width(labelRendered) + 1
	valueWidth := max(maxWidth-labelWidth, 10)
	wrapLines := strings.Split(ansi.Wordwrap(value, valueWidth, ""), "\n")
	indent := strings.Repeat(" ", labelWidth)
	for i := 1; i < len(wrapLines); i++ {
		wrapLines[i] = indent + wrapLines[i]
	}
	return labelRendered + " " + ValueStyle.Render(strings.Join(wrapLines, "\n"))
}

// isAllDay reports whether ev spans whole days from midnight to midnight.
func isAllDay(ev core.Event) bool {
	return ev.Duration() >= 24*time.Hour &&
		ev.Start.Equal(calendar.StartOfDay(ev.Start)) &&
		ev.End.Equal(calendar.StartOfDay(ev.End))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatEventTime(start, end time.Time, allDay bool) string {
	if allDay {
		last := end.AddDate(0, 0, -1)
		if calendar.SameDay(start, last) {
			return start.Format("Mon, Jan 2") + " (all day)"
		}
		return start.Format("Mon, Jan 2") + " - " + last.Format("Mon, Jan 2") + " (all day)"
	}
	if calendar.SameDay(start, end) {
		return fmt.Sprintf("%s, %s - %s",
			start.Format("Mon, Jan 2"),
			start.Format("15:04"),
			end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s",
		start.Format("Mon, Jan 2 15:04"),
		end.Format("Mon, Jan 2 15:04"))
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		_ = util.OpenURL(url)
		return nil
	}
}
