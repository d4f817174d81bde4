package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/geometry"
	"github.com/theakshaypant/plan/internal/grid"
)

// Fixed screen offsets of the grid. Rendering and mouse hit testing both
// derive positions from these.
const (
	appPadTop   = 1
	appPadLeft  = 2
	headerRows  = 2
	panelBorder = 1
	panelPadX   = 1
	gutterWidth = 6

	// Screen row of the first grid row
	gridOriginY = appPadTop + headerRows + panelBorder + 1
	// Screen column of the first column separator
	gridOriginX = appPadLeft + panelBorder + panelPadX + gutterWidth
)

type layout struct {
	gridWidth     int
	detailWidth   int
	contentHeight int
	// Visible rows under the day header
	gridRows int
	cols     int
	// Width of one day column, separator excluded
	colW int
	// Month cell height in rows
	cellH int
}

// calculateLayout calculates responsive layout dimensions
func (m *Model) calculateLayout() {
	width := max(m.width, 40)
	height := max(m.height, 14)

	// Padding: 2 lines, header: 2, panel borders: 2, help: 2
	m.lay.contentHeight = max(height-8, 6)

	usable := width - 4
	m.compactMode = width < 90
	if m.compactMode {
		m.lay.gridWidth = usable - 2
		m.lay.detailWidth = usable - 2
	} else {
		m.lay.detailWidth = min(max(usable*30/100, 32), 50)
		m.lay.gridWidth = usable - m.lay.detailWidth - 5
	}

	m.lay.cols = 7
	if m.view == calendar.ViewDay {
		m.lay.cols = 1
	}
	m.lay.colW = max((m.lay.gridWidth-2-gutterWidth)/m.lay.cols-1, 3)
	m.lay.gridRows = m.lay.contentHeight - 1
	m.lay.cellH = max(m.lay.gridRows/6, 2)
	m.clampScroll()
}

func (m Model) rowsPerDay() int { return 24 * m.rowsPerHour }

// rowOf returns the grid row containing t's time of day.
func (m Model) rowOf(t time.Time) int {
	return int(geometry.MinutesOf(t.In(m.loc)) * float64(m.rowsPerHour) / 60)
}

func (m *Model) clampScroll() {
	m.scroll = min(m.scroll, m.rowsPerDay()-m.lay.gridRows)
	m.scroll = max(m.scroll, 0)
}

func (m *Model) scrollBy(n int) {
	m.scroll += n
	m.clampScroll()
}

// scrollToRow brings row into view, leaving two rows of context above it.
func (m *Model) scrollToRow(row int) {
	if m.lay.gridRows > 0 && row >= m.scroll && row < m.scroll+m.lay.gridRows {
		return
	}
	m.scroll = row - 2
	m.clampScroll()
}

// surface is the drop target for day: the whole day axis, positioned so
// that screen rows map onto it directly.
func (m Model) surface(day time.Time) grid.Surface {
	return grid.Surface{
		Day:    day,
		Top:    float64(gridOriginY - m.scroll),
		Height: float64(m.rowsPerDay()),
	}
}

// block is an occurrence laid out in a day column. Rows are [top, bot).
type block struct {
	occ  core.Occurrence
	top  int
	bot  int
	topF float64
	lane int
}

type column struct {
	day    time.Time
	blocks []block
	lanes  int
}

func (m Model) days() []time.Time {
	if m.view == calendar.ViewDay {
		return []time.Time{m.date}
	}
	return calendar.WeekDays(m.date)
}

// columns lays out the visible occurrences. A drag in progress is drawn at
// the bounds it would drop at.
func (m Model) columns() []column {
	occ := m.occ
	if id, start, end, ok := m.preview(); ok {
		occ = slices.Clone(occ)
		for i := range occ {
			if occ[i].ID == id && occ[i].Editable() {
				occ[i].Start, occ[i].End = start, end
			}
		}
	}

	axis := float64(m.rowsPerDay())
	days := m.days()
	cols := make([]column, len(days))
	for i, day := range days {
		col := column{day: day}
		for _, o := range calendar.DayOccurrences(occ, day) {
			top, height, ok := geometry.Block(o.Start, o.End, day, axis, 0)
			if !ok {
				continue
			}
			t := int(math.Floor(top))
			b := min(max(t+1, int(math.Ceil(top+height))), m.rowsPerDay())
			col.blocks = append(col.blocks, block{occ: o, top: t, bot: b, topF: top})
		}
		col.lanes = assignLanes(col.blocks)
		cols[i] = col
	}
	return cols
}

// assignLanes places overlapping blocks side by side, first fit. Blocks
// must be sorted by start.
func assignLanes(blocks []block) int {
	var ends []int
	for i := range blocks {
		placed := false
		for l, end := range ends {
			if end <= blocks[i].top {
				blocks[i].lane = l
				ends[l] = blocks[i].bot
				placed = true
				break
			}
		}
		if !placed {
			blocks[i].lane = len(ends)
			ends = append(ends, blocks[i].bot)
		}
	}
	return len(ends)
}

// laneSpan returns the offset and width of lane inside a column of width w.
// Lanes that do not fit get zero width.
func laneSpan(lanes, lane, w int) (int, int) {
	lanes = min(max(lanes, 1), w)
	if lane >= lanes {
		return 0, 0
	}
	lw := w / lanes
	x := lane * lw
	if lane == lanes-1 {
		return x, w - x
	}
	return x, lw
}

// hasGrips reports whether a block shows resize handles in its last cell.
func hasGrips(b block, w int) bool {
	return b.occ.Editable() && b.bot-b.top >= 2 && w >= 3
}

// cellAt maps a screen position to a column, a day row and the offset
// inside the column.
func (m Model) cellAt(x, y int) (col, row, dx int, ok bool) {
	rel := x - gridOriginX
	if rel < 0 {
		return 0, 0, 0, false
	}
	col = rel / (m.lay.colW + 1)
	if col >= m.lay.cols {
		return 0, 0, 0, false
	}
	dx = max(rel-col*(m.lay.colW+1)-1, 0)

	ry := y - gridOriginY
	if ry < 0 || ry >= m.lay.gridRows {
		return 0, 0, 0, false
	}
	row = ry + m.scroll
	if row >= m.rowsPerDay() {
		return 0, 0, 0, false
	}
	return col, row, dx, true
}

// blockAt returns the block under a cell and the gesture a press there
// starts.
func (m Model) blockAt(cols []column, col, row, dx int) (block, grid.Kind, bool) {
	c := cols[col]
	for _, b := range c.blocks {
		x, w := laneSpan(c.lanes, b.lane, m.lay.colW)
		if w == 0 || row < b.top || row >= b.bot || dx < x || dx >= x+w {
			continue
		}
		kind := grid.KindMove
		if hasGrips(b, w) && dx == x+w-1 {
			switch row {
			case b.top:
				kind = grid.KindResizeTop
			case b.bot - 1:
				kind = grid.KindResizeBottom
			}
		}
		return b, kind, true
	}
	return block{}, grid.KindMove, false
}

// monthCellAt maps a screen position to a day of the month grid.
func (m Model) monthCellAt(x, y int) (time.Time, bool) {
	rel := x - gridOriginX
	if rel < 0 {
		return time.Time{}, false
	}
	col := rel / (m.lay.colW + 1)
	ry := y - gridOriginY
	if col >= 7 || ry < 0 || ry >= 6*m.lay.cellH {
		return time.Time{}, false
	}
	g := calendar.MonthGrid(m.date)
	return g[ry/m.lay.cellH][col], true
}

func (m Model) renderGridPanel() string {
	var lines []string
	if m.view == calendar.ViewMonth {
		lines = m.renderMonthGrid()
	} else {
		lines = m.renderTimeGrid()
	}
	return GridPanelStyle.Width(m.lay.gridWidth).Height(m.lay.contentHeight).Render(
		strings.Join(lines, "\n"),
	)
}

func (m Model) renderTimeGrid() []string {
	cols := m.columns()
	now := m.now().In(m.loc)

	nowRow := -1
	for _, c := range cols {
		if calendar.SameDay(c.day, now) {
			nowRow = m.rowOf(now)
		}
	}

	lines := make([]string, 0, m.lay.gridRows+1)
	lines = append(lines, m.renderDayHeaders(cols, now))
	for r := m.scroll; r < m.scroll+m.lay.gridRows && r < m.rowsPerDay(); r++ {
		var b strings.Builder
		b.WriteString(m.renderGutter(r, nowRow, now))
		for _, c := range cols {
			b.WriteString(SlotStyle.Render("│"))
			b.WriteString(m.renderColumnRow(c, r))
		}
		lines = append(lines, b.String())
	}
	return lines
}

func (m Model) renderDayHeaders(cols []column, now time.Time) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for _, c := range cols {
		label := c.day.Format("Mon 2")
		if m.view == calendar.ViewDay {
			label = c.day.Format("Monday, Jan 2")
		}
		label = lipgloss.PlaceHorizontal(m.lay.colW, lipgloss.Center, ansi.Truncate(label, m.lay.colW, ""))
		style := DayHeaderStyle
		if calendar.SameDay(c.day, now) {
			style = TodayStyle
		}
		b.WriteString(" " + style.Render(label))
	}
	return b.String()
}

func (m Model) renderGutter(row, nowRow int, now time.Time) string {
	switch {
	case row == nowRow:
		return NowGutterStyle.Render(now.Format("15:04") + "▸")
	case row%m.rowsPerHour == 0:
		return GutterStyle.Render(fmt.Sprintf("%02d:00 ", row/m.rowsPerHour))
	default:
		return strings.Repeat(" ", gutterWidth)
	}
}

func (m Model) renderColumnRow(c column, row int) string {
	var b strings.Builder
	lanes := max(c.lanes, 1)
	for lane := 0; lane < lanes; lane++ {
		_, w := laneSpan(lanes, lane, m.lay.colW)
		if w == 0 {
			continue
		}
		found := false
		for _, blk := range c.blocks {
			if blk.lane == lane && row >= blk.top && row < blk.bot {
				b.WriteString(m.renderBlockCell(blk, row, w))
				found = true
				break
			}
		}
		if !found {
			fill := " "
			if row%m.rowsPerHour == 0 {
				fill = "┈"
			}
			b.WriteString(SlotStyle.Render(strings.Repeat(fill, w)))
		}
	}
	return b.String()
}

func (m Model) renderBlockCell(b block, row, w int) string {
	o := b.occ
	var text string
	switch row - b.top {
	case 0:
		if o.Completed {
			text = "✓ " + o.Title
		} else {
			text = o.Category.Info().Icon + " " + o.Title
		}
	case 1:
		text = o.Start.Format("15:04") + "-" + o.End.Format("15:04")
		if o.Repeat.Active() {
			text += " ↻"
		}
	}

	marker := ""
	if hasGrips(b, w) {
		switch row {
		case b.top:
			marker = "▴"
		case b.bot - 1:
			marker = "▾"
		}
	}
	textW := w - ansi.StringWidth(marker)
	text = ansi.Truncate(text, textW, "…")
	cell := text + strings.Repeat(" ", max(textW-ansi.StringWidth(text), 0)) + marker

	selected := m.hasSel && o.SeriesID == m.selected.series && o.Index == m.selected.index
	return blockStyle(o.Category, o.Completed, selected).Render(cell)
}

func (m Model) renderMonthGrid() []string {
	g := calendar.MonthGrid(m.date)
	now := m.now().In(m.loc)

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", gutterWidth))
	for _, d := range g[0] {
		label := lipgloss.PlaceHorizontal(m.lay.colW, lipgloss.Center, ansi.Truncate(d.Format("Mon"), m.lay.colW, ""))
		header.WriteString(" " + DayHeaderStyle.Render(label))
	}

	lines := []string{header.String()}
	for _, week := range g {
		cells := make([][]string, len(week))
		for i, d := range week {
			cells[i] = m.renderMonthCell(d, now)
		}
		for l := 0; l < m.lay.cellH; l++ {
			var b strings.Builder
			if l == 0 {
				_, wk := week[1].ISOWeek()
				b.WriteString(GutterStyle.Render(fmt.Sprintf("W%02d   ", wk)))
			} else {
				b.WriteString(strings.Repeat(" ", gutterWidth))
			}
			for _, cell := range cells {
				b.WriteString(SlotStyle.Render("│"))
				b.WriteString(cell[l])
			}
			lines = append(lines, b.String())
		}
	}
	return lines
}

// renderMonthCell returns cellH lines, each exactly colW cells wide.
func (m Model) renderMonthCell(day, now time.Time) []string {
	w := m.lay.colW
	pad := func(s string) string {
		s = ansi.Truncate(s, w, "…")
		return s + strings.Repeat(" ", max(w-ansi.StringWidth(s), 0))
	}

	style := DayHeaderStyle
	switch {
	case calendar.SameDay(day, now):
		style = TodayStyle
	case day.Month() != m.date.Month():
		style = OtherMonthDay
	}
	lines := []string{style.Render(pad(fmt.Sprintf("%d", day.Day())))}

	occ := calendar.DayOccurrences(m.occ, day)
	slots := m.lay.cellH - 1
	shown := occ
	if len(occ) > slots {
		shown = occ[:max(slots-1, 0)]
	}
	for _, o := range shown {
		line := pad("● " + o.Start.Format("15:04") + " " + o.Title)
		s := lipgloss.NewStyle().Foreground(lipgloss.Color(o.Category.Info().Color))
		if o.Completed {
			s = s.Faint(true).Strikethrough(true)
		}
		if m.hasSel && o.SeriesID == m.selected.series && o.Index == m.selected.index {
			s = s.Bold(true).Underline(true)
		}
		lines = append(lines, s.Render(line))
	}
	if len(shown) < len(occ) {
		lines = append(lines, GutterStyle.Render(pad(fmt.Sprintf("+%d more", len(occ)-len(shown)))))
	}
	for len(lines) < m.lay.cellH {
		lines = append(lines, strings.Repeat(" ", w))
	}
	return lines[:m.lay.cellH]
}
