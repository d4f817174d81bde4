package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/assist"
	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/grid"
	"github.com/theakshaypant/plan/internal/recurrence"
	"github.com/theakshaypant/plan/internal/storage"
	"github.com/theakshaypant/plan/internal/util"
)

// QuickAdder turns a sentence into an event draft.
type QuickAdder interface {
	ParseEvent(ctx context.Context, text string, today time.Time) (core.EventDraft, error)
}

// Config wires the TUI to its collaborators.
type Config struct {
	Store core.Storage
	// Optional; quick add is disabled when nil
	Assist QuickAdder
	// Optional; called whenever the date, view or filter changes
	SaveView func(storage.ViewState) error
	// Restored view state. Zero fields fall back to today, week and all
	// categories.
	View        storage.ViewState
	Location    *time.Location
	RowsPerHour int
	Now         func() time.Time
	Logger      *zap.Logger
}

// Panel focus for compact mode
type PanelFocus int

const (
	FocusGrid PanelFocus = iota
	FocusDetail
)

type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeQuickAdd
	modeCreate
	modeConfirmDelete
)

// selection identifies an occurrence across reloads. Synthesized occurrence
// IDs change on every expansion; series and position do not.
type selection struct {
	series int64
	index  int
}

// Model is the Bubble Tea model for the TUI
type Model struct {
	store    core.Storage
	ctrl     *grid.Controller
	assist   QuickAdder
	saveView func(storage.ViewState) error
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
	keys     KeyMap

	view   calendar.View
	date   time.Time
	filter calendar.Filter

	expanded  []core.Occurrence
	occ       []core.Occurrence
	truncated []int64
	selected  selection
	hasSel    bool

	width         int
	height        int
	lay           layout
	rowsPerHour   int
	scroll        int
	detailView    viewport.Model
	viewportReady bool
	compactMode   bool
	focusedPanel  PanelFocus
	showHelp      bool

	loading bool
	err     error
	status  string

	mode    inputMode
	input   textinput.Model
	pending grid.CreateIntent
	press   *press
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rph := cfg.RowsPerHour
	if rph <= 0 {
		rph = 2
	}

	view, err := calendar.ParseView(cfg.View.View)
	if err != nil {
		view = calendar.ViewWeek
	}
	date := cfg.View.Date
	if date.IsZero() {
		date = now()
	}
	filter := calendar.Filter{}
	if cfg.View.Categories != nil {
		filter.Categories = calendar.CategorySet(cfg.View.Categories)
	}

	input := textinput.New()
	input.CharLimit = 200

	return Model{
		store:       cfg.Store,
		ctrl:        grid.NewController(cfg.Store, logger),
		assist:      cfg.Assist,
		saveView:    cfg.SaveView,
		logger:      logger,
		loc:         loc,
		now:         now,
		keys:        DefaultKeyMap,
		view:        view,
		date:        calendar.StartOfDay(date.In(loc)),
		filter:      filter,
		rowsPerHour: rph,
		input:       input,
		loading:     true,
	}
}

// Messages
type eventsLoadedMsg struct {
	expansion recurrence.Expansion
	err       error
}

type mutatedMsg struct {
	status string
	err    error
}

type tickMsg time.Time

// Commands
func (m Model) loadEvents() tea.Cmd {
	store, now := m.store, m.now()
	span := calendar.Span(m.view, m.date)
	return func() tea.Msg {
		events, err := store.ListEvents(context.Background())
		if err != nil {
			return eventsLoadedMsg{err: err}
		}
		return eventsLoadedMsg{expansion: recurrence.ExpandAll(events, span, now)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) persistView() tea.Cmd {
	if m.saveView == nil {
		return nil
	}
	vs := storage.ViewState{Date: m.date, View: string(m.view), Categories: m.filter.Keys()}
	save, logger := m.saveView, m.logger
	return func() tea.Msg {
		if err := save(vs); err != nil {
			logger.Warn("failed to save view state", zap.Error(err))
		}
		return nil
	}
}

func (m Model) setCompleted(occ core.Occurrence) tea.Cmd {
	store := m.store
	done := !occ.Completed
	return func() tea.Msg {
		err := store.SetCompleted(context.Background(), occ.SeriesID, done)
		status := fmt.Sprintf("%q marked done", occ.Title)
		if !done {
			status = fmt.Sprintf("%q marked not done", occ.Title)
		}
		return mutatedMsg{status: status, err: err}
	}
}

func (m Model) deleteEvent(occ core.Occurrence) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		err := store.DeleteEvent(context.Background(), occ.SeriesID)
		return mutatedMsg{status: fmt.Sprintf("deleted %q", occ.Title), err: err}
	}
}

func (m Model) createEvent(intent grid.CreateIntent, title string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ev, err := ctrl.Create(context.Background(), intent, title)
		return mutatedMsg{status: fmt.Sprintf("created %q at %s", ev.Title, ev.Start.Format("15:04")), err: err}
	}
}

func (m Model) quickAdd(text string) tea.Cmd {
	if m.assist == nil {
		return nil
	}
	client, store, loc, today := m.assist, m.store, m.loc, m.now()
	return func() tea.Msg {
		ctx := context.Background()
		draft, err := client.ParseEvent(ctx, text, today)
		if err != nil {
			return mutatedMsg{err: err}
		}
		ev, err := draft.ToEvent(loc)
		if err != nil {
			return mutatedMsg{err: err}
		}
		ev.Description = assist.QuickAddDescription
		ev, err = store.UpsertEvent(ctx, ev)
		if err != nil {
			return mutatedMsg{err: err}
		}
		return mutatedMsg{status: fmt.Sprintf("added %q on %s", ev.Title, ev.Start.Format("Mon Jan 2 15:04"))}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadEvents(), tickCmd())
}

// applyFilter recomputes the visible occurrences and keeps the selection
// when it is still visible.
func (m *Model) applyFilter() {
	m.occ = m.filter.Apply(m.expanded)
	if m.hasSel && m.selectedIdx() >= 0 {
		return
	}
	m.selectNow()
}

// selectNow selects the first occurrence that has not ended, or the last one.
func (m *Model) selectNow() {
	m.hasSel = false
	if len(m.occ) == 0 {
		return
	}
	now := m.now()
	idx := len(m.occ) - 1
	for i, o := range m.occ {
		if o.End.After(now) {
			idx = i
			break
		}
	}
	m.selectIdx(idx)
}

func (m *Model) selectIdx(i int) {
	if i < 0 || i >= len(m.occ) {
		return
	}
	m.selected = selection{series: m.occ[i].SeriesID, index: m.occ[i].Index}
	m.hasSel = true
	m.scrollToRow(m.rowOf(m.occ[i].Start))
}

func (m Model) selectedIdx() int {
	if !m.hasSel {
		return -1
	}
	for i, o := range m.occ {
		if o.SeriesID == m.selected.series && o.Index == m.selected.index {
			return i
		}
	}
	return -1
}

// Selected returns the selected occurrence.
func (m Model) Selected() (core.Occurrence, bool) {
	i := m.selectedIdx()
	if i < 0 {
		return core.Occurrence{}, false
	}
	return m.occ[i], true
}

// Occurrences returns the visible occurrences in start order.
func (m Model) Occurrences() []core.Occurrence { return m.occ }

func (m *Model) changeDate(date time.Time) tea.Cmd {
	m.date = calendar.StartOfDay(date.In(m.loc))
	m.loading = true
	m.hasSel = false
	return tea.Batch(m.loadEvents(), m.persistView())
}

func (m *Model) changeView(v calendar.View) tea.Cmd {
	if m.view == v {
		return nil
	}
	m.view = v
	m.calculateLayout()
	return m.changeDate(m.date)
}

func (m *Model) startInput(mode inputMode, prompt, placeholder string) tea.Cmd {
	m.mode = mode
	m.input.Reset()
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	return m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = modeNone
	m.input.Blur()
	m.input.Reset()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.calculateLayout()

		detailViewportWidth := max(m.lay.detailWidth-4, 10)
		detailViewportHeight := max(m.lay.contentHeight-4, 1)
		if !m.viewportReady {
			m.detailView = viewport.New(detailViewportWidth, detailViewportHeight)
			m.detailView.Style = lipgloss.NewStyle()
			m.viewportReady = true
			m.scrollToRow(m.rowOf(m.now()))
		} else {
			m.detailView.Width = detailViewportWidth
			m.detailView.Height = detailViewportHeight
		}
		m.updateDetailContent()
		return m, nil

	case eventsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.expanded = msg.expansion.Occurrences
			m.truncated = msg.expansion.Truncated
			if len(m.truncated) > 0 {
				m.logger.Warn("recurring series truncated", zap.Int64s("series", m.truncated))
			}
			m.applyFilter()
		}
		m.updateDetailContent()
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.status = msg.status
		return m, m.loadEvents()

	case tickMsg:
		// Refresh the view every minute for countdown updates
		m.updateDetailContent()
		return m, tickCmd()

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.mode != modeNone {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setError(err error) {
	m.logger.Debug("action failed", zap.Error(err))
	switch {
	case errors.Is(err, core.ErrReadOnlyOccurrence):
		m.status = "only the first occurrence of a repeating event can be changed"
	case errors.Is(err, assist.ErrUnparseable):
		m.status = "could not understand that, try including a date and time"
	default:
		m.status = "error: " + err.Error()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When help overlay is shown, any key dismisses it
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Cancel()
		m.press = nil
		if m.filter.Query != "" {
			m.filter.Query = ""
			m.applyFilter()
			m.updateDetailContent()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if i := m.selectedIdx(); i > 0 {
			m.selectIdx(i - 1)
		} else if i < 0 {
			m.selectIdx(0)
		}
		m.updateDetailContent()
		m.detailView.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if i := m.selectedIdx(); i < len(m.occ)-1 {
			m.selectIdx(i + 1)
		}
		m.updateDetailContent()
		m.detailView.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		if m.compactMode && m.focusedPanel == FocusDetail {
			m.detailView.ViewUp()
		} else {
			m.scrollBy(-m.lay.gridRows / 2)
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		if m.compactMode && m.focusedPanel == FocusDetail {
			m.detailView.ViewDown()
		} else {
			m.scrollBy(m.lay.gridRows / 2)
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		return m, m.changeDate(calendar.Navigate(m.view, m.date, 1))

	case key.Matches(msg, m.keys.Prev):
		return m, m.changeDate(calendar.Navigate(m.view, m.date, -1))

	case key.Matches(msg, m.keys.Today):
		now := m.now()
		m.scrollToRow(m.rowOf(now))
		if calendar.SameDay(now, m.date) && m.view == calendar.ViewDay {
			m.selectNow()
			m.updateDetailContent()
			return m, nil
		}
		return m, m.changeDate(now)

	case key.Matches(msg, m.keys.DayView):
		return m, m.changeView(calendar.ViewDay)

	case key.Matches(msg, m.keys.WeekView):
		return m, m.changeView(calendar.ViewWeek)

	case key.Matches(msg, m.keys.MonthView):
		return m, m.changeView(calendar.ViewMonth)

	case key.Matches(msg, m.keys.Category):
		cats := core.Categories()
		n := int(msg.Runes[0] - '1')
		if n >= 0 && n < len(cats) {
			m.filter.Toggle(cats[n])
			m.applyFilter()
			m.updateDetailContent()
		}
		return m, m.persistView()

	case key.Matches(msg, m.keys.AllCats):
		m.filter.Categories = calendar.AllCategories()
		m.applyFilter()
		m.updateDetailContent()
		return m, m.persistView()

	case key.Matches(msg, m.keys.Search):
		cmd := m.startInput(modeSearch, "/", "search titles and descriptions")
		m.input.SetValue(m.filter.Query)
		return m, cmd

	case key.Matches(msg, m.keys.QuickAdd):
		if m.assist == nil {
			m.status = "quick add needs a Gemini API key (set GEMINI_API_KEY)"
			return m, nil
		}
		return m, m.startInput(modeQuickAdd, "add: ", "lunch with Sam tomorrow at 1pm")

	case key.Matches(msg, m.keys.Done):
		if occ, ok := m.Selected(); ok {
			return m, m.setCompleted(occ)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if occ, ok := m.Selected(); ok {
			label := fmt.Sprintf("delete %q", occ.Title)
			if occ.Repeat.Active() {
				label += " and all its repeats"
			}
			return m, m.startInput(modeConfirmDelete, label+"? (y/n) ", "")
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if occ, ok := m.Selected(); ok {
			if url := util.FirstURL(occ.Description); url != "" {
				return m, openURL(url)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.focusedPanel == FocusGrid {
			m.focusedPanel = FocusDetail
		} else {
			m.focusedPanel = FocusGrid
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadEvents()
	}
	return m, nil
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeConfirmDelete {
		occ, ok := m.Selected()
		m.endInput()
		if ok && (msg.String() == "y" || msg.String() == "Y") {
			return m, m.deleteEvent(occ)
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeSearch {
			m.filter.Query = ""
			m.applyFilter()
			m.updateDetailContent()
		}
		m.endInput()
		return m, nil

	case tea.KeyEnter:
		text := m.input.Value()
		mode := m.mode
		m.endInput()
		switch mode {
		case modeSearch:
			return m, nil
		case modeQuickAdd:
			if text == "" {
				return m, nil
			}
			m.status = "thinking..."
			return m, m.quickAdd(text)
		case modeCreate:
			if text == "" {
				return m, nil
			}
			return m, m.createEvent(m.pending, text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		m.filter.Query = m.input.Value()
		m.applyFilter()
		m.updateDetailContent()
	}
	return m, cmd
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()

	var content string
	switch {
	case m.loading && len(m.expanded) == 0:
		content = lipgloss.NewStyle().
			Width(m.width-4).
			Height(m.lay.contentHeight+2).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Loading events...")
	case m.err != nil:
		content = lipgloss.NewStyle().
			Width(m.width - 4).
			Height(m.lay.contentHeight + 2).
			Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	case m.compactMode:
		switch {
		case m.showHelp:
			content = m.renderHelpPanel()
		case m.focusedPanel == FocusGrid:
			content = m.renderGridPanel()
		default:
			content = m.renderDetailPanel()
		}
	default:
		// Help replaces the detail panel
		right := m.renderDetailPanel()
		if m.showHelp {
			right = m.renderHelpPanel()
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderGridPanel(), " ", right)
	}

	return AppStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, content, m.renderFooter()),
	)
}
