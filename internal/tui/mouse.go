package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theakshaypant/plan/internal/calendar"
	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/grid"
)

// press is a left-button gesture between press and release.
type press struct {
	// Where the button went down and where the pointer is now
	x, y   int
	cx, cy int
	moved  bool
	// The press landed on an event block
	onBlock bool
	// The controller accepted the gesture
	dragging bool
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.showHelp || m.err != nil {
		return m, nil
	}
	if m.compactMode && m.focusedPanel == FocusDetail {
		return m, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-1)
		return m, nil

	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(1)
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		return m.mousePress(msg.X, msg.Y)

	case msg.Action == tea.MouseActionMotion:
		if m.press == nil {
			return m, nil
		}
		p := *m.press
		p.cx, p.cy = msg.X, msg.Y
		if p.cx != p.x || p.cy != p.y {
			p.moved = true
		}
		m.press = &p
		if _, start, end, ok := m.preview(); ok {
			intent, _ := m.ctrl.Dragging()
			m.status = fmt.Sprintf("%s → %s-%s", intent.Kind, start.Format("Mon 15:04"), end.Format("15:04"))
		}
		return m, nil

	case msg.Action == tea.MouseActionRelease:
		return m.mouseRelease(msg.X, msg.Y)
	}
	return m, nil
}

func (m Model) mousePress(x, y int) (tea.Model, tea.Cmd) {
	m.status = ""
	m.ctrl.Cancel()
	m.press = &press{x: x, y: y, cx: x, cy: y}

	if m.view == calendar.ViewMonth {
		return m, nil
	}

	col, row, dx, ok := m.cellAt(x, y)
	if !ok {
		m.press = nil
		return m, nil
	}
	b, kind, found := m.blockAt(m.columns(), col, row, dx)
	if !found {
		return m, nil
	}

	m.press.onBlock = true
	m.selected = selection{series: b.occ.SeriesID, index: b.occ.Index}
	m.hasSel = true
	m.updateDetailContent()

	// Keep the grip point: a block grabbed two rows below its top stays two
	// rows above the pointer.
	if err := m.ctrl.BeginDrag(b.occ, kind, float64(row)-b.topF); err == nil {
		m.press.dragging = true
	}
	return m, nil
}

func (m Model) mouseRelease(x, y int) (tea.Model, tea.Cmd) {
	if m.press == nil {
		return m, nil
	}
	p := *m.press
	m.press = nil
	moved := p.moved || x != p.x || y != p.y

	if m.view == calendar.ViewMonth {
		from, ok1 := m.monthCellAt(p.x, p.y)
		to, ok2 := m.monthCellAt(x, y)
		if ok1 && ok2 && from.Equal(to) {
			m.view = calendar.ViewDay
			m.calculateLayout()
			return m, m.changeDate(to)
		}
		return m, nil
	}

	switch {
	case p.dragging:
		if !moved {
			m.ctrl.Cancel()
			return m, nil
		}
		col, _, _, ok := m.cellAt(x, y)
		if !ok {
			m.ctrl.Cancel()
			m.status = "drop cancelled"
			return m, nil
		}
		s := m.surface(m.days()[col])
		commit, ok, err := m.ctrl.Drop(context.Background(), s, float64(y))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if !ok {
			return m, nil
		}
		m.status = fmt.Sprintf("%s to %s-%s", commit.Kind, commit.Start.Format("Mon 15:04"), commit.End.Format("15:04"))
		return m, m.loadEvents()

	case p.onBlock:
		if moved {
			m.setError(core.ErrReadOnlyOccurrence)
		}
		return m, nil

	default:
		if moved {
			return m, nil
		}
		col, _, _, ok := m.cellAt(x, y)
		if !ok {
			return m, nil
		}
		intent := m.ctrl.Click(m.surface(m.days()[col]), float64(y))
		m.pending = intent
		return m, m.startInput(modeCreate, fmt.Sprintf("new event %s: ", intent.At.Format("Mon Jan 2 15:04")), "title")
	}
}

// preview returns the bounds the dragged event would drop at under the
// pointer.
func (m Model) preview() (id int64, start, end time.Time, ok bool) {
	if m.press == nil || !m.press.dragging || !m.press.moved {
		return 0, start, end, false
	}
	intent, dragging := m.ctrl.Dragging()
	if !dragging {
		return 0, start, end, false
	}
	col, _, _, inside := m.cellAt(m.press.cx, m.press.cy)
	if !inside {
		return 0, start, end, false
	}
	for _, o := range m.occ {
		if o.ID == intent.EventID && o.Editable() {
			start, end = grid.Resolve(intent, o.Event, m.surface(m.days()[col]), float64(m.press.cy))
			return o.ID, start, end, true
		}
	}
	return 0, start, end, false
}
