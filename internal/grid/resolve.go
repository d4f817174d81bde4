// Package grid implements drag-to-move, drag-to-resize and click-to-create on
// a vertical 24-hour axis. Geometry is computed once at drop time from the
// final pointer position; nothing is tracked while the pointer moves.
package grid

import (
	"math"
	"time"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/geometry"
)

// Kind classifies a drag gesture.
type Kind int

const (
	KindMove Kind = iota
	KindResizeTop
	KindResizeBottom
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindResizeTop:
		return "resize-top"
	case KindResizeBottom:
		return "resize-bottom"
	default:
		return "unknown"
	}
}

// DragIntent describes a drag in progress.
type DragIntent struct {
	Kind    Kind
	EventID int64
	// Pointer offset inside the dragged block when the drag started, so a
	// moved block keeps its grip point instead of jumping to the pointer.
	// Only meaningful for KindMove.
	OffsetY float64
}

// Surface is the drop container: the day it represents and its vertical
// extent in whatever unit the host uses (CSS pixels, terminal rows, or
// minutes for the CLI).
type Surface struct {
	Day    time.Time
	Top    float64
	Height float64
}

// Valid reports whether the surface has a usable extent.
func (s Surface) Valid() bool {
	return s.Height > 0 && !math.IsNaN(s.Height) && !math.IsInf(s.Height, 0)
}

// MinutesAt returns the snapped time of day under pointerY.
func (s Surface) MinutesAt(pointerY float64) int {
	return geometry.OffsetToTime(pointerY-s.Top, s.Height)
}

// Resolve computes the new bounds of ev for a drop of intent at pointerY.
// Results are clamped, never rejected: moves stay inside the surface's day
// and resizes keep at least core.MinDuration, which takes precedence over
// the day bounds.
func Resolve(intent DragIntent, ev core.Event, s Surface, pointerY float64) (start, end time.Time) {
	if !s.Valid() {
		return ev.Start, ev.End
	}

	switch intent.Kind {
	case KindMove:
		return resolveMove(intent, ev, s, pointerY)

	case KindResizeTop:
		// Minimum duration wins over the day bounds.
		start = geometry.AtMinutes(s.Day, s.MinutesAt(pointerY))
		if limit := ev.End.Add(-core.MinDuration); start.After(limit) {
			start = limit
		}
		return start, ev.End

	case KindResizeBottom:
		end = geometry.AtMinutes(s.Day, s.MinutesAt(pointerY))
		if limit := ev.Start.Add(core.MinDuration); end.Before(limit) {
			end = limit
		}
		return ev.Start, end
	}
	return ev.Start, ev.End
}

func resolveMove(intent DragIntent, ev core.Event, s Surface, pointerY float64) (time.Time, time.Time) {
	duration := ev.Duration()

	y := math.Max(0, pointerY-s.Top-intent.OffsetY)
	m := geometry.Snap(y * geometry.MinutesPerDay / s.Height)

	latest := geometry.MinutesPerDay - int(math.Ceil(duration.Minutes()))
	m = min(m, geometry.MaxSnappedStart, latest)
	m = max(m, 0)

	start := geometry.AtMinutes(s.Day, m)
	return start, start.Add(duration)
}
