// Package geometry maps between time of day and positions on a vertical
// 24-hour axis. Axis units are whatever the caller draws in: pixels, percent
// or terminal rows.
package geometry

import (
	"math"
	"time"
)

const (
	MinutesPerDay = 1440
	SnapMinutes   = 15
	// Latest start a snapped time may take, leaving one slot before midnight.
	MaxSnappedStart = MinutesPerDay - SnapMinutes
)

// TimeToOffset maps minutes since midnight onto an axis of the given length.
func TimeToOffset(minutes, axis float64) float64 {
	return minutes / MinutesPerDay * axis
}

// OffsetToTime maps an axis offset back to minutes since midnight, snapped to
// the nearest 15-minute boundary and clamped to [0, MaxSnappedStart].
// A non-positive axis yields 0.
func OffsetToTime(offset, axis float64) int {
	if axis <= 0 {
		return 0
	}
	return clamp(Snap(offset/axis*MinutesPerDay), 0, MaxSnappedStart)
}

// Snap rounds minutes to the nearest 15-minute boundary. Halves round away
// from zero.
func Snap(minutes float64) int {
	return int(math.Round(minutes/SnapMinutes)) * SnapMinutes
}

// MinutesOf returns the wall-clock minutes since midnight of t, including
// seconds as a fraction.
func MinutesOf(t time.Time) float64 {
	h, m, s := t.Clock()
	return float64(h*60+m) + float64(s)/60
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AtMinutes returns the instant minutes after midnight on day, in day's
// location. Minutes are wall-clock minutes, so 1440 is the next midnight
// even across a DST change.
func AtMinutes(day time.Time, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, minutes, 0, 0, day.Location())
}

// Block returns the top offset and height of an event drawn on day's axis.
// The event is clipped to the day. Heights are at least minMinutes tall
// (pass 0 for no minimum). Events that do not touch the day return ok=false.
func Block(start, end, day time.Time, axis float64, minMinutes float64) (top, height float64, ok bool) {
	dayStart := StartOfDay(day)
	dayEnd := AtMinutes(dayStart, MinutesPerDay)
	if !start.Before(dayEnd) || end.Before(dayStart) || (end.Equal(dayStart) && !start.Equal(end)) {
		return 0, 0, false
	}

	from := 0.0
	if start.After(dayStart) {
		from = MinutesOf(start)
	}
	to := float64(MinutesPerDay)
	if end.Before(dayEnd) {
		to = MinutesOf(end)
		if to < from {
			to = from
		}
	}

	span := to - from
	if span < minMinutes {
		span = minMinutes
	}
	return TimeToOffset(from, axis), TimeToOffset(span, axis), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
