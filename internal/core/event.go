package core

import (
	"time"
)

// MinDuration is the shortest block the grid will produce when resizing.
const MinDuration = 15 * time.Minute

// Event is the canonical, non-expanded entry owned by the store.
// Repeating events are stored once; occurrences are derived on read.
type Event struct {
	// Unique ID assigned by the store at creation
	ID int64
	// Details
	Title       string
	Description string
	Category    Category
	Completed   bool
	// Timing (local wall-clock)
	Start time.Time
	End   time.Time
	// Zero value means the event does not repeat
	Repeat RepeatRule
	// Identity in the system it was imported from (iCalendar UID, Graph id).
	// Empty for events created locally.
	ExternalID string
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// InProgress checks if the event is happening right now.
func (e Event) InProgress(now time.Time) bool {
	return now.After(e.Start) && now.Before(e.End)
}

// Validate rejects events whose end precedes their start.
func (e Event) Validate() error {
	if e.End.Before(e.Start) {
		return ErrEndBeforeStart
	}
	return nil
}

// Occurrence is one concrete instance of an Event. The first occurrence of a
// series shares the base event's ID; later ones carry synthesized IDs and are
// display-only.
type Occurrence struct {
	Event
	// ID of the canonical event this occurrence was derived from
	SeriesID int64
	// Position in the series, 0 for the base occurrence
	Index int
}

// Editable reports whether edits to this occurrence route back to the
// canonical event.
func (o Occurrence) Editable() bool {
	return o.Index == 0 && o.ID == o.SeriesID
}

// Single wraps a canonical event as its own base occurrence.
func Single(e Event) Occurrence {
	return Occurrence{Event: e, SeriesID: e.ID}
}
