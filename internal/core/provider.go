package core

import (
	"context"
	"time"
)

// FetchOptions configures which remote events an importer retrieves.
type FetchOptions struct {
	Start time.Time
	End   time.Time

	// Filter by calendar ID. Empty means all calendars.
	CalendarIDs []string

	// Category assigned to imported events whose source carries no
	// recognisable category.
	DefaultCategory Category

	// ExcludeAllDay filters out all-day events when true.
	ExcludeAllDay bool
}

// DefaultFetchOptions returns the window [start, end) with the other category.
func DefaultFetchOptions(start, end time.Time) FetchOptions {
	return FetchOptions{
		Start:           start,
		End:             end,
		DefaultCategory: CategoryOther,
	}
}

// Importer represents a remote calendar source (Google, Outlook).
type Importer interface {
	// ID returns the unique identifier (e.g. "google")
	ID() string
	// Name returns a human-readable label (e.g. "Google Calendar")
	Name() string
	// FetchEvents retrieves events matching the given options, converted to
	// local events with ExternalID set and ID zero.
	// This should block until done or context is cancelled.
	FetchEvents(ctx context.Context, opts FetchOptions) ([]Event, error)
}
