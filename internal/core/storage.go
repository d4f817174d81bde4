package core

import (
	"context"
)

// Storage handles the persistence of canonical events.
type Storage interface {
	// ListEvents returns all canonical events sorted by Start time.
	ListEvents(ctx context.Context) ([]Event, error)
	// UpsertEvent inserts ev when its ID is zero or unknown and replaces the
	// stored event otherwise. The stored value is returned.
	UpsertEvent(ctx context.Context, ev Event) (Event, error)
	// DeleteEvent removes an event. Unknown IDs return ErrNotFound.
	DeleteEvent(ctx context.Context, id int64) error
	// SetCompleted flips the completion flag. Unknown IDs return ErrNotFound.
	SetCompleted(ctx context.Context, id int64, done bool) error
	// SyncEvents saves a batch of imported events.
	// Events are matched on ExternalID: existing ones are updated in place
	// (keeping their local ID), new ones are inserted.
	SyncEvents(ctx context.Context, events []Event) (SyncResult, error)
}

// SyncResult counts what a sync did.
type SyncResult struct {
	Inserted int
	Updated  int
}
