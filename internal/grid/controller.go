package grid

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/geometry"
)

// DefaultCreateDuration is the length of an event created by clicking an
// empty slot.
const DefaultCreateDuration = time.Hour

// Commit is the mutation produced by a successful drop.
type Commit struct {
	Kind    Kind
	EventID int64
	Start   time.Time
	End     time.Time
}

// CreateIntent asks the host to create an event at a snapped time.
// It has no duration; NewEventAt fills in the default.
type CreateIntent struct {
	At time.Time
}

// Controller owns the drag state of one calendar view. It is Idle until
// BeginDrag and returns to Idle on every Drop or Cancel.
//
// A Controller is not safe for concurrent use; it is driven from a single UI
// loop.
type Controller struct {
	store  core.Storage
	logger *zap.Logger

	intent   DragIntent
	dragging bool
}

// NewController returns an idle controller writing commits to store.
// A nil logger discards output.
func NewController(store core.Storage, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{store: store, logger: logger}
}

// BeginDrag starts a gesture on occ. Only the base occurrence of a series
// can be dragged; synthesized occurrences return core.ErrReadOnlyOccurrence
// and leave the controller idle.
func (c *Controller) BeginDrag(occ core.Occurrence, kind Kind, offsetY float64) error {
	if !occ.Editable() {
		return core.ErrReadOnlyOccurrence
	}
	c.intent = DragIntent{Kind: kind, EventID: occ.ID, OffsetY: offsetY}
	c.dragging = true
	return nil
}

// Dragging returns the gesture in progress, if any.
func (c *Controller) Dragging() (DragIntent, bool) {
	return c.intent, c.dragging
}

// Cancel abandons the current gesture. Nothing has been written yet, so
// there is nothing to roll back.
func (c *Controller) Cancel() {
	c.intent = DragIntent{}
	c.dragging = false
}

// Drop finishes the gesture at pointerY on s and writes the result through
// the store. ok is false when nothing was written: no drag in progress, an
// unusable surface, an event that no longer exists, or bounds that did not
// change. Only store failures are returned as errors.
func (c *Controller) Drop(ctx context.Context, s Surface, pointerY float64) (Commit, bool, error) {
	intent, dragging := c.Dragging()
	c.Cancel()
	if !dragging {
		c.logger.Debug("drop ignored: not dragging")
		return Commit{}, false, nil
	}
	return c.apply(ctx, intent, s, pointerY)
}

// DropPayload is Drop for hosts that carry the gesture as browser transfer
// data instead of calling BeginDrag. Malformed payloads are ignored.
func (c *Controller) DropPayload(ctx context.Context, s Surface, pointerY float64, payload []byte) (Commit, bool, error) {
	c.Cancel()
	intent, ok := Decode(payload)
	if !ok {
		c.logger.Debug("drop ignored: malformed payload", zap.Int("bytes", len(payload)))
		return Commit{}, false, nil
	}
	return c.apply(ctx, intent, s, pointerY)
}

func (c *Controller) apply(ctx context.Context, intent DragIntent, s Surface, pointerY float64) (Commit, bool, error) {
	if !s.Valid() {
		c.logger.Debug("drop ignored: empty surface", zap.Float64("height", s.Height))
		return Commit{}, false, nil
	}

	ev, found, err := c.find(ctx, intent.EventID)
	if err != nil {
		return Commit{}, false, err
	}
	if !found {
		c.logger.Debug("drop ignored: unknown event", zap.Int64("id", intent.EventID))
		return Commit{}, false, nil
	}

	start, end := Resolve(intent, ev, s, pointerY)
	if start.Equal(ev.Start) && end.Equal(ev.End) {
		return Commit{}, false, nil
	}

	ev.Start, ev.End = start, end
	if _, err := c.store.UpsertEvent(ctx, ev); err != nil {
		return Commit{}, false, fmt.Errorf("failed to save event %d: %w", ev.ID, err)
	}

	c.logger.Info("event rescheduled",
		zap.Int64("id", ev.ID),
		zap.Stringer("kind", intent.Kind),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return Commit{Kind: intent.Kind, EventID: ev.ID, Start: start, End: end}, true, nil
}

func (c *Controller) find(ctx context.Context, id int64) (core.Event, bool, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return core.Event{}, false, fmt.Errorf("failed to list events: %w", err)
	}
	for _, ev := range events {
		if ev.ID == id {
			return ev, true, nil
		}
	}
	return core.Event{}, false, nil
}

// Click returns the snapped time under pointerY on s. It never touches the
// drag state.
func (c *Controller) Click(s Surface, pointerY float64) CreateIntent {
	return CreateIntent{At: geometry.AtMinutes(s.Day, s.MinutesAt(pointerY))}
}

// NewEventAt builds an unsaved work event of DefaultCreateDuration at the
// clicked time. The end is clamped to the end of the day.
func NewEventAt(intent CreateIntent, title string) core.Event {
	end := intent.At.Add(DefaultCreateDuration)
	if dayEnd := geometry.AtMinutes(intent.At, geometry.MinutesPerDay); end.After(dayEnd) {
		end = dayEnd
	}
	return core.Event{
		Title:    title,
		Category: core.CategoryWork,
		Start:    intent.At,
		End:      end,
	}
}

// Create stores the event for a click and returns it with its new ID.
func (c *Controller) Create(ctx context.Context, intent CreateIntent, title string) (core.Event, error) {
	ev, err := c.store.UpsertEvent(ctx, NewEventAt(intent, title))
	if err != nil {
		return core.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	c.logger.Info("event created", zap.Int64("id", ev.ID), zap.Time("start", ev.Start))
	return ev, nil
}
