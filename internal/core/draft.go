package core

import (
	"fmt"
	"strings"
	"time"
)

// EventDraft is the loosely typed shape produced by text parsing. Dates are
// YYYY-MM-DD and times HH:mm.
type EventDraft struct {
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	StartTime string `json:"startTime"`
	EndDate   string `json:"endDate"`
	EndTime   string `json:"endTime"`
	Category  string `json:"category"`
}

const draftLayout = "2006-01-02T15:04"

// ToEvent converts the draft into an unsaved Event in loc. Unknown categories
// become CategoryOther.
func (d EventDraft) ToEvent(loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}

	start, err := time.ParseInLocation(draftLayout, strings.TrimSpace(d.StartDate)+"T"+strings.TrimSpace(d.StartTime), loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: start: %v", ErrInvalidDraft, err)
	}
	end, err := time.ParseInLocation(draftLayout, strings.TrimSpace(d.EndDate)+"T"+strings.TrimSpace(d.EndTime), loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: end: %v", ErrInvalidDraft, err)
	}

	ev := Event{
		Title:    strings.TrimSpace(d.Title),
		Start:    start,
		End:      end,
		Category: ParseCategory(d.Category),
	}
	if err := ev.Validate(); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	return ev, nil
}
