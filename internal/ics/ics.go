// Package ics converts events to and from iCalendar (RFC 5545) documents.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/recurrence"
)

const (
	service = "plan"

	propCompleted = ical.ComponentProperty("X-PLAN-COMPLETED")
)

// UID returns the iCalendar UID of ev. Imported events keep their source
// identity; local events get a stable name-based UUID.
func UID(ev core.Event) string {
	if ev.ExternalID != "" {
		return ev.ExternalID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("plan-"+strconv.FormatInt(ev.ID, 10))).String() + "@plan"
}

// Export writes events as a VCALENDAR. stamp becomes every DTSTAMP.
func Export(w io.Writer, events []core.Event, stamp time.Time) error {
	cal := ical.NewCalendarFor(service)
	cal.SetMethod(ical.MethodPublish)

	for _, ev := range events {
		ve := cal.AddEvent(UID(ev))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.AddCategory(strings.ToUpper(ev.Category.String()))
		if ev.Repeat.Active() {
			ve.AddRrule(recurrence.ToRRule(ev.Repeat))
		}
		if ev.Completed {
			ve.SetProperty(propCompleted, "TRUE")
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// ImportOptions configures Import.
type ImportOptions struct {
	// Wall-clock location for imported times
	Location *time.Location
	// Bound for repeat rules with neither COUNT nor UNTIL
	Horizon time.Time
	// Used when no CATEGORIES value names a known category
	DefaultCategory core.Category
	ExcludeAllDay   bool
	Logger          *zap.Logger
}

// Import reads every VEVENT in r. Events come back with ExternalID set to
// their UID and ID zero, ready for core.Storage.SyncEvents. Components that
// cannot be mapped are logged and skipped.
func Import(r io.Reader, opts ImportOptions) ([]core.Event, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var events []core.Event
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, opts)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			opts.Logger.Warn("skipping vevent", zap.String("uid", ve.Id()), zap.Error(err))
			continue
		}
		events = append(events, ev)
	}

	opts.Logger.Info("ics import parsed", zap.Int("events", len(events)))
	return events, nil
}

var errSkip = errors.New("skip")

func parseVEvent(ve *ical.VEvent, opts ImportOptions) (core.Event, error) {
	var ev core.Event

	ev.ExternalID = ve.Id()
	if ev.ExternalID == "" {
		return ev, errors.New("missing UID")
	}
	// Overrides of a single instance have no local equivalent
	if ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
		return ev, errSkip
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, string(ical.ObjectStatusCancelled)) {
		return ev, errSkip
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if ev.Title == "" {
		ev.Title = "(No title)"
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}

	allDay := isAllDay(ve.GetProperty(ical.ComponentPropertyDtStart))
	if allDay && opts.ExcludeAllDay {
		return ev, errSkip
	}

	var err error
	if allDay {
		if ev.Start, err = ve.GetAllDayStartAt(); err != nil {
			return ev, fmt.Errorf("DTSTART: %w", err)
		}
		ev.Start = wallDate(ev.Start, opts.Location)
		if end, err := ve.GetAllDayEndAt(); err == nil {
			ev.End = wallDate(end, opts.Location)
		} else {
			ev.End = ev.Start.AddDate(0, 0, 1)
		}
	} else {
		if ev.Start, err = ve.GetStartAt(); err != nil {
			return ev, fmt.Errorf("DTSTART: %w", err)
		}
		ev.Start = ev.Start.In(opts.Location)
		if end, err := ve.GetEndAt(); err == nil {
			ev.End = end.In(opts.Location)
		} else {
			ev.End = ev.Start
		}
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}

	ev.Category = opts.DefaultCategory
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		if c, ok := categoryOf(p.Value); ok {
			ev.Category = c
			break
		}
	}

	if p := ve.GetProperty(propCompleted); p != nil {
		ev.Completed = strings.EqualFold(strings.TrimSpace(p.Value), "TRUE")
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		rule, err := recurrence.FromRRule(p.Value, ev.Start, opts.Horizon)
		if err != nil {
			opts.Logger.Warn("dropping repeat rule", zap.String("uid", ev.ExternalID), zap.String("rrule", p.Value), zap.Error(err))
		} else {
			ev.Repeat = rule
		}
	}

	return ev, nil
}

// isAllDay reports VALUE=DATE or a date-only DTSTART.
func isAllDay(p *ical.IANAProperty) bool {
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// wallDate moves a date-only value to midnight in loc.
func wallDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// categoryOf matches the first known name in a comma-separated CATEGORIES value.
func categoryOf(v string) (core.Category, bool) {
	for _, part := range strings.Split(v, ",") {
		if c, ok := core.LookupCategory(part); ok {
			return c, true
		}
	}
	return core.CategoryOther, false
}
