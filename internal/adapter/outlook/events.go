package outlook

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
	"go.uber.org/zap"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/util"
)

// FetchEvents retrieves event instances overlapping the window. Graph's
// calendar view expands recurring series, so each instance is imported as
// its own event.
func (o *OutlookAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	var results []core.Event

	calendarIDs := opts.CalendarIDs
	if len(calendarIDs) == 0 {
		for calID := range o.calendars {
			calendarIDs = append(calendarIDs, calID)
		}
		slices.Sort(calendarIDs)
	}

	for _, calID := range calendarIDs {
		if _, exists := o.calendars[calID]; !exists {
			o.logger.Warn("unknown calendar", zap.String("calendar", calID))
			continue
		}
		events, err := o.fetchEventsFromCalendar(ctx, calID, opts)
		if err != nil {
			o.logger.Warn("calendar fetch failed", zap.String("calendar", calID), zap.Error(err))
			continue
		}
		results = append(results, events...)
	}

	results = deduplicateEvents(results)
	sortEventsByStartTime(results)
	return results, nil
}

func (o *OutlookAdapter) fetchEventsFromCalendar(ctx context.Context, calendarID string, opts core.FetchOptions) ([]core.Event, error) {
	startStr := opts.Start.UTC().Format(time.RFC3339)
	endStr := opts.End.UTC().Format(time.RFC3339)
	selectFields := []string{
		"id", "iCalUId", "subject", "body", "start", "end", "isAllDay",
		"showAs", "responseStatus", "onlineMeeting", "isCancelled",
		"categories", "seriesMasterId",
	}
	orderBy := []string{"start/dateTime"}
	top := int32(100)

	headers := abstractions.NewRequestHeaders()
	headers.Add("Prefer", `outlook.timezone="UTC"`)

	var result models.EventCollectionResponseable
	var err error

	if calendarID == "default" {
		config := &users.ItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        selectFields,
				Orderby:       orderBy,
				Top:           &top,
			},
			Headers: headers,
		}
		result, err = o.client.Me().CalendarView().Get(ctx, config)
	} else {
		config := &users.ItemCalendarsItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarsItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        selectFields,
				Orderby:       orderBy,
				Top:           &top,
			},
			Headers: headers,
		}
		result, err = o.client.Me().Calendars().ByCalendarId(calendarID).CalendarView().Get(ctx, config)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch calendar view: %w", err)
	}

	pageIterator, err := msgraphcore.NewPageIterator[models.Eventable](
		result,
		o.client.GetAdapter(),
		models.CreateEventCollectionResponseFromDiscriminatorValue,
	)
	if err != nil {
		return nil, fmt.Errorf("create page iterator: %w", err)
	}

	var results []core.Event
	err = pageIterator.Iterate(ctx, func(item models.Eventable) bool {
		event, ok, perr := parseGraphEvent(item, o.loc, opts)
		if perr != nil {
			o.logger.Warn("skipping event", zap.String("event", derefStr(item.GetId())), zap.Error(perr))
			return true
		}
		if ok {
			results = append(results, event)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return results, nil
}

// parseGraphEvent converts a Graph event instance into an unsaved local
// event. ok is false for cancelled and declined instances, and for all-day
// ones when those are excluded.
func parseGraphEvent(item models.Eventable, loc *time.Location, opts core.FetchOptions) (ev core.Event, ok bool, err error) {
	if derefBool(item.GetIsCancelled()) || declined(item) {
		return ev, false, nil
	}

	allDay := derefBool(item.GetIsAllDay())
	if allDay && opts.ExcludeAllDay {
		return ev, false, nil
	}

	// Times are UTC because of the Prefer: outlook.timezone="UTC" header
	if ev.Start, err = parseSDKDateTime(item.GetStart()); err != nil {
		return ev, false, fmt.Errorf("start: %w", err)
	}
	if ev.End, err = parseSDKDateTime(item.GetEnd()); err != nil {
		return ev, false, fmt.Errorf("end: %w", err)
	}
	if allDay {
		// All-day bounds are dates, not instants
		ev.Start = time.Date(ev.Start.Year(), ev.Start.Month(), ev.Start.Day(), 0, 0, 0, 0, loc)
		ev.End = time.Date(ev.End.Year(), ev.End.Month(), ev.End.Day(), 0, 0, 0, 0, loc)
	} else {
		ev.Start, ev.End = ev.Start.In(loc), ev.End.In(loc)
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}

	ev.ExternalID = externalID(item, ev.Start)
	ev.Title = derefStr(item.GetSubject())
	if ev.Title == "" {
		ev.Title = "(No title)"
	}
	if body := item.GetBody(); body != nil {
		ev.Description = util.HTMLToText(derefStr(body.GetContent()))
	}
	link := ""
	if om := item.GetOnlineMeeting(); om != nil {
		link = derefStr(om.GetJoinUrl())
	}
	if link != "" && !strings.Contains(ev.Description, link) {
		ev.Description = strings.TrimSpace(ev.Description + "\n\nJoin: " + link)
	}
	ev.Category = categorize(item, link != "", opts.DefaultCategory)

	return ev, true, nil
}

// externalID identifies an instance across imports. Instances of one
// series share the iCalendar UID, so those are told apart by start time.
func externalID(item models.Eventable, start time.Time) string {
	id := derefStr(item.GetICalUId())
	if id == "" {
		id = derefStr(item.GetId())
	}
	if item.GetSeriesMasterId() != nil {
		id += "/" + start.UTC().Format("20060102T150405Z")
	}
	return id
}

// categorize prefers an Outlook category whose name matches one of ours,
// then falls back to show-as status and online meetings.
func categorize(item models.Eventable, online bool, fallback core.Category) core.Category {
	for _, cat := range item.GetCategories() {
		if c, ok := core.LookupCategory(cat); ok {
			return c
		}
		lower := strings.ToLower(cat)
		if lower == "focus time" || lower == "focustime" {
			return core.CategoryWork
		}
	}
	if showAs := item.GetShowAs(); showAs != nil {
		switch *showAs {
		case models.OOF_FREEBUSYSTATUS:
			return core.CategoryPersonal
		case models.WORKINGELSEWHERE_FREEBUSYSTATUS:
			return core.CategoryWork
		}
	}
	if online {
		return core.CategoryMeeting
	}
	return fallback
}

// declined reports whether the user declined the invitation.
func declined(item models.Eventable) bool {
	rs := item.GetResponseStatus()
	if rs == nil || rs.GetResponse() == nil {
		return false
	}
	return *rs.GetResponse() == models.DECLINED_RESPONSETYPE
}

// parseSDKDateTime converts a Graph DateTimeTimeZone (UTC) to time.Time.
func parseSDKDateTime(dt models.DateTimeTimeZoneable) (time.Time, error) {
	if dt == nil || dt.GetDateTime() == nil {
		return time.Time{}, fmt.Errorf("missing date time")
	}
	s := *dt.GetDateTime()
	layouts := []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date time %q", s)
}
