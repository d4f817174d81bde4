package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/recurrence"
	"github.com/theakshaypant/plan/internal/util"
)

// GoogleAdapter imports events from Google Calendar.
type GoogleAdapter struct {
	id        string
	name      string
	client    *http.Client
	service   *calendar.Service
	config    *oauth2.Config
	credsFile string
	tokenFile string
	calendars map[string]string
	loc       *time.Location
	logger    *zap.Logger
}

func NewGoogleAdapter(id, name, credsFile, tokenFile string, logger *zap.Logger) *GoogleAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleAdapter{
		id:        id,
		name:      name,
		credsFile: credsFile,
		tokenFile: tokenFile,
		calendars: make(map[string]string),
		loc:       time.Local,
		logger:    logger.With(zap.String("provider", id)),
	}
}

func (g *GoogleAdapter) ID() string   { return g.id }
func (g *GoogleAdapter) Name() string { return g.name }

// OAuthConfig reads the OAuth client from the credentials file.
// Used by the auth command to run the initial OAuth flow.
func (g *GoogleAdapter) OAuthConfig() (*oauth2.Config, error) {
	if g.config != nil {
		return g.config, nil
	}
	b, err := os.ReadFile(g.credsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	g.config = config
	return config, nil
}

// Login loads credentials and token, then initializes the Calendar service.
// Run 'plan auth --provider google' first to create the token file.
func (g *GoogleAdapter) Login(ctx context.Context) error {
	config, err := g.OAuthConfig()
	if err != nil {
		return err
	}

	tok, err := tokenFromFile(g.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'plan auth' first): %w", err)
	}

	g.client = config.Client(ctx, tok)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(g.client))
	if err != nil {
		return err
	}
	return g.useService(ctx, svc)
}

// useService attaches svc and loads the calendar list through it.
func (g *GoogleAdapter) useService(ctx context.Context, svc *calendar.Service) error {
	g.service = svc
	if err := g.loadCalendarList(ctx); err != nil {
		return fmt.Errorf("load calendar list: %w", err)
	}
	return nil
}

// loadCalendarList fetches all calendars the user has access to.
func (g *GoogleAdapter) loadCalendarList(ctx context.Context) error {
	return g.service.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, cal := range page.Items {
			g.calendars[cal.Id] = cal.Summary
		}
		return nil
	})
}

// Calendars returns the available calendars (ID -> Name).
func (g *GoogleAdapter) Calendars() map[string]string {
	return g.calendars
}

// tokenFromFile reads an OAuth token from a JSON file.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// FetchEvents returns the events overlapping the window. Recurring series
// come back once, as their master event with the repeat rule mapped from
// RRULE; open-ended series are bounded by opts.End.
func (g *GoogleAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	var results []core.Event

	calendarIDs := opts.CalendarIDs
	if len(calendarIDs) == 0 {
		for calID := range g.calendars {
			calendarIDs = append(calendarIDs, calID)
		}
		slices.Sort(calendarIDs)
	}

	for _, calID := range calendarIDs {
		if _, exists := g.calendars[calID]; !exists {
			g.logger.Warn("unknown calendar", zap.String("calendar", calID))
			continue
		}
		events, err := g.fetchEventsFromCalendar(ctx, calID, opts)
		if err != nil {
			// Keep going with the other calendars
			g.logger.Warn("calendar fetch failed", zap.String("calendar", calID), zap.Error(err))
			continue
		}
		results = append(results, events...)
	}

	results = deduplicateEvents(results)
	sortEventsByStartTime(results)
	return results, nil
}

// deduplicateEvents keeps the first event per ExternalID. The same meeting
// shows up once per calendar it was shared to.
func deduplicateEvents(events []core.Event) []core.Event {
	seen := make(map[string]bool)
	var result []core.Event

	for _, event := range events {
		if event.ExternalID != "" {
			if seen[event.ExternalID] {
				continue
			}
			seen[event.ExternalID] = true
		}
		result = append(result, event)
	}
	return result
}

func sortEventsByStartTime(events []core.Event) {
	slices.SortStableFunc(events, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
}

func (g *GoogleAdapter) fetchEventsFromCalendar(ctx context.Context, calendarID string, opts core.FetchOptions) ([]core.Event, error) {
	// Google API requires RFC3339 format
	tMin := opts.Start.Format(time.RFC3339)
	tMax := opts.End.Format(time.RFC3339)

	var results []core.Event
	err := g.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(false).
		TimeMin(tMin).
		TimeMax(tMax).
		Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				event, ok, err := parseEvent(item, g.loc, opts)
				if err != nil {
					g.logger.Warn("skipping event", zap.String("calendar", calendarID), zap.String("event", item.Id), zap.Error(err))
					continue
				}
				if ok {
					results = append(results, event)
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("api call failed for calendar %s: %w", calendarID, err)
	}
	return results, nil
}

// parseEvent converts a Google Calendar event into an unsaved local event.
// ok is false for events that should not be imported (cancelled, declined,
// or all-day when those are excluded).
func parseEvent(item *calendar.Event, loc *time.Location, opts core.FetchOptions) (ev core.Event, ok bool, err error) {
	if item.Status == "cancelled" || declined(item) {
		return ev, false, nil
	}
	if item.Start == nil || item.End == nil {
		return ev, false, fmt.Errorf("event has no start or end")
	}

	allDay := item.Start.DateTime == ""
	if allDay && opts.ExcludeAllDay {
		return ev, false, nil
	}

	if allDay {
		// All day event (YYYY-MM-DD); the end date is exclusive
		if ev.Start, err = time.ParseInLocation(time.DateOnly, item.Start.Date, loc); err != nil {
			return ev, false, fmt.Errorf("start: %w", err)
		}
		if ev.End, err = time.ParseInLocation(time.DateOnly, item.End.Date, loc); err != nil {
			return ev, false, fmt.Errorf("end: %w", err)
		}
	} else {
		if ev.Start, err = time.Parse(time.RFC3339, item.Start.DateTime); err != nil {
			return ev, false, fmt.Errorf("start: %w", err)
		}
		if ev.End, err = time.Parse(time.RFC3339, item.End.DateTime); err != nil {
			return ev, false, fmt.Errorf("end: %w", err)
		}
		ev.Start, ev.End = ev.Start.In(loc), ev.End.In(loc)
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}

	ev.ExternalID = item.ICalUID
	if ev.ExternalID == "" {
		ev.ExternalID = item.Id
	}
	ev.Title = item.Summary
	if ev.Title == "" {
		ev.Title = "(No title)"
	}
	ev.Description = util.HTMLToText(item.Description)
	if link := extractMeetingLink(item); link != "" && !strings.Contains(ev.Description, link) {
		ev.Description = strings.TrimSpace(ev.Description + "\n\nJoin: " + link)
	}
	ev.Category = categorize(item, opts.DefaultCategory)

	for _, line := range item.Recurrence {
		if !strings.HasPrefix(line, "RRULE:") {
			continue
		}
		rule, rerr := recurrence.FromRRule(line, ev.Start, opts.End)
		if rerr != nil {
			return ev, false, fmt.Errorf("recurrence: %w", rerr)
		}
		ev.Repeat = rule
		break
	}

	return ev, true, nil
}

// categorize maps Google's event type and conferencing onto a category.
func categorize(item *calendar.Event, fallback core.Category) core.Category {
	switch item.EventType {
	case "focusTime":
		return core.CategoryWork
	case "outOfOffice":
		return core.CategoryPersonal
	}
	if extractMeetingLink(item) != "" || len(item.Attendees) > 1 {
		return core.CategoryMeeting
	}
	return fallback
}

// extractMeetingLink gets the video conferencing link from a Google Calendar event.
func extractMeetingLink(item *calendar.Event) string {
	// ConferenceData covers Google Meet, Zoom, etc.
	if item.ConferenceData != nil {
		for _, entry := range item.ConferenceData.EntryPoints {
			if entry.EntryPointType == "video" {
				return entry.Uri
			}
		}
	}

	// Legacy field
	return item.HangoutLink
}

// declined reports whether the user declined the invitation.
func declined(item *calendar.Event) bool {
	for _, attendee := range item.Attendees {
		if attendee.Self {
			return attendee.ResponseStatus == "declined"
		}
	}
	return false
}
