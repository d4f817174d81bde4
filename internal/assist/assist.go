// Package assist turns free text into event drafts and days into briefings
// using the Gemini generateContent API.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	gl "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"github.com/theakshaypant/plan/internal/core"
)

const DefaultModel = "gemini-2.5-flash"

// Descriptions given to events created from text.
const (
	QuickAddDescription = "Created with quick add"
	FromTextDescription = "Created from text"
)

// EmptyDayBriefing is returned for days with nothing planned, without
// calling the service.
const EmptyDayBriefing = "Nothing is planned for this day. Have a great day!"

var (
	ErrMissingKey  = errors.New("missing Gemini API key (set gemini_api_key in config or GEMINI_API_KEY in .env)")
	ErrUnparseable = errors.New("could not understand the text, try rephrasing it or add the event manually")
	ErrNoEvents    = errors.New("no events found in the text")
)

// Config configures a Client.
type Config struct {
	APIKey string
	// Defaults to DefaultModel
	Model string
	// Overrides the API base URL (tests)
	Endpoint   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls Gemini.
type Client struct {
	svc    *gl.Service
	model  string
	logger *zap.Logger
}

// New builds a client. An API key is required.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingKey
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	svc, err := gl.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}

	c := &Client{svc: svc, model: cfg.Model, logger: cfg.Logger}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

const categoryList = "'work', 'personal', 'fitness', 'meeting', 'education', 'other'"

func draftSchema(described bool) *gl.Schema {
	field := func(desc string) gl.Schema {
		s := gl.Schema{Type: "STRING"}
		if described {
			s.Description = desc
		}
		return s
	}
	category := field("Event category, one of " + categoryList)
	category.Format = "enum"
	for _, c := range core.Categories() {
		category.Enum = append(category.Enum, c.String())
	}

	return &gl.Schema{
		Type: "OBJECT",
		Properties: map[string]gl.Schema{
			"title":     field("Event title."),
			"startDate": field("Start date (YYYY-MM-DD)."),
			"startTime": field("Start time (HH:mm)."),
			"endDate":   field("End date (YYYY-MM-DD)."),
			"endTime":   field("End time (HH:mm)."),
			"category":  category,
		},
		Required:         []string{"title", "startDate", "startTime", "endDate", "endTime", "category"},
		PropertyOrdering: []string{"title", "startDate", "startTime", "endDate", "endTime", "category"},
	}
}

// ParseEvent extracts a single event from text. today anchors relative
// phrases like "tomorrow at 3".
func (c *Client) ParseEvent(ctx context.Context, text string, today time.Time) (core.EventDraft, error) {
	if strings.TrimSpace(text) == "" {
		return core.EventDraft{}, ErrUnparseable
	}

	prompt := fmt.Sprintf("The user described an event in natural language: %q. "+
		"Extract 'title', 'startDate' (YYYY-MM-DD), 'startTime' (HH:mm), 'endDate' (YYYY-MM-DD) and 'endTime' (HH:mm). "+
		"Also pick the most fitting 'category' from this list: %s. "+
		"If no end time is given, assume one hour after the start. "+
		"Today's date is %s. Reply with JSON only.",
		text, categoryList, today.Format("2006-01-02 (Monday)"))

	out, err := c.generate(ctx, prompt, draftSchema(true))
	if err != nil {
		return core.EventDraft{}, err
	}

	var d core.EventDraft
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		c.logger.Warn("unparseable quick add reply", zap.String("reply", out), zap.Error(err))
		return core.EventDraft{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return d, nil
}

// ParseSchedule extracts every event in text. An empty result is
// ErrNoEvents.
func (c *Client) ParseSchedule(ctx context.Context, text string, today time.Time) ([]core.EventDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoEvents
	}

	prompt := fmt.Sprintf("The user pasted a schedule in natural language: %q. "+
		"Analyse it and extract every calendar event. "+
		"Build a JSON array where each item has 'title', 'startDate' (YYYY-MM-DD), 'startTime' (HH:mm), "+
		"'endDate' (YYYY-MM-DD), 'endTime' (HH:mm) and 'category' (the best fit from %s). "+
		"If no end time is given, set it one hour after the start. "+
		"Read phrases like 'all day' as 09:00 to 17:00. "+
		"Today's date is %s. Reply with a JSON array only.",
		text, categoryList, today.Format("2006-01-02 (Monday)"))

	schema := &gl.Schema{Type: "ARRAY", Items: draftSchema(false)}
	out, err := c.generate(ctx, prompt, schema)
	if err != nil {
		return nil, err
	}

	var drafts []core.EventDraft
	if err := json.Unmarshal([]byte(out), &drafts); err != nil {
		c.logger.Warn("unparseable schedule reply", zap.String("reply", out), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(drafts) == 0 {
		return nil, ErrNoEvents
	}
	return drafts, nil
}

// Briefing writes a short Markdown summary of the occurrences on day.
func (c *Client) Briefing(ctx context.Context, day time.Time, occ []core.Occurrence) (string, error) {
	if len(occ) == 0 {
		return EmptyDayBriefing, nil
	}

	var lines []string
	for _, o := range occ {
		lines = append(lines, fmt.Sprintf("- %q (%s - %s), Category: %s",
			o.Title, o.Start.Format("15:04"), o.End.Format("15:04"), o.Category.Info().Name))
	}

	prompt := fmt.Sprintf("You are a helpful, motivating personal assistant. "+
		"Below is the user's schedule for %s. "+
		"Write a short briefing that opens with a friendly greeting and summarises the day. "+
		"Highlight the important events and comment on how busy the day is. "+
		"Structure the answer with Markdown headings, lists and bold text.\n\n"+
		"Today's schedule:\n%s",
		day.Format("Monday, January 2"), strings.Join(lines, "\n"))

	out, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("%w: empty briefing", ErrUnparseable)
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, prompt string, schema *gl.Schema) (string, error) {
	req := &gl.GenerateContentRequest{
		Contents: []*gl.Content{{
			Role:  "user",
			Parts: []*gl.Part{{Text: prompt}},
		}},
	}
	if schema != nil {
		req.GenerationConfig = &gl.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}

	resp, err := c.svc.Models.GenerateContent("models/"+c.model, req).Context(ctx).Do()
	if err != nil {
		c.logger.Error("gemini request failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return stripFence(responseText(resp)), nil
}

func responseText(resp *gl.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

// stripFence removes a Markdown code fence around a JSON reply.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ToEvents converts drafts into unsaved events carrying description.
// Drafts that do not convert are returned as errors alongside the rest.
func ToEvents(drafts []core.EventDraft, loc *time.Location, description string) ([]core.Event, error) {
	var (
		events []core.Event
		errs   []error
	)
	for i, d := range drafts {
		ev, err := d.ToEvent(loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("event %d (%s): %w", i+1, d.Title, err))
			continue
		}
		ev.Description = description
		events = append(events, ev)
	}
	return events, errors.Join(errs...)
}
