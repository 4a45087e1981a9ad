package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/theakshaypant/opengym/internal/core"
)

// Config selects how the adapter authenticates. A public gym calendar only
// needs APIKey; a private one needs the OAuth credentials and token files.
type Config struct {
	APIKey          string
	CredentialsFile string
	TokenFile       string
	// CalendarIDs to read. Empty means every calendar on the account, which
	// is only available with OAuth.
	CalendarIDs []string
}

type GoogleAdapter struct {
	id        string
	name      string
	cfg       Config
	logger    *zap.Logger
	service   *calendar.Service
	calendars map[string]string
}

func NewGoogleAdapter(id, name string, cfg Config, logger *zap.Logger) *GoogleAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleAdapter{
		id:        id,
		name:      name,
		cfg:       cfg,
		logger:    logger.Named("google"),
		calendars: make(map[string]string),
	}
}

func (g *GoogleAdapter) ID() string   { return g.id }
func (g *GoogleAdapter) Name() string { return g.name }

// Login initializes the Calendar service and resolves calendar names.
// Run `opengym auth` first when using OAuth to generate the token file.
func (g *GoogleAdapter) Login(ctx context.Context) error {
	var err error
	if g.cfg.APIKey != "" {
		g.service, err = calendar.NewService(ctx, option.WithAPIKey(g.cfg.APIKey))
		if err != nil {
			return err
		}
		return g.loadConfiguredCalendars(ctx)
	}

	config, err := OAuthConfig(g.cfg.CredentialsFile)
	if err != nil {
		return err
	}

	tok, err := TokenFromFile(g.cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run opengym auth first): %w", err)
	}

	g.service, err = calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return err
	}

	if len(g.cfg.CalendarIDs) > 0 {
		return g.loadConfiguredCalendars(ctx)
	}
	if err := g.loadCalendarList(ctx); err != nil {
		return fmt.Errorf("load calendar list: %w", err)
	}
	return nil
}

// loadCalendarList fetches all calendars the user has access to.
func (g *GoogleAdapter) loadCalendarList(ctx context.Context) error {
	calList, err := g.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return err
	}

	for _, cal := range calList.Items {
		g.calendars[cal.Id] = cal.Summary
	}
	return nil
}

// loadConfiguredCalendars looks up each configured calendar so it can be
// listed by name. A lookup failure keeps the ID as the name.
func (g *GoogleAdapter) loadConfiguredCalendars(ctx context.Context) error {
	if len(g.cfg.CalendarIDs) == 0 {
		return errors.New("calendar_id is required when using an API key")
	}
	for _, id := range g.cfg.CalendarIDs {
		g.calendars[id] = id
		cal, err := g.service.Calendars.Get(id).Context(ctx).Do()
		if err != nil {
			g.logger.Debug("calendar metadata unavailable", zap.String("calendar", id), zap.Error(err))
			continue
		}
		g.calendars[id] = cal.Summary
	}
	return nil
}

// Calendars returns the available calendars (ID -> Name).
func (g *GoogleAdapter) Calendars() map[string]string {
	return g.calendars
}

// OAuthConfig reads a client credentials file for read-only calendar access.
func OAuthConfig(credsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

// TokenFromFile reads an OAuth token from a JSON file.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// FetchEvents reads every selected calendar. A calendar that fails is
// logged and skipped; the call only fails when all of them do.
func (g *GoogleAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	calendarIDs := opts.CalendarIDs
	if len(calendarIDs) == 0 {
		for calID := range g.calendars {
			calendarIDs = append(calendarIDs, calID)
		}
		slices.Sort(calendarIDs)
	}

	var (
		results []core.Event
		errs    []error
	)
	for _, calID := range calendarIDs {
		if _, exists := g.calendars[calID]; !exists {
			continue
		}
		events, err := g.fetchEventsFromCalendar(ctx, calID, opts)
		if err != nil {
			g.logger.Warn("calendar fetch failed", zap.String("calendar", calID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		results = append(results, events...)
	}

	if len(errs) > 0 && len(errs) == len(calendarIDs) {
		return nil, errors.Join(errs...)
	}

	slices.SortStableFunc(results, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
	return results, nil
}

func (g *GoogleAdapter) fetchEventsFromCalendar(ctx context.Context, calendarID string, opts core.FetchOptions) ([]core.Event, error) {
	// Google API requires RFC3339 format
	tMin := opts.Start.Format(time.RFC3339)
	tMax := opts.End.Format(time.RFC3339)

	var results []core.Event
	pageToken := ""

	for {
		req := g.service.Events.List(calendarID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(tMin).
			TimeMax(tMax).
			OrderBy("startTime").
			Context(ctx)

		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		eventsResult, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("api call failed for calendar %s: %w", calendarID, err)
		}

		for _, item := range eventsResult.Items {
			if item.Status == "cancelled" {
				continue
			}
			event, err := g.parseEvent(item)
			if err != nil {
				g.logger.Warn("skipping unparsable event",
					zap.String("calendar", calendarID),
					zap.String("id", item.Id),
					zap.Error(err))
				continue
			}
			results = append(results, event)
		}

		pageToken = eventsResult.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return results, nil
}

// parseEvent converts a Google Calendar event to our Event. Timed events
// carry start.dateTime; all-day events only start.date, whose end date is
// exclusive.
func (g *GoogleAdapter) parseEvent(item *calendar.Event) (core.Event, error) {
	if item.Start == nil || item.End == nil {
		return core.Event{}, errors.New("missing start or end")
	}

	start, allDay, err := parseEventTime(item.Start)
	if err != nil {
		return core.Event{}, fmt.Errorf("start: %w", err)
	}
	end, _, err := parseEventTime(item.End)
	if err != nil {
		return core.Event{}, fmt.Errorf("end: %w", err)
	}

	event := core.NewEvent(item.Id, item.Summary, start, end)
	event.ProviderID = g.ID()
	event.Description = item.Description
	event.Location = item.Location
	event.URL = item.HtmlLink
	event.IsAllDay = allDay
	return event, nil
}

func parseEventTime(t *calendar.EventDateTime) (time.Time, bool, error) {
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		return v, false, err
	}
	if t.Date != "" {
		v, err := time.Parse(time.DateOnly, t.Date)
		return v, true, err
	}
	return time.Time{}, false, errors.New("neither dateTime nor date set")
}
