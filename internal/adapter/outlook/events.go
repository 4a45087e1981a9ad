package outlook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
	"go.uber.org/zap"

	"github.com/theakshaypant/opengym/internal/core"
)

// FetchEvents reads the calendar view of every selected calendar. A
// calendar that fails is logged and skipped; the call only fails when all
// of them do.
func (o *OutlookAdapter) FetchEvents(ctx context.Context, opts core.FetchOptions) ([]core.Event, error) {
	calendarIDs := opts.CalendarIDs
	if len(calendarIDs) == 0 {
		for calID := range o.calendars {
			calendarIDs = append(calendarIDs, calID)
		}
		slices.Sort(calendarIDs)
	}

	var (
		found []graphEvent
		errs  []error
	)
	for _, calID := range calendarIDs {
		if _, exists := o.calendars[calID]; !exists {
			continue
		}
		events, err := o.fetchEventsFromCalendar(ctx, calID, opts)
		if err != nil {
			o.logger.Warn("calendar fetch failed", zap.String("calendar", calID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		found = append(found, events...)
	}

	if len(errs) > 0 && len(errs) == len(calendarIDs) {
		return nil, errors.Join(errs...)
	}

	results := dedupeByUID(found)
	slices.SortStableFunc(results, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
	return results, nil
}

// defaultCalendar addresses the mailbox's primary calendar view.
const defaultCalendar = "default"

// graphEvent keeps the iCalendar UID next to the converted event so copies
// of one session shared into several calendars can be collapsed.
type graphEvent struct {
	core.Event
	uid string
}

func (o *OutlookAdapter) fetchEventsFromCalendar(ctx context.Context, calendarID string, opts core.FetchOptions) ([]graphEvent, error) {
	startStr := opts.Start.UTC().Format(time.RFC3339)
	endStr := opts.End.UTC().Format(time.RFC3339)
	selectFields := []string{
		"id", "iCalUId", "subject", "body", "start", "end", "location",
		"isAllDay", "isCancelled", "webLink",
	}
	orderBy := []string{"start/dateTime"}
	top := int32(100)

	headers := abstractions.NewRequestHeaders()
	headers.Add("Prefer", `outlook.timezone="UTC"`)

	var result models.EventCollectionResponseable
	var err error

	if calendarID == defaultCalendar {
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

	var results []graphEvent

	pageIterator, err := msgraphcore.NewPageIterator[models.Eventable](
		result,
		o.client.GetAdapter(),
		models.CreateEventCollectionResponseFromDiscriminatorValue,
	)
	if err != nil {
		return nil, fmt.Errorf("create page iterator: %w", err)
	}

	err = pageIterator.Iterate(ctx, func(item models.Eventable) bool {
		if derefBool(item.GetIsCancelled()) {
			return true
		}
		event, err := parseGraphEvent(o.ID(), item)
		if err != nil {
			o.logger.Warn("skipping unparsable event",
				zap.String("id", derefStr(item.GetId())),
				zap.Error(err))
			return true
		}
		results = append(results, graphEvent{Event: event, uid: derefStr(item.GetICalUId())})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return results, nil
}

// parseGraphEvent converts a Graph event into our Event. Times are UTC
// because of the Prefer header set on the request.
func parseGraphEvent(providerID string, item models.Eventable) (core.Event, error) {
	start, err := parseSDKDateTime(item.GetStart())
	if err != nil {
		return core.Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseSDKDateTime(item.GetEnd())
	if err != nil {
		return core.Event{}, fmt.Errorf("end: %w", err)
	}

	event := core.NewEvent(derefStr(item.GetId()), derefStr(item.GetSubject()), start, end)
	event.ProviderID = providerID
	event.URL = derefStr(item.GetWebLink())
	event.IsAllDay = derefBool(item.GetIsAllDay())

	// body.content may be HTML or text
	if body := item.GetBody(); body != nil {
		event.Description = derefStr(body.GetContent())
	}
	if loc := item.GetLocation(); loc != nil {
		event.Location = derefStr(loc.GetDisplayName())
	}
	return event, nil
}

var graphLayouts = []string{
	"2006-01-02T15:04:05.0000000",
	"2006-01-02T15:04:05",
}

func parseSDKDateTime(dt models.DateTimeTimeZoneable) (time.Time, error) {
	if dt == nil || dt.GetDateTime() == nil {
		return time.Time{}, errors.New("missing dateTime")
	}
	value := *dt.GetDateTime()
	for _, layout := range graphLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised dateTime %q", value)
}
