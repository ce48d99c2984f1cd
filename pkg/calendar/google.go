package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Veraticus/idlecal/pkg/log"
	"github.com/Veraticus/idlecal/pkg/types"
)

const untitledEvent = "No Title"

// GoogleSource lists events from one Google calendar.
type GoogleSource struct {
	service    *gcal.Service
	calendarID string
	opts       Options
}

// NewGoogleSource creates a Google Calendar source. clientOpts carry the
// credentials, typically option.WithTokenSource.
func NewGoogleSource(ctx context.Context, calendarID string, opts Options, clientOpts ...option.ClientOption) (*GoogleSource, error) {
	service, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleSource{
		service:    service,
		calendarID: calendarID,
		opts:       opts.withDefaults(),
	}, nil
}

// FetchUpcoming lists the next events, expanding recurring events into
// single instances.
func (s *GoogleSource) FetchUpcoming(ctx context.Context) []types.CalendarEvent {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	now := s.opts.Now()
	logger := log.With("source", "google", "calendar", s.calendarID)
	logger.Debug("calendar fetch start")

	res, err := s.service.Events.List(s.calendarID).
		TimeMin(now.UTC().Format(time.RFC3339)).
		MaxResults(int64(s.opts.MaxEvents)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			logger.Error("calendar API error", "status", apiErr.Code, "error", apiErr.Message)
		} else {
			logger.Error("calendar fetch failed", "error", err)
		}
		return []types.CalendarEvent{}
	}

	events := make([]types.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		ev, err := convertGoogleEvent(item)
		if err != nil {
			logger.Warn("skipping calendar event", "id", item.Id, "error", err)
			continue
		}
		events = append(events, ev)
	}

	logger.Debug("calendar fetch success", "event_count", len(events))
	return sortAndTrim(events, s.opts.MaxEvents)
}

// convertGoogleEvent maps an API event. Timed events carry start.dateTime,
// all-day events carry start.date.
func convertGoogleEvent(item *gcal.Event) (types.CalendarEvent, error) {
	if item.Start == nil {
		return types.CalendarEvent{}, errors.New("event has no start")
	}

	ev := types.CalendarEvent{
		ID:    item.Id,
		Title: item.Summary,
		Link:  item.HtmlLink,
	}
	if ev.Title == "" {
		ev.Title = untitledEvent
	}

	switch {
	case item.Start.DateTime != "":
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return types.CalendarEvent{}, fmt.Errorf("invalid start %q: %w", item.Start.DateTime, err)
		}
		ev.Start = start
	case item.Start.Date != "":
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
		if err != nil {
			return types.CalendarEvent{}, fmt.Errorf("invalid start date %q: %w", item.Start.Date, err)
		}
		ev.Start = start
		ev.AllDay = true
	default:
		return types.CalendarEvent{}, errors.New("event start is empty")
	}

	return ev, nil
}
