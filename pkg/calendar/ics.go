package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/Veraticus/idlecal/pkg/log"
	"github.com/Veraticus/idlecal/pkg/types"
)

const (
	// icsHorizon bounds recurrence expansion.
	icsHorizon = 366 * 24 * time.Hour
	// maxICSBody caps the feed size read from the network.
	maxICSBody = 10 << 20
)

// ICSSource reads events from an iCalendar feed URL.
type ICSSource struct {
	url    string
	client *http.Client
	opts   Options
}

// NewICSSource creates a feed source. A nil client gets one with the fetch
// timeout.
func NewICSSource(url string, client *http.Client, opts Options) *ICSSource {
	opts = opts.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &ICSSource{url: url, client: client, opts: opts}
}

// FetchUpcoming downloads the feed and expands it into upcoming occurrences.
func (s *ICSSource) FetchUpcoming(ctx context.Context) []types.CalendarEvent {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	logger := log.With("source", "ics")
	logger.Debug("calendar fetch start")

	body, err := s.download(ctx)
	if err != nil {
		logger.Error("calendar fetch failed", "error", err)
		return []types.CalendarEvent{}
	}

	events, err := parseFeed(body, s.opts.Now())
	if err != nil {
		logger.Error("calendar parse failed", "error", err)
		return []types.CalendarEvent{}
	}

	events = sortAndTrim(events, s.opts.MaxEvents)
	logger.Debug("calendar fetch success", "event_count", len(events))
	return events
}

func (s *ICSSource) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxICSBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// parseFeed returns every occurrence that has not ended by now and starts
// within the expansion horizon.
func parseFeed(body []byte, now time.Time) ([]types.CalendarEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	// Moved or edited instances of a series, keyed by UID then original start.
	overrides := make(map[string][]time.Time)
	for _, ve := range cal.Events() {
		rid := ve.GetProperty("RECURRENCE-ID")
		if rid == nil {
			continue
		}
		t, _, err := parseICSTime(rid.Value, rid.ICalParameters)
		if err != nil {
			continue
		}
		uid := propValue(ve, ical.ComponentPropertyUniqueId)
		overrides[uid] = append(overrides[uid], t)
	}

	until := now.Add(icsHorizon)
	var out []types.CalendarEvent
	for _, ve := range cal.Events() {
		occ, err := expandEvent(ve, now, until, overrides)
		if err != nil {
			log.Warn("skipping calendar event", "uid", propValue(ve, ical.ComponentPropertyUniqueId), "error", err)
			continue
		}
		out = append(out, occ...)
	}
	return out, nil
}

func expandEvent(ve *ical.VEvent, now, until time.Time, overrides map[string][]time.Time) ([]types.CalendarEvent, error) {
	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return nil, fmt.Errorf("missing DTSTART")
	}
	start, allDay, err := parseICSTime(dtstart.Value, dtstart.ICalParameters)
	if err != nil {
		return nil, fmt.Errorf("invalid DTSTART: %w", err)
	}

	duration := eventDuration(ve, start, allDay)
	base := types.CalendarEvent{
		ID:     propValue(ve, ical.ComponentPropertyUniqueId),
		Title:  propValue(ve, ical.ComponentPropertySummary),
		AllDay: allDay,
		Link:   propValue(ve, "URL"),
	}
	if base.Link == "" {
		base.Link = descriptionLink(propValue(ve, ical.ComponentPropertyDescription))
	}
	if base.Title == "" {
		base.Title = untitledEvent
	}

	// Occurrences still in progress at now are kept.
	from := now.Add(-duration)

	rule := ve.GetProperty(ical.ComponentPropertyRrule)
	rid := ve.GetProperty("RECURRENCE-ID")
	if rule == nil || rid != nil {
		if start.Before(from) || !start.Before(until) {
			return nil, nil
		}
		ev := base
		ev.Start = start
		if rid != nil {
			original, _, err := parseICSTime(rid.Value, rid.ICalParameters)
			if err != nil {
				return nil, fmt.Errorf("invalid RECURRENCE-ID: %w", err)
			}
			ev.ID = occurrenceID(base.ID, original)
		}
		return []types.CalendarEvent{ev}, nil
	}

	r, err := rrule.StrToRRule(rule.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid RRULE %q: %w", rule.Value, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, prop := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, raw := range strings.Split(prop.Value, ",") {
			t, _, err := parseICSTime(strings.TrimSpace(raw), prop.ICalParameters)
			if err != nil {
				continue
			}
			set.ExDate(t)
		}
	}
	for _, t := range overrides[base.ID] {
		set.ExDate(t)
	}

	var out []types.CalendarEvent
	for _, t := range set.Between(from, until, true) {
		ev := base
		ev.Start = t
		ev.ID = occurrenceID(base.ID, t)
		out = append(out, ev)
	}
	return out, nil
}

// occurrenceID identifies one instance of a series by its original start,
// so a moved instance keeps the key it would have had in place.
func occurrenceID(uid string, original time.Time) string {
	return fmt.Sprintf("%s_%s", uid, original.UTC().Format("20060102T150405Z"))
}

// descriptionLink returns the first http or https URL in a DESCRIPTION.
func descriptionLink(desc string) string {
	for _, field := range strings.Fields(desc) {
		i := strings.Index(field, "https://")
		if j := strings.Index(field, "http://"); j >= 0 && (i < 0 || j < i) {
			i = j
		}
		if i < 0 {
			continue
		}
		link := field[i:]
		if end := strings.IndexAny(link, "\\\"<>"); end >= 0 {
			link = link[:end]
		}
		return strings.TrimRight(link, ".,;)")
	}
	return ""
}

// eventDuration reads DTEND or DURATION; all-day events default to a day.
func eventDuration(ve *ical.VEvent, start time.Time, allDay bool) time.Duration {
	if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil {
		if t, _, err := parseICSTime(end.Value, end.ICalParameters); err == nil && t.After(start) {
			return t.Sub(start)
		}
	}
	if allDay {
		return 24 * time.Hour
	}
	return 0
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// parseICSTime handles UTC, zoned, floating and date-only values. Floating
// and date-only values are read in local time.
func parseICSTime(value string, params map[string][]string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	allDay := !strings.Contains(value, "T")
	if vals, ok := params["VALUE"]; ok && len(vals) > 0 && strings.EqualFold(vals[0], "DATE") {
		allDay = true
	}

	if allDay {
		t, err := time.ParseInLocation("20060102", value, time.Local)
		return t, true, err
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		return t, false, err
	}

	loc := time.Local
	if tzids, ok := params["TZID"]; ok && len(tzids) > 0 {
		if l, err := time.LoadLocation(tzids[0]); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	return t, false, err
}
