package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//idlecal//test//EN
BEGIN:VEVENT
UID:past
DTSTART:20240301T090000Z
DTEND:20240301T100000Z
SUMMARY:Already over
END:VEVENT
BEGIN:VEVENT
UID:ongoing
DTSTART:20240304T073000Z
DTEND:20240304T083000Z
SUMMARY:In progress
END:VEVENT
BEGIN:VEVENT
UID:review
DTSTART:20240304T150000Z
DTEND:20240304T160000Z
SUMMARY:Design review
URL:https://meet.example/review
END:VEVENT
BEGIN:VEVENT
UID:daily
DTSTART:20240301T100000Z
DTEND:20240301T101500Z
RRULE:FREQ=DAILY;COUNT=10
EXDATE:20240305T100000Z
SUMMARY:Daily sync
END:VEVENT
BEGIN:VEVENT
UID:daily
RECURRENCE-ID:20240306T100000Z
DTSTART:20240306T113000Z
DTEND:20240306T114500Z
SUMMARY:Daily sync (moved)
END:VEVENT
BEGIN:VEVENT
UID:daily
RECURRENCE-ID:20240307T100000Z
DTSTART:20240307T120000Z
DTEND:20240307T121500Z
SUMMARY:Daily sync (moved again)
END:VEVENT
BEGIN:VEVENT
UID:planning
DTSTART:20240304T170000Z
DTEND:20240304T180000Z
SUMMARY:Planning
DESCRIPTION:Agenda in the doc.\nJoin: https://meet.example/planning\nThanks
END:VEVENT
BEGIN:VEVENT
UID:holiday
DTSTART;VALUE=DATE:20240308
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
UID:untitled
DTSTART:20240304T120000Z
END:VEVENT
END:VCALENDAR
`

func TestParseFeed(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	events, err := parseFeed([]byte(strings.ReplaceAll(testFeed, "\n", "\r\n")), now)
	if err != nil {
		t.Fatalf("parseFeed() error = %v", err)
	}
	events = sortAndTrim(events, 100)

	byID := make(map[string]int)
	for i, ev := range events {
		byID[ev.ID] = i
	}

	if _, ok := byID["past"]; ok {
		t.Error("finished event should be dropped")
	}
	if _, ok := byID["ongoing"]; !ok {
		t.Error("event in progress should be kept")
	}
	if i, ok := byID["review"]; !ok {
		t.Error("expected review event")
	} else if events[i].Link != "https://meet.example/review" {
		t.Errorf("review link = %q", events[i].Link)
	}
	if i, ok := byID["untitled"]; !ok {
		t.Error("expected untitled event")
	} else if events[i].Title != untitledEvent {
		t.Errorf("untitled title = %q, want %q", events[i].Title, untitledEvent)
	}

	if _, ok := byID["daily_20240304T100000Z"]; !ok {
		t.Error("expected daily occurrence on 2024-03-04")
	}
	if _, ok := byID["daily_20240305T100000Z"]; ok {
		t.Error("EXDATE occurrence should be excluded")
	}
	if i, ok := byID["planning"]; !ok {
		t.Error("expected planning event")
	} else if events[i].Link != "https://meet.example/planning" {
		t.Errorf("planning link = %q, want link from description", events[i].Link)
	}
	if _, ok := byID["daily_20240303T100000Z"]; ok {
		t.Error("past occurrence should be dropped")
	}

	moved := []struct {
		id    string
		title string
		start time.Time
	}{
		{"daily_20240306T100000Z", "Daily sync (moved)", time.Date(2024, 3, 6, 11, 30, 0, 0, time.UTC)},
		{"daily_20240307T100000Z", "Daily sync (moved again)", time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)},
	}
	for _, m := range moved {
		i, ok := byID[m.id]
		if !ok {
			t.Errorf("expected moved instance %s", m.id)
			continue
		}
		if events[i].Title != m.title || !events[i].Start.Equal(m.start) {
			t.Errorf("%s = %q at %v, want %q at %v", m.id, events[i].Title, events[i].Start, m.title, m.start)
		}
	}

	keys := make(map[string]string)
	for _, ev := range events {
		if prev, ok := keys[ev.Key()]; ok {
			t.Errorf("key %q shared by %q and %q", ev.Key(), prev, ev.Title)
		}
		keys[ev.Key()] = ev.Title
	}

	if i, ok := byID["holiday"]; !ok {
		t.Error("expected all-day holiday")
	} else {
		h := events[i]
		if !h.AllDay {
			t.Error("holiday should be all-day")
		}
		if y, m, d := h.Start.Date(); y != 2024 || m != time.March || d != 8 {
			t.Errorf("holiday date = %d-%d-%d", y, m, d)
		}
	}

	for i := 1; i < len(events); i++ {
		if events[i].Boundary().Before(events[i-1].Boundary()) {
			t.Fatalf("events not sorted at %d: %v before %v", i, events[i].Boundary(), events[i-1].Boundary())
		}
	}
}

func TestParseICSTime(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		params     map[string][]string
		wantAllDay bool
		wantUTC    string
		wantErr    bool
	}{
		{name: "utc", value: "20240304T150000Z", wantUTC: "2024-03-04T15:00:00Z"},
		{name: "zoned", value: "20240304T150000", params: map[string][]string{"TZID": {"Europe/Berlin"}}, wantUTC: "2024-03-04T14:00:00Z"},
		{name: "date only", value: "20240304", wantAllDay: true},
		{name: "value date", value: "20240304", params: map[string][]string{"VALUE": {"date"}}, wantAllDay: true},
		{name: "garbage", value: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allDay, err := parseICSTime(tt.value, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseICSTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if allDay != tt.wantAllDay {
				t.Errorf("allDay = %v, want %v", allDay, tt.wantAllDay)
			}
			if tt.wantUTC != "" && got.UTC().Format(time.RFC3339) != tt.wantUTC {
				t.Errorf("time = %s, want %s", got.UTC().Format(time.RFC3339), tt.wantUTC)
			}
		})
	}
}

func TestDescriptionLink(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want string
	}{
		{name: "empty", desc: "", want: ""},
		{name: "no link", desc: "Bring slides", want: ""},
		{name: "escaped newlines", desc: `Agenda\nJoin: https://meet.example/a\nThanks`, want: "https://meet.example/a"},
		{name: "trailing punctuation", desc: "See http://wiki.example/page.", want: "http://wiki.example/page"},
		{name: "first link wins", desc: "https://one.example https://two.example", want: "https://one.example"},
		{name: "html anchor", desc: `<a href="https://meet.example/b">join</a>`, want: "https://meet.example/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := descriptionLink(tt.desc); got != tt.want {
				t.Errorf("descriptionLink(%q) = %q, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestICSSourceFetchUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/calendar")
			fmt.Fprint(w, strings.ReplaceAll(testFeed, "\n", "\r\n"))
		}))
		defer server.Close()

		src := NewICSSource(server.URL, server.Client(), Options{MaxEvents: 3, Now: func() time.Time { return now }})
		events := src.FetchUpcoming(context.Background())
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
		if events[0].ID != "ongoing" {
			t.Errorf("first event = %s, want ongoing", events[0].ID)
		}
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusGone)
		}))
		defer server.Close()

		src := NewICSSource(server.URL, server.Client(), Options{Now: func() time.Time { return now }})
		events := src.FetchUpcoming(context.Background())
		if events == nil || len(events) != 0 {
			t.Errorf("expected empty slice, got %v", events)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		src := NewICSSource("http://127.0.0.1:1/feed.ics", nil, Options{Timeout: 200 * time.Millisecond})
		events := src.FetchUpcoming(context.Background())
		if events == nil || len(events) != 0 {
			t.Errorf("expected empty slice, got %v", events)
		}
	})
}
