package calendar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/Veraticus/idlecal/pkg/log"
)

func newTestGoogleSource(t *testing.T, handler http.HandlerFunc, now time.Time) *GoogleSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := NewGoogleSource(context.Background(), "primary",
		Options{MaxEvents: 10, Timeout: time.Second, Now: func() time.Time { return now }},
		option.WithEndpoint(server.URL+"/calendar/v3/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGoogleSource() error = %v", err)
	}
	return src
}

func TestGoogleSourceFetchUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	var gotQuery map[string]string
	handler := func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		gotQuery = map[string]string{
			"timeMin":      r.URL.Query().Get("timeMin"),
			"maxResults":   r.URL.Query().Get("maxResults"),
			"singleEvents": r.URL.Query().Get("singleEvents"),
			"orderBy":      r.URL.Query().Get("orderBy"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"id":"b","summary":"Standup","htmlLink":"https://calendar.example/b","start":{"dateTime":"2024-03-04T09:30:00Z"}},
			{"id":"a","start":{"dateTime":"2024-03-04T09:00:00Z"}},
			{"id":"c","summary":"Holiday","start":{"date":"2024-03-05"}},
			{"id":"broken","summary":"No start"}
		]}`)
	}

	src := newTestGoogleSource(t, handler, now)
	events := src.FetchUpcoming(context.Background())

	if gotQuery["timeMin"] != "2024-03-04T08:00:00Z" {
		t.Errorf("timeMin = %q, want 2024-03-04T08:00:00Z", gotQuery["timeMin"])
	}
	if gotQuery["maxResults"] != "10" {
		t.Errorf("maxResults = %q, want 10", gotQuery["maxResults"])
	}
	if gotQuery["singleEvents"] != "true" {
		t.Errorf("singleEvents = %q, want true", gotQuery["singleEvents"])
	}
	if gotQuery["orderBy"] != "startTime" {
		t.Errorf("orderBy = %q, want startTime", gotQuery["orderBy"])
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if events[0].ID != "a" || events[0].Title != untitledEvent {
		t.Errorf("events[0] = %+v, want untitled event a", events[0])
	}
	if events[1].Title != "Standup" || events[1].Link != "https://calendar.example/b" {
		t.Errorf("events[1] = %+v, want Standup with link", events[1])
	}
	if !events[2].AllDay {
		t.Errorf("events[2] should be all-day")
	}
	if y, m, d := events[2].Start.Date(); y != 2024 || m != time.March || d != 5 {
		t.Errorf("events[2] date = %d-%d-%d, want 2024-3-5", y, m, d)
	}
}

func TestGoogleSourceErrorsReturnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"error":{"code":403,"message":"forbidden"}}`)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{not json`)
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestGoogleSource(t, tt.handler, time.Now())
			src.opts.Timeout = 50 * time.Millisecond

			events := src.FetchUpcoming(context.Background())
			if events == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(events) != 0 {
				t.Errorf("expected no events, got %d", len(events))
			}
		})
	}
}

func TestGoogleSourceLogsCarrySource(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)

	src := newTestGoogleSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"forbidden"}}`)
	}, time.Now())
	src.FetchUpcoming(context.Background())

	out := buf.String()
	for _, want := range []string{"calendar API error", "source=google", "calendar=primary", "status=403"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %q", want, out)
		}
	}
}

func TestGoogleSourceRespectsMaxEvents(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var items []string
		for i := 0; i < 5; i++ {
			items = append(items, fmt.Sprintf(`{"id":"e%d","summary":"E%d","start":{"dateTime":"2024-03-04T1%d:00:00Z"}}`, i, i, i))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, strings.Join(items, ","))
	}

	src := newTestGoogleSource(t, handler, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	src.opts.MaxEvents = 2

	events := src.FetchUpcoming(context.Background())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "e0" || events[1].ID != "e1" {
		t.Errorf("got %s, %s; want e0, e1", events[0].ID, events[1].ID)
	}
}
