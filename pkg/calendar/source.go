// Package calendar implements the event sources that feed the overlay's
// agenda.
//
// Every source honors the same contract: FetchUpcoming returns at most
// MaxEvents upcoming events, soonest first, and returns an empty slice
// (never an error) when anything goes wrong. Failures are logged.
package calendar

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Veraticus/idlecal/pkg/interfaces"
	"github.com/Veraticus/idlecal/pkg/types"
)

const (
	defaultMaxEvents = 10
	defaultTimeout   = 10 * time.Second
)

// Options are shared by all sources.
type Options struct {
	// MaxEvents caps the number of returned events.
	MaxEvents int
	// Timeout bounds a single fetch.
	Timeout time.Duration
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxEvents <= 0 {
		o.MaxEvents = defaultMaxEvents
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// sortAndTrim orders events soonest first and truncates to max.
func sortAndTrim(events []types.CalendarEvent, max int) []types.CalendarEvent {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Boundary().Before(events[j].Boundary())
	})
	if len(events) > max {
		events = events[:max]
	}
	return events
}

// Shared collapses concurrent fetches into one call to the wrapped source.
type Shared struct {
	source interfaces.EventSource
	group  singleflight.Group
}

// NewShared wraps source.
func NewShared(source interfaces.EventSource) *Shared {
	return &Shared{source: source}
}

// FetchUpcoming joins an in-flight fetch or starts a new one. A caller whose
// context ends first gets an empty slice; the shared fetch keeps running
// for the others.
func (s *Shared) FetchUpcoming(ctx context.Context) []types.CalendarEvent {
	ch := s.group.DoChan("upcoming", func() (interface{}, error) {
		// Detach from the first caller so its cancellation does not abort
		// the fetch for callers that joined later.
		return s.source.FetchUpcoming(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		events, _ := res.Val.([]types.CalendarEvent)
		out := make([]types.CalendarEvent, len(events))
		copy(out, events)
		return out
	case <-ctx.Done():
		return []types.CalendarEvent{}
	}
}
