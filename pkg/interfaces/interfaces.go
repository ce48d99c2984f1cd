// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"context"
	"time"

	"github.com/Veraticus/idlecal/pkg/types"
)

// IdleProber reports how long the user has been inactive.
// Implementations return 0 when the measurement fails.
type IdleProber interface {
	IdleTime() time.Duration
}

// EventSource lists upcoming calendar events, soonest first.
// Implementations return an empty slice on failure.
type EventSource interface {
	FetchUpcoming(ctx context.Context) []types.CalendarEvent
}

// OverlayView presents the overlay and reports user input.
type OverlayView interface {
	Show() error
	Hide() error
	IsVisible() bool
	UpdateEvents(events []types.CalendarEvent)
	UpdateIdleTimer(idle time.Duration)
	ShowMenu(items []types.MenuItem)
	Signals() <-chan types.Signal
}

// LinkOpener hands a URL to the operating system.
type LinkOpener interface {
	Open(url string) error
}
