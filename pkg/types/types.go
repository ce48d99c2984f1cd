// Package types contains shared data structures used across the application.
package types

import (
	"fmt"
	"time"
)

// CalendarEvent is a single upcoming calendar entry.
type CalendarEvent struct {
	ID     string
	Title  string
	Start  time.Time
	AllDay bool   // Start carries a date only
	Link   string // optional external link to the event
}

// Key returns the identifier used for completion tracking.
func (e CalendarEvent) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s@%s", e.Title, e.Start.Format(time.RFC3339))
}

// Boundary returns the instant the event begins. All-day events begin at
// local midnight of their date.
func (e CalendarEvent) Boundary() time.Time {
	if e.AllDay {
		y, m, d := e.Start.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}
	return e.Start
}

// ActionKind enumerates the context menu actions.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSnooze
	ActionPostpone
	ActionMarkDone
	ActionOpenCalendar
	ActionCloseSession
	ActionDismiss
)

// String returns a short name for logging.
func (k ActionKind) String() string {
	switch k {
	case ActionSnooze:
		return "snooze"
	case ActionPostpone:
		return "postpone"
	case ActionMarkDone:
		return "mark_done"
	case ActionOpenCalendar:
		return "open_calendar"
	case ActionCloseSession:
		return "close_session"
	case ActionDismiss:
		return "dismiss"
	default:
		return "none"
	}
}

// Action is a menu action selected by the user.
type Action struct {
	Kind     ActionKind
	Duration time.Duration // snooze length for ActionSnooze
}

// MenuItem is a single context menu entry.
type MenuItem struct {
	Label  string
	Action Action
}

// SignalKind enumerates the input signals emitted by the overlay view.
type SignalKind int

const (
	// SignalActivity is qualifying keyboard or mouse input.
	SignalActivity SignalKind = iota
	// SignalMenuGesture is a right click or Alt-modified key.
	SignalMenuGesture
	// SignalAction carries a selected menu action.
	SignalAction
)

// Signal is an input notification from the overlay view.
type Signal struct {
	Kind   SignalKind
	Action Action
}
