package controller

import "time"

// Suppression holds the menu-driven conditions that keep the overlay from
// appearing. It lives for the lifetime of the process.
type Suppression struct {
	SnoozeUntil         time.Time
	Postponed           bool
	PostponeUntil       time.Time
	SessionClosed       bool
	Completed           map[string]struct{}
	IgnoreActivityUntil time.Time
}

// NewSuppression returns an empty suppression state.
func NewSuppression() Suppression {
	return Suppression{Completed: make(map[string]struct{})}
}

// Suppressed reports whether the idle check should be skipped at now. An
// expired postponement is cleared as a side effect.
func (s *Suppression) Suppressed(now time.Time) bool {
	if s.SessionClosed {
		return true
	}
	if now.Before(s.SnoozeUntil) {
		return true
	}
	if s.Postponed && !now.Before(s.PostponeUntil) {
		s.Postponed = false
		s.PostponeUntil = time.Time{}
	}
	return s.Postponed
}

// IgnoringActivity reports whether activity is inside the menu grace window.
func (s *Suppression) IgnoringActivity(now time.Time) bool {
	return now.Before(s.IgnoreActivityUntil)
}

// MarkCompleted records key as done. Completed only grows.
func (s *Suppression) MarkCompleted(key string) {
	if s.Completed == nil {
		s.Completed = make(map[string]struct{})
	}
	s.Completed[key] = struct{}{}
}

// IsCompleted reports whether key was marked done.
func (s *Suppression) IsCompleted(key string) bool {
	_, ok := s.Completed[key]
	return ok
}
