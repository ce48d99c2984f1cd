package controller

import (
	"testing"
	"time"
)

func TestSuppressed(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		s             Suppression
		want          bool
		wantPostponed bool
	}{
		{name: "empty", s: NewSuppression(), want: false},
		{name: "session closed", s: Suppression{SessionClosed: true}, want: true},
		{name: "snooze pending", s: Suppression{SnoozeUntil: now.Add(time.Minute)}, want: true},
		{name: "snooze expired", s: Suppression{SnoozeUntil: now}, want: false},
		{
			name:          "postpone pending",
			s:             Suppression{Postponed: true, PostponeUntil: now.Add(time.Second)},
			want:          true,
			wantPostponed: true,
		},
		{
			name:          "postpone reached",
			s:             Suppression{Postponed: true, PostponeUntil: now},
			want:          false,
			wantPostponed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.s
			if got := s.Suppressed(now); got != tt.want {
				t.Errorf("Suppressed() = %v, want %v", got, tt.want)
			}
			if s.Postponed != tt.wantPostponed {
				t.Errorf("Postponed = %v, want %v", s.Postponed, tt.wantPostponed)
			}
		})
	}
}

func TestCompletedOnlyGrows(t *testing.T) {
	var s Suppression

	s.MarkCompleted("a")
	s.MarkCompleted("b")
	s.MarkCompleted("a")

	if len(s.Completed) != 2 {
		t.Errorf("completed = %d, want 2", len(s.Completed))
	}
	if !s.IsCompleted("a") || !s.IsCompleted("b") || s.IsCompleted("c") {
		t.Errorf("unexpected completion set %v", s.Completed)
	}
}

func TestIgnoringActivity(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Suppression{IgnoreActivityUntil: now.Add(3 * time.Second)}

	if !s.IgnoringActivity(now.Add(2 * time.Second)) {
		t.Error("expected activity ignored inside grace")
	}
	if s.IgnoringActivity(now.Add(3 * time.Second)) {
		t.Error("grace should end at its boundary")
	}
}
