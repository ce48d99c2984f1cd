package idle

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCommandProber_IdleTime(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		err      error
		expected time.Duration
	}{
		{
			name:     "xprintidle milliseconds",
			output:   "10250\n",
			expected: 10250 * time.Millisecond,
		},
		{
			name:     "decimal milliseconds",
			output:   "1500.5",
			expected: 1500*time.Millisecond + 500*time.Microsecond,
		},
		{
			name:     "multi-line output uses first line",
			output:   "42\nextra\n",
			expected: 42 * time.Millisecond,
		},
		{
			name:     "command error",
			err:      fmt.Errorf("couldn't open display"),
			expected: 0,
		},
		{
			name:     "garbage output",
			output:   "idle: unknown",
			expected: 0,
		},
		{
			name:     "empty output",
			output:   "",
			expected: 0,
		},
		{
			name:     "negative output",
			output:   "-5",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := NewCommandProber("xprintidle")
			prober.cmdExecutor = func(_ context.Context, name string, _ ...string) ([]byte, error) {
				if name != "xprintidle" {
					t.Errorf("executed %q, want xprintidle", name)
				}
				if tt.err != nil {
					return nil, tt.err
				}
				return []byte(tt.output), nil
			}

			if got := prober.IdleTime(); got != tt.expected {
				t.Errorf("IdleTime() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCommandProber_PassesArgsAndDeadline(t *testing.T) {
	prober := NewCommandProber("probe", "-a", "-b")

	var gotArgs []string
	var hadDeadline bool
	prober.cmdExecutor = func(ctx context.Context, _ string, args ...string) ([]byte, error) {
		gotArgs = args
		_, hadDeadline = ctx.Deadline()
		return []byte("1000"), nil
	}

	if got := prober.IdleTime(); got != time.Second {
		t.Errorf("IdleTime() = %v, want 1s", got)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "-a" || gotArgs[1] != "-b" {
		t.Errorf("args = %v, want [-a -b]", gotArgs)
	}
	if !hadDeadline {
		t.Error("expected probe context to carry a deadline")
	}
}

func TestCommandProber_IsAvailable(t *testing.T) {
	prober := NewCommandProber("definitely-not-a-real-idle-command")
	if prober.IsAvailable() {
		t.Error("IsAvailable() = true for a missing command")
	}
}
