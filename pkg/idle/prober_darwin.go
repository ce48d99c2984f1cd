//go:build darwin
// +build darwin

package idle

import (
	"context"
	"fmt"
	"time"
)

// DarwinProber implements idle probing for macOS systems using ioreg.
type DarwinProber struct {
	timeout     time.Duration
	cmdExecutor func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDarwinProber creates a new Darwin (macOS) idle prober.
func NewDarwinProber() *DarwinProber {
	return &DarwinProber{
		timeout:     defaultProbeTimeout,
		cmdExecutor: defaultCmdExecutor,
	}
}

// IdleTime returns the HID idle time, or 0 if ioreg fails.
func (d *DarwinProber) IdleTime() time.Duration {
	return guard("ioreg", d.getSystemIdleTime)
}

// getSystemIdleTime retrieves the system idle time using ioreg.
func (d *DarwinProber) getSystemIdleTime() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	output, err := d.cmdExecutor(ctx, "ioreg", "-c", "IOHIDSystem", "-d", "4")
	if err != nil {
		return 0, fmt.Errorf("failed to execute ioreg: %w", err)
	}

	idleNanos, err := parseHIDIdleTime(output)
	if err != nil {
		return 0, fmt.Errorf("failed to parse HIDIdleTime: %w", err)
	}

	return time.Duration(idleNanos), nil
}
