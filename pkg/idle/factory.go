// Package idle provides the OS idle-time probes used to decide when the user
// has stepped away.
package idle

import (
	"strings"
	"time"

	"github.com/Veraticus/idlecal/pkg/interfaces"
	"github.com/Veraticus/idlecal/pkg/log"
)

// NewProber creates a platform-appropriate idle prober.
// It returns:
// - a CommandProber running command when command is non-empty
//   (ZeroProber with a warning if the command is not on PATH)
// - WindowsProber on Windows (GetLastInputInfo)
// - a CommandProber running xprintidle on Linux, checked the same way
// - DarwinProber on macOS (using ioreg)
// - ZeroProber on other platforms.
func NewProber(command string) interfaces.IdleProber {
	if fields := strings.Fields(command); len(fields) > 0 {
		return requireCommand(NewCommandProber(fields[0], fields[1:]...))
	}
	return newPlatformProber()
}

// requireCommand falls back to ZeroProber, with a warning, when the
// prober's command is not on PATH.
func requireCommand(p *CommandProber) interfaces.IdleProber {
	if !p.IsAvailable() {
		log.Warn("idle command not found; the overlay will never show until it is installed or idle_command is set",
			"command", p.name)
		return ZeroProber{}
	}
	return p
}

// ZeroProber never reports idle time. It is used where no OS probe exists.
type ZeroProber struct{}

// IdleTime always returns 0.
func (ZeroProber) IdleTime() time.Duration {
	return 0
}

// probeFunc measures idle time and may fail.
type probeFunc func() (time.Duration, error)

// guard adapts a failing probe to the IdleProber contract: failures are
// logged and reported as zero idle time.
func guard(name string, probe probeFunc) time.Duration {
	d, err := probe()
	if err != nil {
		log.Debug("idle probe failed", "prober", name, "error", err)
		return 0
	}
	if d < 0 {
		// Handle clock skew or tick counter wrap
		return 0
	}
	return d
}
