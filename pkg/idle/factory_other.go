//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package idle

import (
	"github.com/Veraticus/idlecal/pkg/interfaces"
)

// newPlatformProber creates a fallback prober for unsupported platforms.
func newPlatformProber() interfaces.IdleProber {
	return ZeroProber{}
}
