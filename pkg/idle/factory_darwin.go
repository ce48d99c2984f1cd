//go:build darwin
// +build darwin

package idle

import (
	"github.com/Veraticus/idlecal/pkg/interfaces"
)

// newPlatformProber creates a macOS-specific idle prober.
func newPlatformProber() interfaces.IdleProber {
	return NewDarwinProber()
}
