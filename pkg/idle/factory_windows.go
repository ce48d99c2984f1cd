//go:build windows
// +build windows

package idle

import (
	"github.com/Veraticus/idlecal/pkg/interfaces"
)

// newPlatformProber creates a Windows-specific idle prober.
func newPlatformProber() interfaces.IdleProber {
	return NewWindowsProber()
}
