//go:build linux
// +build linux

package idle

import (
	"github.com/Veraticus/idlecal/pkg/interfaces"
)

// newPlatformProber creates a Linux idle prober backed by xprintidle,
// which reads the X11 screensaver extension.
func newPlatformProber() interfaces.IdleProber {
	return requireCommand(NewCommandProber("xprintidle"))
}
