//go:build windows
// +build windows

package idle

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetLastInputInfo = user32.NewProc("GetLastInputInfo")
	procGetTickCount     = kernel32.NewProc("GetTickCount")
)

// lastInputInfo mirrors the Win32 LASTINPUTINFO structure.
type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// WindowsProber reads idle time through GetLastInputInfo.
type WindowsProber struct{}

// NewWindowsProber creates a new Windows idle prober.
func NewWindowsProber() *WindowsProber {
	return &WindowsProber{}
}

// IdleTime returns the time since the last input event, or 0 on failure.
func (p *WindowsProber) IdleTime() time.Duration {
	return guard("GetLastInputInfo", p.probe)
}

func (p *WindowsProber) probe() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}

	// #nosec G103 -- Required to pass LASTINPUTINFO to user32
	ret, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, fmt.Errorf("GetLastInputInfo failed: %w", err)
	}

	tick, _, _ := procGetTickCount.Call()

	// Both counters are 32-bit milliseconds; unsigned subtraction survives wrap
	idleMillis := uint32(tick) - info.dwTime
	return time.Duration(idleMillis) * time.Millisecond, nil
}
