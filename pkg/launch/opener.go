// Package launch hands URLs to the operating system's default handler.
package launch

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/Veraticus/idlecal/pkg/log"
)

// Opener opens links with the platform opener command.
type Opener struct {
	goos       string
	cmdStarter func(name string, args ...string) error
}

// NewOpener creates an opener for the running platform.
func NewOpener() *Opener {
	return &Opener{
		goos:       runtime.GOOS,
		cmdStarter: defaultCmdStarter,
	}
}

// defaultCmdStarter starts a command without waiting for the handler to exit.
func defaultCmdStarter(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Open launches rawURL. Only http and https links are accepted.
func (o *Opener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: unsupported scheme", rawURL)
	}

	name, args := command(o.goos, u.String())
	if name == "" {
		return fmt.Errorf("no link opener for %s", o.goos)
	}

	log.Debug("opening link", "url", u.String(), "command", name)
	if err := o.cmdStarter(name, args...); err != nil {
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	return nil
}

// command returns the opener invocation for goos.
func command(goos, link string) (string, []string) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{link}
	case "darwin":
		return "open", []string{link}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		return "", nil
	}
}
