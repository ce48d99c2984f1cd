package idle

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultProbeTimeout = 2 * time.Second

// CommandProber reads idle time from an external command that prints the
// number of milliseconds since the last input event (xprintidle and
// compatible tools).
type CommandProber struct {
	name        string
	args        []string
	timeout     time.Duration
	cmdExecutor func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandProber creates a new command-backed idle prober.
func NewCommandProber(name string, args ...string) *CommandProber {
	return &CommandProber{
		name:        name,
		args:        args,
		timeout:     defaultProbeTimeout,
		cmdExecutor: defaultCmdExecutor,
	}
}

// defaultCmdExecutor executes a command and returns its output.
func defaultCmdExecutor(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// IdleTime returns the time since the last input, or 0 if the command fails.
func (p *CommandProber) IdleTime() time.Duration {
	return guard(p.name, p.probe)
}

// probe runs the command and parses its output.
func (p *CommandProber) probe() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	output, err := p.cmdExecutor(ctx, p.name, p.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s: %w", p.name, err)
	}

	return parseMilliseconds(output)
}

// IsAvailable checks if the command can be found.
func (p *CommandProber) IsAvailable() bool {
	_, err := lookPath(p.name)
	return err == nil
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// parseMilliseconds parses a single integer or decimal millisecond count.
func parseMilliseconds(output []byte) (time.Duration, error) {
	value := strings.TrimSpace(string(output))
	if value == "" {
		return 0, fmt.Errorf("empty idle time output")
	}

	// Some tools print only the first line we care about
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}

	ms, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse idle time %q: %w", value, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("negative idle time %q", value)
	}

	return time.Duration(ms * float64(time.Millisecond)), nil
}
