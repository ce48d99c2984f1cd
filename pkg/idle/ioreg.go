package idle

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// parseHIDIdleTime parses the HIDIdleTime from ioreg output.
func parseHIDIdleTime(output []byte) (int64, error) {
	// Look for the HIDIdleTime line in the output
	lines := bytes.Split(output, []byte("\n"))
	for _, line := range lines {
		lineStr := string(bytes.TrimSpace(line))
		if !strings.Contains(lineStr, "HIDIdleTime") {
			continue
		}

		// Format: "HIDIdleTime" = 123456789
		parts := strings.Split(lineStr, "=")
		if len(parts) != 2 {
			continue
		}

		valueStr := strings.TrimSpace(parts[1])
		valueStr = strings.Trim(valueStr, "\"")
		valueStr = strings.TrimSpace(valueStr)

		// Parse as int64 (nanoseconds)
		value, err := strconv.ParseInt(valueStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse idle time value: %w", err)
		}

		return value, nil
	}

	return 0, fmt.Errorf("HIDIdleTime not found in ioreg output")
}
