package overlay

import (
	"fmt"
	"time"

	"github.com/Veraticus/idlecal/pkg/types"
)

// Urgency grades how soon the next event starts.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
)

// FormatRelative describes how far start is from now, e.g. "in 1h 5m".
func FormatRelative(start, now time.Time) (string, Urgency) {
	delta := start.Sub(now)
	if delta <= time.Second {
		return "starts now", UrgencyHigh
	}

	days := int(delta / (24 * time.Hour))
	hours := int(delta/time.Hour) % 24
	minutes := int(delta/time.Minute) % 60

	switch {
	case days > 1:
		return fmt.Sprintf("in %d days", days), UrgencyLow
	case days == 1:
		return "in 1 day", UrgencyLow
	case hours > 0:
		return fmt.Sprintf("in %dh %dm", hours, minutes), UrgencyMedium
	default:
		return fmt.Sprintf("in %d minutes", minutes), UrgencyHigh
	}
}

// FormatEventTime renders an agenda time: "All Day" or a 12-hour clock.
func FormatEventTime(ev types.CalendarEvent) string {
	if ev.AllDay {
		return "All Day"
	}
	return ev.Start.Local().Format("03:04 PM")
}

// FormatAway renders the idle duration, e.g. "away for 10 seconds".
func FormatAway(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "away for " + plural(int(d/time.Second), "second")
	case d < time.Hour:
		return "away for " + plural(int(d/time.Minute), "minute")
	default:
		h := int(d / time.Hour)
		m := int(d/time.Minute) % 60
		if m == 0 {
			return "away for " + plural(h, "hour")
		}
		return fmt.Sprintf("away for %s %s", plural(h, "hour"), plural(m, "minute"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
