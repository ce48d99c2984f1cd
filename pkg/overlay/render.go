package overlay

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
)

var (
	clockStyle   = color.New(color.Bold, color.FgHiWhite)
	dateStyle    = color.New(color.FgWhite)
	headingStyle = color.New(color.Bold, color.FgHiCyan)
	titleStyle   = color.New(color.Bold, color.FgHiWhite)
	faintStyle   = color.New(color.Faint, color.FgWhite)
	awayStyle    = color.New(color.Faint, color.Italic)
	menuKeyStyle = color.New(color.Bold, color.FgHiYellow)

	urgencyStyles = map[Urgency]*color.Color{
		UrgencyHigh:   color.New(color.Bold, color.FgHiRed),
		UrgencyMedium: color.New(color.FgHiYellow),
		UrgencyLow:    color.New(color.FgHiGreen),
	}
)

const (
	checkingText = "Checking calendar..."
	noEventsText = "No upcoming events"
)

type line struct {
	text  string
	style *color.Color
}

// lines builds the overlay content. Callers hold t.mu.
func (t *Terminal) lines(now time.Time) []line {
	out := []line{
		{now.Format(t.timeFormat), clockStyle},
		{now.Format("Monday, January 02"), dateStyle},
		{},
		{"NEXT EVENT", headingStyle},
	}

	switch {
	case !t.loaded:
		out = append(out, line{checkingText, titleStyle})
	case len(t.events) == 0:
		out = append(out, line{noEventsText, titleStyle})
	default:
		next := t.events[0]
		rel, urgency := FormatRelative(next.Boundary(), now)
		out = append(out,
			line{next.Title, titleStyle},
			line{rel, urgencyStyles[urgency]},
		)

		end := 1 + t.agendaSize
		if end > len(t.events) {
			end = len(t.events)
		}
		if agenda := t.events[1:end]; len(agenda) > 0 {
			out = append(out, line{}, line{"LATER TODAY", headingStyle})
			for _, ev := range agenda {
				out = append(out, line{fmt.Sprintf("%-8s  %s", FormatEventTime(ev), ev.Title), faintStyle})
			}
		}
	}

	out = append(out, line{}, line{FormatAway(t.idle), awayStyle})

	if len(t.menu) > 0 {
		out = append(out, line{})
		for i, item := range t.menu {
			out = append(out, line{text: fmt.Sprintf("%d  %s", i+1, item.Label)})
		}
		out = append(out, line{"Esc  close menu", faintStyle})
	}

	return out
}

// frame renders a full screen, each line centered.
func (t *Terminal) frame(now time.Time) string {
	width, height := t.size()
	lines := t.lines(now)

	var b strings.Builder
	b.WriteString("\033[H\033[2J")

	top := (height-len(lines))/2 + 1
	if top < 1 {
		top = 1
	}

	for i, l := range lines {
		if l.text == "" {
			continue
		}
		col := (width-utf8.RuneCountInString(l.text))/2 + 1
		if col < 1 {
			col = 1
		}
		fmt.Fprintf(&b, "\033[%d;%dH", top+i, col)
		b.WriteString(t.styled(l))
	}

	return b.String()
}

func (t *Terminal) styled(l line) string {
	if l.style != nil {
		return l.style.Sprint(l.text)
	}
	// Menu entries: highlight the number.
	if num, rest, ok := strings.Cut(l.text, "  "); ok {
		return menuKeyStyle.Sprint(num) + "  " + rest
	}
	return l.text
}
