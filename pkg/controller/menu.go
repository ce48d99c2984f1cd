package controller

import (
	"fmt"
	"time"

	"github.com/Veraticus/idlecal/pkg/types"
)

// buildMenu lists the actions that apply to the current agenda.
func (c *Controller) buildMenu() []types.MenuItem {
	var items []types.MenuItem

	for _, d := range c.cfg.SnoozeOptions {
		items = append(items, types.MenuItem{
			Label:  snoozeLabel(d),
			Action: types.Action{Kind: types.ActionSnooze, Duration: d},
		})
	}

	items = append(items, types.MenuItem{
		Label:  "Postpone until next event",
		Action: types.Action{Kind: types.ActionPostpone},
	})

	if first, ok := c.firstEvent(); ok {
		items = append(items, types.MenuItem{
			Label:  fmt.Sprintf("Mark %q done", first.Title),
			Action: types.Action{Kind: types.ActionMarkDone},
		})
		if first.Link != "" {
			items = append(items, types.MenuItem{
				Label:  "Open in calendar",
				Action: types.Action{Kind: types.ActionOpenCalendar},
			})
		}
	}

	items = append(items,
		types.MenuItem{
			Label:  "Close for this session",
			Action: types.Action{Kind: types.ActionCloseSession},
		},
		types.MenuItem{
			Label:  "Dismiss",
			Action: types.Action{Kind: types.ActionDismiss},
		},
	)

	return items
}

func snoozeLabel(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "Snooze 1 hour"
		}
		return fmt.Sprintf("Snooze %d hours", hours)
	case d%time.Minute == 0:
		return fmt.Sprintf("Snooze %d min", int(d/time.Minute))
	default:
		return "Snooze " + d.String()
	}
}
