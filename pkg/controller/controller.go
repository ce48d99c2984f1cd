// Package controller runs the idle state machine that shows and hides the
// calendar overlay.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Veraticus/idlecal/pkg/config"
	"github.com/Veraticus/idlecal/pkg/interfaces"
	"github.com/Veraticus/idlecal/pkg/log"
	"github.com/Veraticus/idlecal/pkg/types"
)

// State is the controller state.
type State int

const (
	// StateActive means the overlay is hidden and the user is around.
	StateActive State = iota
	// StateOverlaid means the overlay is visible.
	StateOverlaid
)

func (s State) String() string {
	if s == StateOverlaid {
		return "overlaid"
	}
	return "active"
}

type fetchResult struct {
	generation uint64
	events     []types.CalendarEvent
}

// Controller owns the overlay state. All fields are confined to the
// goroutine running Run.
type Controller struct {
	cfg      *config.Config
	schedule cron.Schedule
	prober   interfaces.IdleProber
	source   interfaces.EventSource
	view     interfaces.OverlayView
	opener   interfaces.LinkOpener
	now      func() time.Time

	state       State
	suppression Suppression
	events      []types.CalendarEvent

	// generation changes on every show and hide so fetches started for an
	// earlier overlay are dropped.
	generation   uint64
	fetched      chan fetchResult
	fetchCtx     context.Context
	refreshTimer *time.Timer
	nextRefresh  time.Time
}

// New creates a controller. opener may be nil, in which case "open in
// calendar" is a no-op.
func New(cfg *config.Config, prober interfaces.IdleProber, source interfaces.EventSource, view interfaces.OverlayView, opener interfaces.LinkOpener) (*Controller, error) {
	schedule, err := cfg.RefreshSchedule()
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule: %w", err)
	}

	return &Controller{
		cfg:         cfg,
		schedule:    schedule,
		prober:      prober,
		source:      source,
		view:        view,
		opener:      opener,
		now:         time.Now,
		suppression: NewSuppression(),
		fetched:     make(chan fetchResult),
		fetchCtx:    context.Background(),
	}, nil
}

// State returns the current state. Only safe from the Run goroutine or
// when Run is not executing.
func (c *Controller) State() State {
	return c.state
}

// Suppression returns a copy of the suppression state.
func (c *Controller) Suppression() Suppression {
	s := c.suppression
	s.Completed = make(map[string]struct{}, len(c.suppression.Completed))
	for k := range c.suppression.Completed {
		s.Completed[k] = struct{}{}
	}
	return s
}

// Run polls idle time and reacts to view signals until ctx is cancelled.
// The overlay is hidden on return.
func (c *Controller) Run(ctx context.Context) error {
	c.fetchCtx = ctx

	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()
	defer c.shutdown()

	log.Info("monitoring for inactivity",
		"idle_threshold", c.cfg.IdleThreshold,
		"check_interval", c.cfg.CheckInterval)

	signals := c.view.Signals()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.tick()
		case <-c.refreshC():
			c.refresh()
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			c.handleSignal(sig)
		case res := <-c.fetched:
			c.applyFetch(res)
		}
	}
}

func (c *Controller) shutdown() {
	if c.state == StateOverlaid {
		c.hide("shutdown")
	}
}

// tick runs one idle check.
func (c *Controller) tick() {
	now := c.now()
	if c.suppression.Suppressed(now) {
		log.Debug("idle check suppressed",
			"session_closed", c.suppression.SessionClosed,
			"snooze_until", c.suppression.SnoozeUntil,
			"postponed", c.suppression.Postponed)
		return
	}

	idle := c.prober.IdleTime()

	switch c.state {
	case StateActive:
		if idle >= c.cfg.IdleThreshold {
			log.Info("idle threshold reached, showing overlay", "idle", idle)
			c.show(now, idle)
		}
	case StateOverlaid:
		if idle < c.cfg.ActivityThreshold && !c.suppression.IgnoringActivity(now) {
			c.hide("idle reset")
			return
		}
		if idle >= c.cfg.IdleThreshold {
			c.view.UpdateIdleTimer(idle)
		}
	}
}

func (c *Controller) show(now time.Time, idle time.Duration) {
	if err := c.view.Show(); err != nil {
		log.Error("failed to show overlay", "error", err)
		return
	}

	c.state = StateOverlaid
	c.generation++
	c.view.UpdateIdleTimer(idle)
	c.startFetch()
	c.scheduleRefresh(now)
}

func (c *Controller) hide(reason string) {
	log.Info("hiding overlay", "reason", reason)

	c.state = StateActive
	c.generation++
	c.stopRefresh()

	if err := c.view.Hide(); err != nil {
		log.Error("failed to hide overlay", "error", err)
	}
}

// handleSignal reacts to input reported by the view.
func (c *Controller) handleSignal(sig types.Signal) {
	now := c.now()

	switch sig.Kind {
	case types.SignalActivity:
		if c.state != StateOverlaid {
			return
		}
		if c.suppression.IgnoringActivity(now) {
			log.Debug("activity inside menu grace ignored")
			return
		}
		c.hide("input")
	case types.SignalMenuGesture:
		if c.state != StateOverlaid {
			return
		}
		c.suppression.IgnoreActivityUntil = now.Add(c.cfg.MenuGrace)
		c.view.ShowMenu(c.buildMenu())
	case types.SignalAction:
		c.perform(sig.Action, now)
	}
}

// perform applies a menu action. Every action hides the overlay first.
func (c *Controller) perform(action types.Action, now time.Time) {
	first, hasEvent := c.firstEvent()

	if c.state == StateOverlaid {
		c.hide("menu: " + action.Kind.String())
	}

	switch action.Kind {
	case types.ActionSnooze:
		if action.Duration <= 0 {
			return
		}
		c.suppression.SnoozeUntil = now.Add(action.Duration)
		log.Info("snoozed", "until", c.suppression.SnoozeUntil)
	case types.ActionPostpone:
		until, ok := c.nextBoundary(now)
		if !ok {
			until = now.Add(c.cfg.PostponeFallback)
		}
		c.suppression.Postponed = true
		c.suppression.PostponeUntil = until
		log.Info("postponed", "until", until)
	case types.ActionMarkDone:
		if !hasEvent {
			return
		}
		c.suppression.MarkCompleted(first.Key())
		log.Info("marked event done", "title", first.Title)
	case types.ActionOpenCalendar:
		if !hasEvent || first.Link == "" || c.opener == nil {
			return
		}
		if err := c.opener.Open(first.Link); err != nil {
			log.Error("failed to open event link", "url", first.Link, "error", err)
		}
	case types.ActionCloseSession:
		c.suppression.SessionClosed = true
		log.Info("overlay closed for this session")
	case types.ActionDismiss, types.ActionNone:
	}
}

// visibleEvents drops events marked done.
func (c *Controller) visibleEvents() []types.CalendarEvent {
	out := make([]types.CalendarEvent, 0, len(c.events))
	for _, ev := range c.events {
		if c.suppression.IsCompleted(ev.Key()) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (c *Controller) firstEvent() (types.CalendarEvent, bool) {
	visible := c.visibleEvents()
	if len(visible) == 0 {
		return types.CalendarEvent{}, false
	}
	return visible[0], true
}

// nextBoundary returns the first visible event boundary after now. Events
// already in progress are skipped.
func (c *Controller) nextBoundary(now time.Time) (time.Time, bool) {
	for _, ev := range c.visibleEvents() {
		if b := ev.Boundary(); b.After(now) {
			return b, true
		}
	}
	return time.Time{}, false
}

// startFetch lists events on a helper goroutine and posts the result back
// to the loop.
func (c *Controller) startFetch() {
	gen := c.generation
	ctx := c.fetchCtx
	log.Debug("fetching events", "generation", gen)

	go func() {
		events := c.source.FetchUpcoming(ctx)
		select {
		case c.fetched <- fetchResult{generation: gen, events: events}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyFetch(res fetchResult) {
	if res.generation != c.generation || c.state != StateOverlaid {
		log.Debug("discarding stale fetch", "generation", res.generation, "current", c.generation)
		return
	}

	c.events = res.events
	c.view.UpdateEvents(c.visibleEvents())
}

// scheduleRefresh arms the refresh timer for the next slot after now.
func (c *Controller) scheduleRefresh(now time.Time) {
	c.stopRefresh()
	c.nextRefresh = c.schedule.Next(now)
	c.refreshTimer = time.NewTimer(c.nextRefresh.Sub(now))
}

func (c *Controller) stopRefresh() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	c.nextRefresh = time.Time{}
}

func (c *Controller) refreshC() <-chan time.Time {
	if c.refreshTimer == nil {
		return nil
	}
	return c.refreshTimer.C
}

// refresh re-fetches while the overlay is up.
func (c *Controller) refresh() {
	if c.state != StateOverlaid {
		c.stopRefresh()
		return
	}
	log.Debug("periodic calendar refresh")
	c.startFetch()
	c.scheduleRefresh(c.now())
}

// NextRefresh returns when the next periodic refresh fires, or the zero
// time when refresh is stopped.
func (c *Controller) NextRefresh() time.Time {
	return c.nextRefresh
}
