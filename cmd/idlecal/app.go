package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/Veraticus/idlecal/pkg/calendar"
	"github.com/Veraticus/idlecal/pkg/config"
	"github.com/Veraticus/idlecal/pkg/controller"
	"github.com/Veraticus/idlecal/pkg/credential"
	"github.com/Veraticus/idlecal/pkg/idle"
	"github.com/Veraticus/idlecal/pkg/interfaces"
	"github.com/Veraticus/idlecal/pkg/launch"
	"github.com/Veraticus/idlecal/pkg/overlay"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config *config.Config
	Prober interfaces.IdleProber
	Source interfaces.EventSource
	View   interfaces.OverlayView
	Opener interfaces.LinkOpener
}

// NewDependencies creates all dependencies with the given configuration.
// A missing or unreadable calendar credential is an error.
func NewDependencies(ctx context.Context, cfg *config.Config, store credential.Store) (*Dependencies, error) {
	source, err := calendar.NewSource(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config: cfg,
		Prober: idle.NewProber(cfg.IdleCommand),
		Source: source,
		View: overlay.NewTerminal(overlay.Options{
			In:         os.Stdin,
			Out:        os.Stdout,
			TimeFormat: cfg.TimeFormat,
			AgendaSize: cfg.AgendaSize,
		}),
		Opener: launch.NewOpener(),
	}, nil
}

// Application represents the main application
type Application struct {
	deps *Dependencies
	now  func() time.Time
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
		now:  time.Now,
	}
}

// Run watches for inactivity until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	c, err := controller.New(a.deps.Config, a.deps.Prober, a.deps.Source, a.deps.View, a.deps.Opener)
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// List prints the upcoming events as a table.
func (a *Application) List(ctx context.Context, w io.Writer) error {
	events := a.deps.Source.FetchUpcoming(ctx)
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No upcoming events")
		return err
	}

	bold := color.New(color.Bold)
	now := a.now()

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("DAY"), bold.Sprint("TIME"), bold.Sprint("STARTS"), bold.Sprint("TITLE"), bold.Sprint("LINK"))
	for _, ev := range events {
		rel, _ := overlay.FormatRelative(ev.Boundary(), now)
		tbl.AddRow(
			ev.Boundary().Format("Mon Jan 02"),
			overlay.FormatEventTime(ev),
			rel,
			ev.Title,
			ev.Link,
		)
	}

	_, err := fmt.Fprintln(w, tbl)
	return err
}
