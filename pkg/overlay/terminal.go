// Package overlay draws the idle overlay on a full-screen terminal and
// reports user input back to the controller.
package overlay

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/Veraticus/idlecal/pkg/interfaces"
	"github.com/Veraticus/idlecal/pkg/log"
	"github.com/Veraticus/idlecal/pkg/types"
)

const (
	// Alternate screen, hidden cursor, any-motion mouse tracking, SGR mouse encoding.
	enterSequence = "\033[?1049h\033[?25l\033[?1003h\033[?1006h"
	leaveSequence = "\033[?1006l\033[?1003l\033[?25h\033[?1049l"

	defaultWidth  = 80
	defaultHeight = 24
)

// Options configures a Terminal.
type Options struct {
	// In is read for keys and mouse reports. It is switched to raw mode while
	// the overlay is visible when it is a terminal. Nil disables input.
	In *os.File
	// Out receives the drawing.
	Out io.Writer
	// TimeFormat is the clock layout (default "15:04").
	TimeFormat string
	// AgendaSize is the number of events listed after the next one.
	AgendaSize int
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Terminal is an OverlayView on a full-screen terminal.
type Terminal struct {
	in         *os.File
	out        io.Writer
	timeFormat string
	agendaSize int
	now        func() time.Time

	mu       sync.Mutex
	visible  bool
	loaded   bool
	events   []types.CalendarEvent
	idle     time.Duration
	menu     []types.MenuItem
	rawState *term.State
	stop     chan struct{}
	decoder  *InputDecoder

	signals  chan types.Signal
	readOnce sync.Once
}

// NewTerminal creates a hidden overlay.
func NewTerminal(opts Options) *Terminal {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = "15:04"
	}
	if opts.AgendaSize < 0 {
		opts.AgendaSize = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Terminal{
		in:         opts.In,
		out:        opts.Out,
		timeFormat: opts.TimeFormat,
		agendaSize: opts.AgendaSize,
		now:        opts.Now,
		decoder:    NewInputDecoder(),
		signals:    make(chan types.Signal, 16),
	}
}

// Show takes over the screen.
func (t *Terminal) Show() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.visible {
		return nil
	}

	if t.in != nil && term.IsTerminal(int(t.in.Fd())) {
		state, err := term.MakeRaw(int(t.in.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		t.rawState = state
	}

	if _, err := io.WriteString(t.out, enterSequence); err != nil {
		t.restore()
		return fmt.Errorf("failed to enter overlay screen: %w", err)
	}

	t.visible = true
	t.loaded = false
	t.events = nil
	t.idle = 0
	t.menu = nil
	t.decoder.Reset()

	t.stop = make(chan struct{})
	go t.clockLoop(t.stop)

	if t.in != nil {
		t.readOnce.Do(func() { go t.readLoop() })
	}

	_ = t.draw() // Best effort
	return nil
}

// Hide gives the screen back.
func (t *Terminal) Hide() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.visible {
		return nil
	}

	t.visible = false
	t.menu = nil
	close(t.stop)

	_, err := io.WriteString(t.out, leaveSequence)
	t.restore()
	if err != nil {
		return fmt.Errorf("failed to leave overlay screen: %w", err)
	}
	return nil
}

// restore leaves raw mode. Callers hold t.mu.
func (t *Terminal) restore() {
	if t.rawState == nil {
		return
	}
	if err := term.Restore(int(t.in.Fd()), t.rawState); err != nil {
		log.Warn("failed to restore terminal", "error", err)
	}
	t.rawState = nil
}

// IsVisible reports whether the overlay is on screen.
func (t *Terminal) IsVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// UpdateEvents replaces the displayed agenda.
func (t *Terminal) UpdateEvents(events []types.CalendarEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = make([]types.CalendarEvent, len(events))
	copy(t.events, events)
	t.loaded = true
	_ = t.draw()
}

// UpdateIdleTimer replaces the "away for" duration.
func (t *Terminal) UpdateIdleTimer(idle time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.idle = idle
	_ = t.draw()
}

// ShowMenu lists numbered actions under the agenda.
func (t *Terminal) ShowMenu(items []types.MenuItem) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.menu = make([]types.MenuItem, len(items))
	copy(t.menu, items)
	_ = t.draw()
}

// Signals reports user input.
func (t *Terminal) Signals() <-chan types.Signal {
	return t.signals
}

// draw renders the overlay. Callers hold t.mu.
func (t *Terminal) draw() error {
	if !t.visible {
		return nil
	}
	_, err := io.WriteString(t.out, t.frame(t.now()))
	return err
}

func (t *Terminal) size() (int, int) {
	if f, ok := t.out.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return defaultWidth, defaultHeight
}

// clockLoop redraws once a second so the clock stays current.
func (t *Terminal) clockLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.mu.Lock()
			_ = t.draw()
			t.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// readLoop forwards input until the reader fails.
func (t *Terminal) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			t.handleInput(buf[:n])
		}
		if err != nil {
			log.Debug("overlay input closed", "error", err)
			return
		}
	}
}

// handleInput decodes data and posts the resulting signals. Input while
// hidden is dropped.
func (t *Terminal) handleInput(data []byte) {
	t.mu.Lock()
	if !t.visible {
		t.mu.Unlock()
		return
	}

	var out []types.Signal
	for _, in := range t.decoder.Decode(data, len(t.menu) > 0) {
		switch in.Kind {
		case InputActivity:
			out = append(out, types.Signal{Kind: types.SignalActivity})
		case InputMenuGesture:
			out = append(out, types.Signal{Kind: types.SignalMenuGesture})
		case InputMenuSelect:
			if in.Index < 1 || in.Index > len(t.menu) {
				continue
			}
			action := t.menu[in.Index-1].Action
			t.menu = nil
			_ = t.draw()
			out = append(out, types.Signal{Kind: types.SignalAction, Action: action})
		case InputMenuClose:
			t.menu = nil
			_ = t.draw()
		}
	}
	t.mu.Unlock()

	for _, sig := range out {
		t.signals <- sig
	}
}

var _ interfaces.OverlayView = (*Terminal)(nil)
