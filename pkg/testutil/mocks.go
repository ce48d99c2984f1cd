package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/idlecal/pkg/types"
)

// MockIdleProber is a thread-safe mock implementation of interfaces.IdleProber for testing
type MockIdleProber struct {
	mu        sync.Mutex
	idle      time.Duration
	callCount int
}

// NewMockIdleProber creates a new mock prober reporting idle
func NewMockIdleProber(idle time.Duration) *MockIdleProber {
	return &MockIdleProber{idle: idle}
}

// IdleTime implements the IdleProber interface
func (m *MockIdleProber) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	return m.idle
}

// SetIdle sets the idle time to report
func (m *MockIdleProber) SetIdle(idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idle = idle
}

// GetCallCount returns how many times IdleTime was called
func (m *MockIdleProber) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// MockEventSource is a thread-safe mock implementation of interfaces.EventSource for testing
type MockEventSource struct {
	mu        sync.Mutex
	events    []types.CalendarEvent
	callCount int
	block     chan struct{}
}

// NewMockEventSource creates a new mock event source
func NewMockEventSource(events ...types.CalendarEvent) *MockEventSource {
	return &MockEventSource{events: events}
}

// FetchUpcoming implements the EventSource interface
func (m *MockEventSource) FetchUpcoming(ctx context.Context) []types.CalendarEvent {
	m.mu.Lock()
	m.callCount++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return []types.CalendarEvent{}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]types.CalendarEvent, len(m.events))
	copy(result, m.events)
	return result
}

// SetEvents sets the events returned by subsequent fetches
func (m *MockEventSource) SetEvents(events ...types.CalendarEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
}

// Block makes fetches wait until Release is called
func (m *MockEventSource) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = make(chan struct{})
}

// Release unblocks pending and future fetches
func (m *MockEventSource) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.block != nil {
		close(m.block)
		m.block = nil
	}
}

// GetCallCount returns how many fetches were started
func (m *MockEventSource) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// MockOverlayView is a thread-safe mock implementation of interfaces.OverlayView for testing
type MockOverlayView struct {
	mu         sync.Mutex
	visible    bool
	showCount  int
	hideCount  int
	showErr    error
	events     []types.CalendarEvent
	eventCalls int
	idle       time.Duration
	menus      [][]types.MenuItem
	signals    chan types.Signal
}

// NewMockOverlayView creates a new hidden mock view
func NewMockOverlayView() *MockOverlayView {
	return &MockOverlayView{
		signals: make(chan types.Signal, 16),
	}
}

// Show implements the OverlayView interface
func (m *MockOverlayView) Show() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showCount++
	if m.showErr != nil {
		return m.showErr
	}
	m.visible = true
	return nil
}

// Hide implements the OverlayView interface
func (m *MockOverlayView) Hide() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hideCount++
	m.visible = false
	return nil
}

// IsVisible implements the OverlayView interface
func (m *MockOverlayView) IsVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// UpdateEvents implements the OverlayView interface
func (m *MockOverlayView) UpdateEvents(events []types.CalendarEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCalls++
	m.events = make([]types.CalendarEvent, len(events))
	copy(m.events, events)
}

// UpdateIdleTimer implements the OverlayView interface
func (m *MockOverlayView) UpdateIdleTimer(idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idle = idle
}

// ShowMenu implements the OverlayView interface
func (m *MockOverlayView) ShowMenu(items []types.MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus = append(m.menus, items)
}

// Signals implements the OverlayView interface
func (m *MockOverlayView) Signals() <-chan types.Signal {
	return m.signals
}

// Send queues a signal as if the user produced it
func (m *MockOverlayView) Send(sig types.Signal) {
	m.signals <- sig
}

// SetShowError sets the error to return on Show calls
func (m *MockOverlayView) SetShowError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showErr = err
}

// GetShowCount returns how many times Show was called
func (m *MockOverlayView) GetShowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.showCount
}

// GetHideCount returns how many times Hide was called
func (m *MockOverlayView) GetHideCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hideCount
}

// GetEvents returns a copy of the last events shown
func (m *MockOverlayView) GetEvents() []types.CalendarEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]types.CalendarEvent, len(m.events))
	copy(result, m.events)
	return result
}

// GetEventUpdateCount returns how many times UpdateEvents was called
func (m *MockOverlayView) GetEventUpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventCalls
}

// GetIdle returns the last idle duration shown
func (m *MockOverlayView) GetIdle() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}

// GetMenus returns every menu shown, oldest first
func (m *MockOverlayView) GetMenus() [][]types.MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][]types.MenuItem, len(m.menus))
	copy(result, m.menus)
	return result
}

// MockLinkOpener is a thread-safe mock implementation of interfaces.LinkOpener for testing
type MockLinkOpener struct {
	mu      sync.Mutex
	opened  []string
	openErr error
}

// NewMockLinkOpener creates a new mock link opener
func NewMockLinkOpener() *MockLinkOpener {
	return &MockLinkOpener{opened: []string{}}
}

// Open implements the LinkOpener interface
func (m *MockLinkOpener) Open(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, url)
	return m.openErr
}

// SetError sets the error to return on Open calls
func (m *MockLinkOpener) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// GetOpened returns a copy of every URL passed to Open
func (m *MockLinkOpener) GetOpened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.opened))
	copy(result, m.opened)
	return result
}
