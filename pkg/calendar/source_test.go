package calendar

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/idlecal/pkg/config"
	"github.com/Veraticus/idlecal/pkg/credential"
	"github.com/Veraticus/idlecal/pkg/types"
)

type blockingSource struct {
	calls   atomic.Int32
	release chan struct{}
	events  []types.CalendarEvent
}

func (b *blockingSource) FetchUpcoming(ctx context.Context) []types.CalendarEvent {
	b.calls.Add(1)
	<-b.release
	return b.events
}

func TestSharedCollapsesConcurrentFetches(t *testing.T) {
	src := &blockingSource{
		release: make(chan struct{}),
		events:  []types.CalendarEvent{{ID: "one", Title: "One"}},
	}
	shared := NewShared(src)

	var wg sync.WaitGroup
	results := make([][]types.CalendarEvent, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = shared.FetchUpcoming(context.Background())
		}(i)
	}

	// Give the goroutines time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("underlying fetches = %d, want 1", got)
	}
	for i, r := range results {
		if len(r) != 1 || r[0].ID != "one" {
			t.Errorf("result %d = %v", i, r)
		}
	}
}

func TestSharedCallerCancellation(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	defer close(src.release)
	shared := NewShared(src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	events := shared.FetchUpcoming(ctx)
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty slice after cancellation, got %v", events)
	}
}

func TestSortAndTrim(t *testing.T) {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)
	events := []types.CalendarEvent{
		{ID: "late", Start: base.Add(5 * time.Hour)},
		{ID: "allday", Start: base, AllDay: true},
		{ID: "early", Start: base.Add(1 * time.Hour)},
	}

	got := sortAndTrim(events, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "allday" || got[1].ID != "early" {
		t.Errorf("order = %s, %s; want allday, early", got[0].ID, got[1].ID)
	}
}

type missingStore struct{}

func (missingStore) Load() ([]byte, error) { return nil, credential.ErrTokenNotFound }
func (missingStore) Name() string          { return "missing" }

func TestNewSource(t *testing.T) {
	t.Run("ics needs no credentials", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Source = config.SourceICS
		cfg.ICSURL = "https://calendar.example/feed.ics"

		src, err := NewSource(context.Background(), cfg, missingStore{})
		if err != nil {
			t.Fatalf("NewSource() error = %v", err)
		}
		if _, ok := src.(*Shared); !ok {
			t.Errorf("expected *Shared, got %T", src)
		}
	})

	t.Run("google without token fails", func(t *testing.T) {
		cfg := config.DefaultConfig()

		_, err := NewSource(context.Background(), cfg, missingStore{})
		if err == nil {
			t.Fatal("expected error for missing token")
		}
	})

	t.Run("token store selection", func(t *testing.T) {
		cfg := config.DefaultConfig()
		if _, ok := TokenStore(cfg).(*credential.FileStore); !ok {
			t.Errorf("default store should be the file store")
		}
		cfg.TokenStore = config.TokenStoreKeyring
		if _, ok := TokenStore(cfg).(*credential.KeyringStore); !ok {
			t.Errorf("keyring store not selected")
		}
	})
}
