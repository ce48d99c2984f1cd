package calendar

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/Veraticus/idlecal/pkg/config"
	"github.com/Veraticus/idlecal/pkg/credential"
	"github.com/Veraticus/idlecal/pkg/interfaces"
)

// TokenStore returns the credential store selected by cfg.
func TokenStore(cfg *config.Config) credential.Store {
	if cfg.TokenStore == config.TokenStoreKeyring {
		return credential.NewKeyringStore()
	}
	return credential.NewFileStore(cfg.ResolveTokenFile())
}

// NewSource builds the configured event source wrapped in Shared. The
// google source needs a readable grant in store; a missing or malformed
// grant is returned as an error.
func NewSource(ctx context.Context, cfg *config.Config, store credential.Store) (interfaces.EventSource, error) {
	opts := Options{
		MaxEvents: cfg.MaxEvents,
		Timeout:   cfg.FetchTimeout,
	}

	switch cfg.Source {
	case config.SourceICS:
		return NewShared(NewICSSource(cfg.ICSURL, nil, opts)), nil
	case config.SourceGoogle:
		user, err := credential.Load(store)
		if err != nil {
			return nil, fmt.Errorf("failed to load calendar credentials: %w", err)
		}
		src, err := NewGoogleSource(ctx, cfg.CalendarID, opts, option.WithTokenSource(user.TokenSource(ctx)))
		if err != nil {
			return nil, err
		}
		return NewShared(src), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
