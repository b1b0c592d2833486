package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/observability"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// SessionOptions describes the site a session talks to.
type SessionOptions struct {
	Site     string
	Delay    time.Duration
	Identity Identity
}

// Fetcher creates per-site sessions.
type Fetcher interface {
	// NewSession opens a session with its own connection and cookie state.
	NewSession(opts SessionOptions) (Session, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// Session fetches pages for one site with one identity. Sessions are not
// shared between sites.
type Session interface {
	// Fetch waits the site delay, retrieves url and parses it. Any failure
	// is logged and reported as a nil document.
	Fetch(ctx context.Context, url string) *goquery.Document

	Identity() Identity

	Close() error
}

// New creates the fetcher selected by cfg.Fetcher.Type.
func New(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "", "http":
		return NewHTTPFetcher(&cfg.Fetcher, metrics, logger), nil
	case "browser":
		bf, err := NewBrowserFetcher(&cfg.Fetcher, metrics, logger)
		if err != nil {
			return nil, err
		}
		return bf, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %q", cfg.Fetcher.Type)
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusError returns nil for a 2xx status and a FetchError otherwise.
func statusError(site, url string, status int) *types.FetchError {
	if status >= 200 && status <= 299 {
		return nil
	}
	return &types.FetchError{
		Site:       site,
		URL:        url,
		StatusCode: status,
		Err:        fmt.Errorf("HTTP %d", status),
	}
}
