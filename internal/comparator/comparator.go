// Package comparator runs every registered site scraper for a product and
// summarizes the prices found.
package comparator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/PriceGoat/internal/fetcher"
	"github.com/IshaanNene/PriceGoat/internal/observability"
	"github.com/IshaanNene/PriceGoat/internal/scraper"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// DefaultResultsPerSite is the per-site listing limit.
const DefaultResultsPerSite = 3

// taskState is the lifecycle of one site search.
type taskState string

const (
	statePending  taskState = "pending"
	stateFetching taskState = "fetching"
	stateParsed   taskState = "parsed"
	stateFailed   taskState = "failed"
)

// outcome is what one site branch reports back to the join.
type outcome struct {
	listings []types.Listing
	err      error
}

// Comparator fans a product query out to every registered site.
type Comparator struct {
	registry    *scraper.Registry
	fetcher     fetcher.Fetcher
	identities  *fetcher.IdentityPool
	limit       int
	siteTimeout time.Duration
	metrics     *observability.Metrics
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithResultsPerSite sets the per-site listing limit.
func WithResultsPerSite(n int) Option {
	return func(c *Comparator) { c.limit = n }
}

// WithSiteTimeout bounds each site search. Zero disables the bound.
func WithSiteTimeout(d time.Duration) Option {
	return func(c *Comparator) { c.siteTimeout = d }
}

// WithMetrics records per-site outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Comparator) { c.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Comparator) { c.now = now }
}

// New creates a Comparator over the scrapers in registry.
func New(registry *scraper.Registry, f fetcher.Fetcher, identities *fetcher.IdentityPool, logger *slog.Logger, opts ...Option) *Comparator {
	c := &Comparator{
		registry:   registry,
		fetcher:    f,
		identities: identities,
		limit:      DefaultResultsPerSite,
		now:        time.Now,
		logger:     logger.With("component", "comparator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.identities == nil {
		c.identities = fetcher.NewIdentityPool(nil, nil, nil)
	}
	return c
}

// Compare searches every site concurrently and analyzes the merged prices.
// Site failures never escape: a failed site contributes an empty result.
// referencePrice may be nil.
func (c *Comparator) Compare(ctx context.Context, productName string, referencePrice *float64) *types.ComparisonResult {
	scrapers := c.registry.All()
	sites := make([]string, len(scrapers))
	outcomes := make([]outcome, len(scrapers))

	var g errgroup.Group
	for i, s := range scrapers {
		sites[i] = s.ID()
		g.Go(func() error {
			outcomes[i] = c.runSite(ctx, s, productName)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]types.SiteResult, len(scrapers))
	for i, id := range sites {
		o := outcomes[i]
		failed := o.err != nil
		if failed {
			c.logger.Error("site search failed", "site", id, "error", o.err)
			results[id] = types.SiteResult{}
		} else {
			results[id] = types.SiteResult(o.listings)
			if results[id] == nil {
				results[id] = types.SiteResult{}
			}
		}
		c.metrics.RecordSite(id, len(results[id]), failed)
	}

	analysis := Analyze(sites, results, referencePrice)
	c.metrics.RecordComparison(analysis.IsSuccess())

	c.logger.Info("comparison complete",
		"query", productName,
		"status", analysis.Status,
		"found", analysis.TotalFound,
	)

	return &types.ComparisonResult{
		ID:             uuid.NewString(),
		Query:          productName,
		ReferencePrice: referencePrice,
		Results:        results,
		Sites:          sites,
		Analysis:       analysis,
		Timestamp:      c.now(),
	}
}

// runSite applies the optional site timeout. A branch that overruns is
// reported as failed; whatever it produces later is discarded.
func (c *Comparator) runSite(ctx context.Context, s scraper.Scraper, productName string) outcome {
	if c.siteTimeout <= 0 {
		return c.searchSite(ctx, s, productName)
	}

	siteCtx, cancel := context.WithTimeout(ctx, c.siteTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() { done <- c.searchSite(siteCtx, s, productName) }()

	select {
	case o := <-done:
		return o
	case <-siteCtx.Done():
		err := types.ErrSiteTimeout
		if !errors.Is(siteCtx.Err(), context.DeadlineExceeded) {
			err = siteCtx.Err()
		}
		c.logger.Debug("site task", "site", s.ID(), "state", stateFailed)
		return outcome{err: &types.SiteError{Site: s.ID(), Err: err}}
	}
}

// searchSite runs one site search in its own session.
func (c *Comparator) searchSite(ctx context.Context, s scraper.Scraper, productName string) (o outcome) {
	logger := c.logger.With("site", s.ID())

	defer func() {
		if r := recover(); r != nil {
			logger.Debug("site task", "state", stateFailed)
			o = outcome{err: &types.SiteError{Site: s.ID(), Err: fmt.Errorf("%w: %v", types.ErrSitePanic, r)}}
		}
	}()

	logger.Debug("site task", "state", statePending)

	session, err := c.fetcher.NewSession(fetcher.SessionOptions{
		Site:     s.ID(),
		Delay:    s.Delay(),
		Identity: c.identities.Random(),
	})
	if err != nil {
		logger.Debug("site task", "state", stateFailed)
		return outcome{err: &types.SiteError{Site: s.ID(), Err: err}}
	}
	defer session.Close()

	logger.Debug("site task", "state", stateFetching)
	listings := s.Search(ctx, session, productName, c.limit)
	logger.Debug("site task", "state", stateParsed, "listings", len(listings))

	return outcome{listings: listings}
}
