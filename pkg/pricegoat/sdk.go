// Package pricegoat provides a public SDK for embedding PriceGoat as a library.
//
// Example usage:
//
//	client, err := pricegoat.NewClient(
//	    pricegoat.WithResultsPerSite(5),
//	    pricegoat.WithSiteTimeout(20*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ref := 1500.0
//	result := client.Compare(ctx, "laptop lenovo", &ref)
//	if result.Analysis.IsSuccess() {
//	    fmt.Println(result.Analysis.BestDeal.URL)
//	}
package pricegoat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/IshaanNene/PriceGoat/internal/cache"
	"github.com/IshaanNene/PriceGoat/internal/comparator"
	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/fetcher"
	"github.com/IshaanNene/PriceGoat/internal/observability"
	"github.com/IshaanNene/PriceGoat/internal/scraper"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// Result is the outcome of one comparison.
type Result = types.ComparisonResult

// Listing is one product offer found on a site.
type Listing = types.Listing

// Site identifiers accepted by WithSites.
const (
	MercadoLibre = config.SiteMercadoLibre
	Falabella    = config.SiteFalabella
)

// Client is the high-level API for running comparisons from Go code.
// A Client is safe for concurrent use.
type Client struct {
	cfg        *config.Config
	fetcher    fetcher.Fetcher
	registry   *scraper.Registry
	comparator *comparator.Comparator
	cache      cache.Cache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*config.Config)

// WithResultsPerSite sets how many listings each site contributes.
func WithResultsPerSite(n int) Option {
	return func(c *config.Config) { c.Engine.ResultsPerSite = n }
}

// WithSiteTimeout bounds every site search. Zero means unbounded.
func WithSiteTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Engine.SiteTimeout = d }
}

// WithSites enables only the given sites.
func WithSites(ids ...string) Option {
	return func(c *config.Config) {
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		for id, site := range c.Sites {
			site.Enabled = keep[id]
			c.Sites[id] = site
		}
	}
}

// WithSiteURL points a site at a different base URL, e.g. a mirror.
func WithSiteURL(id, baseURL string) Option {
	return func(c *config.Config) {
		site := c.Site(id)
		site.BaseURL = baseURL
		c.Sites[id] = site
	}
}

// WithSiteDelay overrides the pause before each request to a site.
func WithSiteDelay(id string, d time.Duration) Option {
	return func(c *config.Config) {
		site := c.Site(id)
		site.Delay = d
		c.Sites[id] = site
	}
}

// WithUserAgent pins the User-Agent instead of picking from the pool.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Engine.UserAgents = []string{ua} }
}

// WithBrowser renders pages in a headless browser.
func WithBrowser() Option {
	return func(c *config.Config) { c.Fetcher.Type = "browser" }
}

// WithMemoryCache keeps successful results in process memory for ttl, so
// repeated queries on the same Client skip the sites.
func WithMemoryCache(ttl time.Duration) Option {
	return func(c *config.Config) {
		c.Cache.Type = "memory"
		c.Cache.TTL = ttl
	}
}

// WithRedisCache shares successful results through Redis for ttl.
func WithRedisCache(redisURL string, ttl time.Duration) Option {
	return func(c *config.Config) {
		c.Cache.Type = "redis"
		c.Cache.RedisURL = redisURL
		c.Cache.TTL = ttl
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// NewClient creates a Client with the given options applied over the
// default configuration.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return newClient(cfg, logger)
}

func newClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	metrics := observability.NewMetrics(logger)
	f, err := fetcher.New(cfg, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	resultCache, err := cache.New(context.Background(), cfg.Cache, logger)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}

	reg := scraper.Default(cfg, logger)
	identities := fetcher.NewIdentityPool(
		cfg.Engine.UserAgents,
		cfg.Engine.AcceptLanguages,
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)

	return &Client{
		cfg:      cfg,
		fetcher:  f,
		registry: reg,
		comparator: comparator.New(reg, f, identities, logger,
			comparator.WithResultsPerSite(cfg.Engine.ResultsPerSite),
			comparator.WithSiteTimeout(cfg.Engine.SiteTimeout),
			comparator.WithMetrics(metrics),
		),
		cache:   resultCache,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Compare searches every enabled site for productName. referencePrice may
// be nil. Site failures are absorbed: the worst outcome is a result whose
// analysis reports no_results. With a cache configured, a successful result
// is reused until its TTL runs out.
func (c *Client) Compare(ctx context.Context, productName string, referencePrice *float64) *Result {
	key := cache.Key(productName, referencePrice, c.registry.IDs(), c.cfg.Engine.ResultsPerSite)
	res, hit := cache.Through(ctx, c.cache, key, c.cfg.Cache.TTL, c.logger, func() *types.ComparisonResult {
		return c.comparator.Compare(ctx, productName, referencePrice)
	})
	if hit {
		c.metrics.RecordCacheHit()
	}
	return res
}

// Sites returns the enabled site ids in search order.
func (c *Client) Sites() []string {
	return c.registry.IDs()
}

// Stats returns request and per-site counters.
func (c *Client) Stats() map[string]int64 {
	return c.metrics.Snapshot()
}

// Close releases the fetcher and the cache.
func (c *Client) Close() error {
	err := c.fetcher.Close()
	if c.cache != nil {
		if cerr := c.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
