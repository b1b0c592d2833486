package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/observability"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// Each session gets its own incognito context and stealth page.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.FetcherConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.FetcherConfig, metrics *observability.Metrics, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("component", "browser_fetcher"),
	}

	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready")
	return bf, nil
}

// NewSession opens an incognito context with one stealth page.
func (bf *BrowserFetcher) NewSession(opts SessionOptions) (Session, error) {
	incognito, err := bf.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := stealth.Page(incognito)
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      opts.Identity.UserAgent,
		AcceptLanguage: opts.Identity.AcceptLanguage,
	})
	if err != nil {
		bf.logger.Warn("failed to set user agent", "site", opts.Site, "error", err)
	}

	timeout := bf.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &browserSession{
		incognito: incognito,
		page:      page,
		opts:      opts,
		timeout:   timeout,
		metrics:   bf.metrics,
		logger:    bf.logger.With("site", opts.Site),
	}, nil
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

type browserSession struct {
	incognito *rod.Browser
	page      *rod.Page
	opts      SessionOptions
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func (s *browserSession) Identity() Identity { return s.opts.Identity }

func (s *browserSession) Close() error {
	_ = s.page.Close()
	return s.incognito.Close()
}

// Fetch navigates to a URL and parses the rendered page content.
func (s *browserSession) Fetch(ctx context.Context, rawURL string) *goquery.Document {
	if err := sleep(ctx, s.opts.Delay); err != nil {
		s.logger.Debug("fetch cancelled during delay", "url", rawURL, "error", err)
		return nil
	}

	start := time.Now()
	page := s.page.Context(ctx).Timeout(s.timeout)
	defer page.CancelTimeout()

	var status int
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(rawURL); err != nil {
		s.metrics.RecordRequestFailure()
		s.logger.Error("fetch failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, Err: err})
		return nil
	}
	waitDocument()

	// status stays 0 when the response event was missed, e.g. a cached page.
	if status == 0 {
		status = 200
	}
	if ferr := statusError(s.opts.Site, rawURL, status); ferr != nil {
		s.metrics.RecordResponse(status, 0)
		s.logger.Warn("unexpected status", "error", ferr)
		return nil
	}

	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		s.metrics.RecordRequestFailure()
		s.logger.Error("fetch failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, Err: err})
		return nil
	}
	s.metrics.RecordResponse(status, len(html))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Error("parse failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, Err: err})
		return nil
	}

	s.logger.Debug("browser fetch complete",
		"url", rawURL,
		"status", status,
		"size", len(html),
		"duration", time.Since(start),
	)

	return doc
}
