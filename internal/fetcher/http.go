package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/observability"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	cfg     *config.FetcherConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.FetcherConfig, metrics *observability.Metrics, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("component", "http_fetcher"),
	}
}

// NewSession builds a client with its own transport and cookie jar.
func (f *HTTPFetcher) NewSession(opts SessionOptions) (Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     f.cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: f.cfg.TLSInsecure,
		},
		DisableCompression: true, // We handle decompression ourselves (including brotli)
	}

	followRedirects, maxRedirects := f.cfg.FollowRedirects, f.cfg.MaxRedirects
	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !followRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("max redirects (%d) reached", maxRedirects)
		}
		return nil
	}

	timeout := f.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpSession{
		client: &http.Client{
			Transport:     transport,
			Jar:           jar,
			Timeout:       timeout,
			CheckRedirect: redirectPolicy,
		},
		opts:        opts,
		maxBodySize: f.cfg.MaxBodySize,
		metrics:     f.metrics,
		logger:      f.logger.With("site", opts.Site),
	}, nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error { return nil }

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

type httpSession struct {
	client      *http.Client
	opts        SessionOptions
	maxBodySize int64
	metrics     *observability.Metrics
	logger      *slog.Logger
}

func (s *httpSession) Identity() Identity { return s.opts.Identity }

func (s *httpSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Fetch executes a GET request and parses the response body.
func (s *httpSession) Fetch(ctx context.Context, rawURL string) *goquery.Document {
	if err := sleep(ctx, s.opts.Delay); err != nil {
		s.logger.Debug("fetch cancelled during delay", "url", rawURL, "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		s.logger.Error("fetch failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, Err: err})
		return nil
	}

	req.Header.Set("User-Agent", s.opts.Identity.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", s.opts.Identity.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordRequestFailure()
		s.logger.Error("fetch failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, Err: err})
		return nil
	}
	defer resp.Body.Close()

	if ferr := statusError(s.opts.Site, rawURL, resp.StatusCode); ferr != nil {
		s.metrics.RecordResponse(resp.StatusCode, 0)
		s.logger.Warn("unexpected status", "error", ferr)
		return nil
	}

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		s.metrics.RecordResponse(resp.StatusCode, 0)
		s.logger.Error("decode failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, StatusCode: resp.StatusCode, Err: err})
		return nil
	}
	if s.maxBodySize > 0 {
		reader = io.LimitReader(reader, s.maxBodySize)
	}

	counter := &countingReader{r: reader}
	doc, err := goquery.NewDocumentFromReader(counter)
	s.metrics.RecordResponse(resp.StatusCode, counter.n)
	if err != nil {
		s.logger.Error("parse failed", "error", &types.FetchError{Site: s.opts.Site, URL: rawURL, StatusCode: resp.StatusCode, Err: err})
		return nil
	}
	doc.Url = resp.Request.URL

	s.logger.Debug("fetch complete",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", counter.n,
		"duration", time.Since(start),
	)

	return doc
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
