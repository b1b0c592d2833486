package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// SiteStats holds the counters of a single retail site.
type SiteStats struct {
	Searches atomic.Int64
	Failures atomic.Int64
	Listings atomic.Int64
}

// Metrics tracks operational metrics for comparison runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Request metrics
	RequestsTotal  atomic.Int64
	RequestsFailed atomic.Int64

	// Response metrics
	ResponsesTotal atomic.Int64
	Responses2xx   atomic.Int64
	Responses3xx   atomic.Int64
	Responses4xx   atomic.Int64
	Responses5xx   atomic.Int64

	BytesDownloaded atomic.Int64

	// Comparison metrics
	ComparisonsTotal     atomic.Int64
	ComparisonsNoResults atomic.Int64
	CacheHits            atomic.Int64
	ResultsStored        atomic.Int64

	mu    sync.Mutex
	sites map[string]*SiteStats

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		sites:  make(map[string]*SiteStats),
		logger: logger.With("component", "metrics"),
	}
}

// Site returns the counters for a site, creating them on first use.
func (m *Metrics) Site(id string) *SiteStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		s = &SiteStats{}
		m.sites[id] = s
	}
	return s
}

// RecordResponse counts a response by status class.
func (m *Metrics) RecordResponse(status int, size int) {
	if m == nil {
		return
	}
	m.RequestsTotal.Add(1)
	m.ResponsesTotal.Add(1)
	m.BytesDownloaded.Add(int64(size))
	switch {
	case status >= 500:
		m.Responses5xx.Add(1)
	case status >= 400:
		m.Responses4xx.Add(1)
	case status >= 300:
		m.Responses3xx.Add(1)
	case status >= 200:
		m.Responses2xx.Add(1)
	}
}

// RecordRequestFailure counts a request that never produced a response.
func (m *Metrics) RecordRequestFailure() {
	if m == nil {
		return
	}
	m.RequestsTotal.Add(1)
	m.RequestsFailed.Add(1)
}

// RecordSite counts one site search and its outcome.
func (m *Metrics) RecordSite(id string, listings int, failed bool) {
	if m == nil {
		return
	}
	s := m.Site(id)
	s.Searches.Add(1)
	s.Listings.Add(int64(listings))
	if failed {
		s.Failures.Add(1)
	}
}

// RecordComparison counts a finished comparison.
func (m *Metrics) RecordComparison(success bool) {
	if m == nil {
		return
	}
	m.ComparisonsTotal.Add(1)
	if !success {
		m.ComparisonsNoResults.Add(1)
	}
}

// RecordCacheHit counts a comparison served from cache.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Add(1)
}

// RecordStored counts results written to storage.
func (m *Metrics) RecordStored(n int) {
	if m == nil {
		return
	}
	m.ResultsStored.Add(int64(n))
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"pricegoat_requests_total", "Total requests made", m.RequestsTotal.Load()},
		{"pricegoat_requests_failed_total", "Total failed requests", m.RequestsFailed.Load()},
		{"pricegoat_responses_total", "Total responses received", m.ResponsesTotal.Load()},
		{"pricegoat_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"pricegoat_responses_3xx_total", "Total 3xx responses", m.Responses3xx.Load()},
		{"pricegoat_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"pricegoat_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"pricegoat_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"pricegoat_comparisons_total", "Total comparisons run", m.ComparisonsTotal.Load()},
		{"pricegoat_comparisons_no_results_total", "Comparisons with no priced listings", m.ComparisonsNoResults.Load()},
		{"pricegoat_cache_hits_total", "Comparisons served from cache", m.CacheHits.Load()},
		{"pricegoat_results_stored_total", "Comparison results written to storage", m.ResultsStored.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}

	ids, stats := m.siteSnapshot()
	perSite := []struct {
		name string
		help string
		get  func(*SiteStats) int64
	}{
		{"pricegoat_site_searches_total", "Searches per site", func(s *SiteStats) int64 { return s.Searches.Load() }},
		{"pricegoat_site_failures_total", "Failed searches per site", func(s *SiteStats) int64 { return s.Failures.Load() }},
		{"pricegoat_site_listings_total", "Listings parsed per site", func(s *SiteStats) int64 { return s.Listings.Load() }},
	}
	for _, metric := range perSite {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		for i, id := range ids {
			fmt.Fprintf(w, "%s{site=%q} %d\n", metric.name, id, metric.get(stats[i]))
		}
	}
}

func (m *Metrics) siteSnapshot() ([]string, []*SiteStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sites))
	for id := range m.sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	stats := make([]*SiteStats, len(ids))
	for i, id := range ids {
		stats[i] = m.sites[id]
	}
	return ids, stats
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	snap := map[string]int64{
		"requests_total":         m.RequestsTotal.Load(),
		"requests_failed":        m.RequestsFailed.Load(),
		"responses_total":        m.ResponsesTotal.Load(),
		"responses_2xx":          m.Responses2xx.Load(),
		"responses_4xx":          m.Responses4xx.Load(),
		"responses_5xx":          m.Responses5xx.Load(),
		"bytes_downloaded":       m.BytesDownloaded.Load(),
		"comparisons_total":      m.ComparisonsTotal.Load(),
		"comparisons_no_results": m.ComparisonsNoResults.Load(),
		"cache_hits":             m.CacheHits.Load(),
		"results_stored":         m.ResultsStored.Load(),
	}
	ids, stats := m.siteSnapshot()
	for i, id := range ids {
		snap["site_"+id+"_searches"] = stats[i].Searches.Load()
		snap["site_"+id+"_failures"] = stats[i].Failures.Load()
		snap["site_"+id+"_listings"] = stats[i].Listings.Load()
	}
	return snap
}
