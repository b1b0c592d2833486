package observability

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordResponse(200, 10)
		m.RecordRequestFailure()
		m.RecordSite("falabella", 3, false)
		m.RecordComparison(true)
		m.RecordCacheHit()
		m.RecordStored(1)
	})
}

func TestRecordResponseClasses(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordResponse(200, 100)
	m.RecordResponse(302, 0)
	m.RecordResponse(404, 5)
	m.RecordResponse(503, 5)
	m.RecordRequestFailure()

	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap["requests_total"])
	assert.Equal(t, int64(1), snap["requests_failed"])
	assert.Equal(t, int64(1), snap["responses_2xx"])
	assert.Equal(t, int64(1), snap["responses_4xx"])
	assert.Equal(t, int64(1), snap["responses_5xx"])
	assert.Equal(t, int64(110), snap["bytes_downloaded"])
}

func TestServeHTTPSiteLabels(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordSite("mercadolibre", 3, false)
	m.RecordSite("falabella", 0, true)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `pricegoat_site_listings_total{site="mercadolibre"} 3`)
	assert.Contains(t, body, `pricegoat_site_failures_total{site="falabella"} 1`)
	assert.Contains(t, body, "pricegoat_comparisons_total 0")
}
