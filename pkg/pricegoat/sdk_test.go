package pricegoat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/PriceGoat/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const mercadoLibrePage = `<html><body><ol>
<li class="ui-search-layout__item">
  <h2 class="ui-search-item__title">Laptop Lenovo IdeaPad 3</h2>
  <span class="andes-money-amount__fraction">2,199</span>
  <a class="ui-search-link" href="/MPE-1">ver</a>
</li>
<li class="ui-search-layout__item">
  <h2 class="ui-search-item__title">Laptop Lenovo V15</h2>
  <span class="andes-money-amount__fraction">1,799</span>
  <a class="ui-search-link" href="/MPE-2">ver</a>
</li>
</ol></body></html>`

const falabellaPage = `<html><body><div id="testId-searchResults-products">
<div class="pod-summary">
  <b class="pod-subTitle">Laptop Lenovo IdeaPad Slim</b>
  <span class="copy10 primary medium">S/ 1,999</span>
  <a href="/falabella-pe/product/9/lenovo">ver</a>
</div>
</div></body></html>`

func siteServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, mlURL, fbURL string, opts ...Option) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	base := []Option{
		WithSiteURL(MercadoLibre, mlURL),
		WithSiteURL(Falabella, fbURL),
		WithSiteDelay(MercadoLibre, 0),
		WithSiteDelay(Falabella, 0),
	}
	for _, opt := range append(base, opts...) {
		opt(cfg)
	}
	require.NoError(t, config.Validate(cfg))

	client, err := newClient(cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCompareAcrossSites(t *testing.T) {
	ml := siteServer(t, mercadoLibrePage, http.StatusOK)
	fb := siteServer(t, falabellaPage, http.StatusOK)
	client := testClient(t, ml.URL, fb.URL)

	ref := 2000.0
	res := client.Compare(context.Background(), "laptop lenovo", &ref)

	require.True(t, res.Analysis.IsSuccess())
	assert.Equal(t, []string{MercadoLibre, Falabella}, res.Sites)
	assert.Len(t, res.Results[MercadoLibre], 2)
	assert.Len(t, res.Results[Falabella], 1)
	assert.Equal(t, 3, res.Analysis.TotalFound)
	assert.Equal(t, 1799.0, res.Analysis.MinPrice)
	assert.Equal(t, 2199.0, res.Analysis.MaxPrice)
	assert.Equal(t, ml.URL+"/MPE-2", res.Analysis.BestDeal.URL)

	require.NotNil(t, res.Analysis.Reference)
	assert.Equal(t, 201.0, res.Analysis.Reference.SavingsVsMin)
	assert.Equal(t, int64(2), client.Stats()["responses_2xx"])
}

func TestCompareSurvivesFailingSite(t *testing.T) {
	ml := siteServer(t, mercadoLibrePage, http.StatusOK)
	fb := siteServer(t, "blocked", http.StatusForbidden)
	client := testClient(t, ml.URL, fb.URL)

	res := client.Compare(context.Background(), "laptop", nil)

	require.True(t, res.Analysis.IsSuccess())
	assert.Empty(t, res.Results[Falabella])
	assert.Len(t, res.Results[MercadoLibre], 2)
	assert.Nil(t, res.Analysis.Reference)
}

func TestCompareNoResults(t *testing.T) {
	ml := siteServer(t, "<html><body></body></html>", http.StatusOK)
	fb := siteServer(t, "", http.StatusInternalServerError)
	client := testClient(t, ml.URL, fb.URL)

	res := client.Compare(context.Background(), "nada", nil)
	assert.False(t, res.Analysis.IsSuccess())

	data, err := json.Marshal(res.Analysis)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"no_results"}`, string(data))
}

func TestWithSites(t *testing.T) {
	ml := siteServer(t, mercadoLibrePage, http.StatusOK)
	fb := siteServer(t, falabellaPage, http.StatusOK)
	client := testClient(t, ml.URL, fb.URL, WithSites(Falabella), WithResultsPerSite(1))

	assert.Equal(t, []string{Falabella}, client.Sites())
	res := client.Compare(context.Background(), "laptop", nil)
	assert.Equal(t, []string{Falabella}, res.Sites)
	assert.Len(t, res.Results[Falabella], 1)
}

func countingServer(t *testing.T, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompareWithMemoryCache(t *testing.T) {
	var hits atomic.Int64
	ml := countingServer(t, mercadoLibrePage, &hits)
	fb := countingServer(t, falabellaPage, &hits)
	client := testClient(t, ml.URL, fb.URL, WithMemoryCache(time.Minute))

	ctx := context.Background()
	first := client.Compare(ctx, "Laptop  Lenovo", nil)
	require.True(t, first.Analysis.IsSuccess())
	assert.Equal(t, int64(2), hits.Load())

	second := client.Compare(ctx, "laptop lenovo", nil)
	assert.Equal(t, first.Analysis.TotalFound, second.Analysis.TotalFound)
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, int64(1), client.Stats()["cache_hits"])

	ref := 1500.0
	client.Compare(ctx, "laptop lenovo", &ref)
	assert.Equal(t, int64(4), hits.Load())
}

func TestCompareCachesOnlySuccess(t *testing.T) {
	var hits atomic.Int64
	ml := countingServer(t, "<html><body></body></html>", &hits)
	fb := countingServer(t, "<html><body></body></html>", &hits)
	client := testClient(t, ml.URL, fb.URL, WithMemoryCache(time.Minute))

	for range 2 {
		res := client.Compare(context.Background(), "nada", nil)
		assert.False(t, res.Analysis.IsSuccess())
	}
	assert.Equal(t, int64(4), hits.Load())
	assert.Zero(t, client.Stats()["cache_hits"])
}

func TestNewClientRejectsInvalidOptions(t *testing.T) {
	_, err := NewClient(WithResultsPerSite(0))
	assert.Error(t, err)

	_, err = NewClient(WithSites())
	assert.Error(t, err)

	_, err = NewClient(WithMemoryCache(0))
	assert.Error(t, err)
}

func TestLiveCompare(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test")
	}

	client, err := NewClient(WithSiteTimeout(45 * time.Second))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res := client.Compare(ctx, "laptop", nil)
	t.Logf("status=%s found=%d", res.Analysis.Status, res.Analysis.TotalFound)
	assert.Equal(t, []string{MercadoLibre, Falabella}, res.Sites)
}
