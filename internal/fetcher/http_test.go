package fetcher

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/observability"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestSession(t *testing.T, opts SessionOptions) Session {
	t.Helper()
	cfg := config.DefaultConfig()
	f := NewHTTPFetcher(&cfg.Fetcher, observability.NewMetrics(testLogger), testLogger)
	s, err := f.NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFetchParsesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Hola</h1></body></html>`))
	}))
	defer server.Close()

	s := newTestSession(t, SessionOptions{Site: "test"})
	doc := s.Fetch(context.Background(), server.URL)
	require.NotNil(t, doc)
	assert.Equal(t, "Hola", doc.Find("h1").Text())
}

func TestFetchNon2xxReturnsNil(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`<html><body>blocked</body></html>`))
		}))

		s := newTestSession(t, SessionOptions{Site: "test"})
		assert.Nil(t, s.Fetch(context.Background(), server.URL), "status %d", status)
		server.Close()
	}
}

func TestFetchTransportErrorReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	s := newTestSession(t, SessionOptions{Site: "test"})
	assert.Nil(t, s.Fetch(context.Background(), url))
}

func TestIdentityStableForSession(t *testing.T) {
	var mu sync.Mutex
	var agents, langs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		langs = append(langs, r.Header.Get("Accept-Language"))
		mu.Unlock()
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	pool := NewIdentityPool([]string{"ua-1", "ua-2", "ua-3"}, []string{"es-PE", "es-419"}, rand.New(rand.NewSource(7)))
	id := pool.Random()
	s := newTestSession(t, SessionOptions{Site: "test", Identity: id})

	for i := 0; i < 3; i++ {
		require.NotNil(t, s.Fetch(context.Background(), server.URL))
	}

	assert.Equal(t, id, s.Identity())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{id.UserAgent, id.UserAgent, id.UserAgent}, agents)
	assert.Equal(t, []string{id.AcceptLanguage, id.AcceptLanguage, id.AcceptLanguage}, langs)
}

func TestFetchDecodesBrotli(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte(`<html><body><p class="price">S/ 1,299</p></body></html>`))
		bw.Close()
	}))
	defer server.Close()

	s := newTestSession(t, SessionOptions{Site: "test"})
	doc := s.Fetch(context.Background(), server.URL)
	require.NotNil(t, doc)
	assert.Equal(t, "S/ 1,299", doc.Find("p.price").Text())
}

func TestDelayHonoured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	s := newTestSession(t, SessionOptions{Site: "test", Delay: 100 * time.Millisecond})
	start := time.Now()
	require.NotNil(t, s.Fetch(context.Background(), server.URL))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestDelayCancellable(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	s := newTestSession(t, SessionOptions{Site: "test", Delay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Nil(t, s.Fetch(ctx, server.URL))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, hits.Load())
}

func TestIdentityPoolDeterministic(t *testing.T) {
	agents := []string{"a", "b", "c", "d"}
	p1 := NewIdentityPool(agents, nil, rand.New(rand.NewSource(42)))
	p2 := NewIdentityPool(agents, nil, rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		a, b := p1.Random(), p2.Random()
		assert.Equal(t, a, b)
		assert.Contains(t, agents, a.UserAgent)
		assert.Equal(t, defaultAcceptLanguage, a.AcceptLanguage)
	}
}

func TestIdentityPoolEmptyFallsBack(t *testing.T) {
	id := NewIdentityPool(nil, nil, nil).Random()
	assert.Equal(t, "PriceGoat/"+config.Version, id.UserAgent)
}
