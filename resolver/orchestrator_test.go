// ABOUTME: This file tests the orchestrator's totality, caching, ordering, and rate limiting
// ABOUTME: Outbound traffic is counted through httptest servers, never the real aggregator
package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YevheniiM/google-news-scrapper-sub000/cache"
	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/ratelimit"
)

func newTestOrchestrator(t *testing.T, cloud bool, interval time.Duration) *Orchestrator {
	t.Helper()

	cfg := fastTestConfig()
	cfg.Browser = config.BrowserConfig{NavTimeout: time.Second, SettleDelay: time.Millisecond}

	resolutionCache := cache.NewResolutionCache(config.CacheConfig{
		TTL:        time.Hour,
		MaxEntries: 100,
	}, testLogger())
	t.Cleanup(resolutionCache.Cleanup)

	limiter, err := ratelimit.NewIntervalLimiter(interval, testLogger())
	require.NoError(t, err)

	return NewOrchestrator(cfg, resolutionCache, limiter, &recordingProvider{}, NewCostEnvironment(cloud), testLogger())
}

// resolvingServer serves both RPC phases and counts every request.
func resolvingServer(t *testing.T, resolvedURL string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method == http.MethodGet {
			fmt.Fprint(w, signedPage)
			return
		}
		fmt.Fprint(w, batchResponseBody(t, resolvedURL))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestOrchestrator_ResolveURL(t *testing.T) {
	t.Run("should pass through urls outside the aggregator", func(t *testing.T) {
		o := newTestOrchestrator(t, false, time.Millisecond)

		got := o.ResolveURL(context.Background(), "https://example.com/direct", nil)
		assert.Equal(t, "https://example.com/direct", got)
	})

	t.Run("should resolve once and serve the repeat from cache", func(t *testing.T) {
		o := newTestOrchestrator(t, false, time.Millisecond)
		server, hits := resolvingServer(t, "https://example.com/cached-story")
		o.rpc.baseURL = server.URL

		input := "https://news.google.com/rss/articles/AU_yqLcached?oc=5"

		first := o.ResolveURL(context.Background(), input, nil)
		assert.Equal(t, "https://example.com/cached-story", first)
		afterFirst := hits.Load()
		require.Positive(t, afterFirst)

		second := o.ResolveURL(context.Background(), input, nil)
		assert.Equal(t, first, second)
		assert.Equal(t, afterFirst, hits.Load(), "cache hit must produce zero outbound requests")
	})

	t.Run("should return the input unchanged when every strategy fails", func(t *testing.T) {
		o := newTestOrchestrator(t, true, time.Millisecond)
		server := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(server.Close)
		o.rpc.baseURL = server.URL

		input := "https://news.google.com/rss/articles/AU_yqLdead?oc=5"
		got := o.ResolveURL(context.Background(), input, nil)
		assert.Equal(t, input, got)

		// Unresolved links are never cached.
		assert.Equal(t, 0, o.cache.Stats().Size)
	})

	t.Run("should never panic on malformed input", func(t *testing.T) {
		o := newTestOrchestrator(t, true, time.Millisecond)
		server := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(server.Close)
		o.rpc.baseURL = server.URL

		for _, input := range []string{
			"",
			"news.google.com",
			"https://news.google.com/rss/articles/%%%garbage",
			"://news.google.com/broken",
		} {
			assert.Equal(t, input, o.ResolveURL(context.Background(), input, nil))
		}
	})

	t.Run("should decode a legacy identifier without touching the network", func(t *testing.T) {
		// Cloud ordering runs the heuristic before the RPC strategies, so a
		// legacy payload resolves fully offline.
		o := newTestOrchestrator(t, true, time.Millisecond)
		server, hits := resolvingServer(t, "https://example.com/should-not-be-used")
		o.rpc.baseURL = server.URL

		url := "https://example.com/offline-story"
		payload := append([]byte{0x08, 0x13, 0x22, byte(len(url))}, url...)
		payload = append(payload, 0xd2, 0x01, 0x00)
		identifier := base64.StdEncoding.EncodeToString(payload)

		got := o.ResolveURL(context.Background(), "https://news.google.com/rss/articles/"+identifier, nil)
		assert.Equal(t, url, got)
		assert.Zero(t, hits.Load())
	})

	t.Run("should fall through to the legacy decoder after hitting the 503 ceiling", func(t *testing.T) {
		o := newTestOrchestrator(t, true, time.Millisecond)

		var pageHits, batchHits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				pageHits.Add(1)
				fmt.Fprint(w, signedPage)
				return
			}
			batchHits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)
		o.rpc.baseURL = server.URL

		// An IPv6 host keeps the heuristic out: its URL pattern stops at
		// the bracket, so only the byte decoder can recover this link.
		url := "http://[2001:db8::1]/ipv6-story"
		payload := append([]byte{0x08, 0x13, 0x22, byte(len(url))}, url...)
		payload = append(payload, 0xd2, 0x01, 0x00)
		identifier := base64.RawURLEncoding.EncodeToString(payload)

		got := o.ResolveURL(context.Background(), "https://news.google.com/rss/articles/"+identifier, nil)
		assert.Equal(t, url, got)

		// Three attempts per rpc pass on cloud infrastructure, and both rpc
		// passes exhaust their ceiling before the offline decode succeeds.
		assert.Equal(t, int64(6), batchHits.Load())
		assert.Equal(t, int64(2), pageHits.Load())
	})

	t.Run("should space uncached resolutions by the limiter interval", func(t *testing.T) {
		interval := 150 * time.Millisecond
		o := newTestOrchestrator(t, true, interval)

		identifiers := make([]string, 2)
		for i := range identifiers {
			url := fmt.Sprintf("https://example.com/spaced-%d", i)
			payload := append([]byte{0x08, 0x13, 0x22, byte(len(url))}, url...)
			identifiers[i] = base64.StdEncoding.EncodeToString(payload)
		}

		start := time.Now()
		for i, id := range identifiers {
			got := o.ResolveURL(context.Background(), "https://news.google.com/rss/articles/"+id, nil)
			assert.Equal(t, fmt.Sprintf("https://example.com/spaced-%d", i), got)
		}
		assert.GreaterOrEqual(t, time.Since(start), interval)
	})

	t.Run("should fall back to the browser when a handle is supplied", func(t *testing.T) {
		o := newTestOrchestrator(t, true, time.Millisecond)
		server := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(server.Close)
		o.rpc.baseURL = server.URL

		handle := &fakeHandle{landedURL: "https://example.com/browser-resolved"}
		got := o.ResolveURL(context.Background(), "https://news.google.com/rss/articles/AU_yqLbrowser", handle)
		assert.Equal(t, "https://example.com/browser-resolved", got)
		assert.True(t, handle.navigated)
	})
}

func TestOrchestrator_StrategyChain(t *testing.T) {
	names := func(chain []Strategy) []string {
		out := make([]string, len(chain))
		for i, s := range chain {
			out[i] = s.Name()
		}
		return out
	}

	t.Run("should run the heuristic first on cloud infrastructure", func(t *testing.T) {
		o := newTestOrchestrator(t, true, time.Millisecond)
		assert.Equal(t,
			[]string{"heuristic", "rpc", "rpc_fresh_proxy", "legacy"},
			names(o.strategyChain(nil)))
	})

	t.Run("should run the heuristic after the rpc attempts locally", func(t *testing.T) {
		o := newTestOrchestrator(t, false, time.Millisecond)
		assert.Equal(t,
			[]string{"rpc", "rpc_fresh_proxy", "heuristic", "legacy"},
			names(o.strategyChain(nil)))
	})

	t.Run("should append the browser only when a handle exists", func(t *testing.T) {
		o := newTestOrchestrator(t, false, time.Millisecond)
		chain := names(o.strategyChain(&fakeHandle{}))
		assert.Equal(t, "browser", chain[len(chain)-1])
	})
}

// fakeHandle satisfies BrowserHandle for orchestrator tests.
type fakeHandle struct {
	landedURL string
	links     []string
	navigated bool
}

func (f *fakeHandle) Navigate(context.Context, string) error { f.navigated = true; return nil }

func (f *fakeHandle) Settle(context.Context, time.Duration) error { return nil }

func (f *fakeHandle) CurrentURL(context.Context) (string, error) { return f.landedURL, nil }

func (f *fakeHandle) ExtractLinks(context.Context, string) ([]string, error) {
	return f.links, nil
}
