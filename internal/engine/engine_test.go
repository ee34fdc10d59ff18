package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/enrich"
	"github.com/bantaypondo/news/internal/provider"
	"github.com/bantaypondo/news/internal/ratelimit"
	"github.com/bantaypondo/news/internal/rescache"
	"github.com/bantaypondo/news/internal/store"
)

type fakeProvider struct {
	name     string
	articles []article.Article
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, req provider.Request) ([]article.Article, error) {
	f.calls++
	return f.articles, f.err
}

func fakeArticles(n int, cat article.Category) []article.Article {
	out := make([]article.Article, 0, n)
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("https://www.rappler.com/story-%d", i)
		title := fmt.Sprintf("Story number %d", i)
		out = append(out, article.Article{
			ID:          article.MakeID(url, title),
			Title:       title,
			URL:         url,
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Hour),
			Source:      article.Source{Name: "Rappler"},
			Category:    cat,
		})
	}
	return out
}

func newTestEngine(providers []provider.Provider, demoMode bool, limit int) *Engine {
	backing := store.NewMemory(50)
	return New(
		providers,
		rescache.New(backing, time.Minute),
		ratelimit.New(backing, limit, time.Minute),
		enrich.New(0, time.Second),
		demoMode,
		2*time.Second,
	)
}

func testRequest() Request {
	return Request{
		Category: article.DPWH,
		Page:     1,
		PageSize: 20,
		ClientID: "10.0.0.1",
	}
}

func TestFallbackOrderFirstNonEmptyWins(t *testing.T) {
	empty := &fakeProvider{name: "alpha"}
	full := &fakeProvider{name: "beta", articles: fakeArticles(3, article.DPWH)}
	never := &fakeProvider{name: "gamma", articles: fakeArticles(9, article.DPWH)}

	e := newTestEngine([]provider.Provider{empty, full, never}, false, 100)
	out := e.Aggregate(context.Background(), testRequest())

	if out.Response.Status != "ok" {
		t.Fatalf("status = %s", out.Response.Status)
	}
	if out.Response.TotalResults != 3 {
		t.Errorf("totalResults = %d, want 3", out.Response.TotalResults)
	}
	if len(out.Response.ProviderTrace) != 1 || out.Response.ProviderTrace[0] != "beta:3" {
		t.Errorf("providerTrace = %v, want [beta:3]", out.Response.ProviderTrace)
	}
	if never.calls != 0 {
		t.Error("chain should stop at the first non-empty provider")
	}
}

func TestErroringProviderAdvancesChain(t *testing.T) {
	broken := &fakeProvider{name: "alpha", err: errors.New("timeout")}
	full := &fakeProvider{name: "beta", articles: fakeArticles(2, article.DPWH)}

	e := newTestEngine([]provider.Provider{broken, full}, false, 100)
	out := e.Aggregate(context.Background(), testRequest())

	if out.Response.Status != "ok" || out.Response.TotalResults != 2 {
		t.Fatalf("got status=%s total=%d", out.Response.Status, out.Response.TotalResults)
	}
}

func TestDPWHScenario(t *testing.T) {
	chain := []provider.Provider{
		&fakeProvider{name: "one"},
		&fakeProvider{name: "two"},
		&fakeProvider{name: "three", articles: fakeArticles(5, article.DPWH)},
	}
	e := newTestEngine(chain, false, 100)

	out := e.Aggregate(context.Background(), testRequest())
	if out.Response.TotalResults != 5 {
		t.Fatalf("totalResults = %d, want 5", out.Response.TotalResults)
	}
	for _, a := range out.Response.Articles {
		if a.Category != article.DPWH {
			t.Errorf("article %q category = %s, want dpwh", a.Title, a.Category)
		}
	}
}

func TestResultTruncatedToPageSize(t *testing.T) {
	full := &fakeProvider{name: "alpha", articles: fakeArticles(30, article.DPWH)}
	e := newTestEngine([]provider.Provider{full}, false, 100)

	req := testRequest()
	req.PageSize = 10
	out := e.Aggregate(context.Background(), req)
	if out.Response.TotalResults != 10 {
		t.Errorf("totalResults = %d, want 10", out.Response.TotalResults)
	}
}

func TestSuccessWritesThroughToCache(t *testing.T) {
	full := &fakeProvider{name: "alpha", articles: fakeArticles(4, article.DPWH)}
	e := newTestEngine([]provider.Provider{full}, false, 100)

	req := testRequest()
	first := e.Aggregate(context.Background(), req)
	if first.Response.Status != "ok" {
		t.Fatal("first request should succeed")
	}

	second := e.Aggregate(context.Background(), req)
	if second.Response.TotalResults != 4 {
		t.Errorf("cached totalResults = %d", second.Response.TotalResults)
	}
	if len(second.Response.ProviderTrace) != 1 || second.Response.ProviderTrace[0] != "cache:hit" {
		t.Errorf("providerTrace = %v, want [cache:hit]", second.Response.ProviderTrace)
	}
	if full.calls != 1 {
		t.Errorf("provider called %d times, cache should absorb the second request", full.calls)
	}
}

func TestCacheHitConsumesNoQuota(t *testing.T) {
	full := &fakeProvider{name: "alpha", articles: fakeArticles(1, article.DPWH)}
	e := newTestEngine([]provider.Provider{full}, false, 1)

	req := testRequest()
	if out := e.Aggregate(context.Background(), req); out.Response.Status != "ok" {
		t.Fatal("first request should succeed")
	}
	// The limit is exhausted, but identical requests keep hitting the
	// cache and never reach the limiter.
	for i := 0; i < 5; i++ {
		out := e.Aggregate(context.Background(), req)
		if out.HTTPStatus != http.StatusOK {
			t.Fatalf("request %d got status %d", i, out.HTTPStatus)
		}
	}
}

func TestRateLimitedWithoutCache(t *testing.T) {
	full := &fakeProvider{name: "alpha"}
	e := newTestEngine([]provider.Provider{full}, false, 1)

	req := testRequest()
	e.Aggregate(context.Background(), req) // consumes the window's only slot

	req.Query = "different so no cache entry"
	out := e.Aggregate(context.Background(), req)
	if out.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", out.HTTPStatus)
	}
	if !out.Response.RateLimited {
		t.Error("response should be tagged rateLimited")
	}
	if out.Response.Articles == nil {
		t.Error("even an error response carries a well-formed article list")
	}
}

func TestRateLimitedServesCachedEntry(t *testing.T) {
	full := &fakeProvider{name: "alpha", articles: fakeArticles(2, article.DPWH)}
	backing := store.NewMemory(50)
	cache := rescache.New(backing, time.Millisecond)
	e := New([]provider.Provider{full}, cache, ratelimit.New(backing, 1, time.Minute), enrich.New(0, time.Second), false, time.Second)

	req := testRequest()
	e.Aggregate(context.Background(), req)
	time.Sleep(5 * time.Millisecond) // entry goes stale, so no free cache hit

	out := e.Aggregate(context.Background(), req)
	if out.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", out.HTTPStatus)
	}
	if !out.Response.RateLimited || out.Response.TotalResults != 2 {
		t.Errorf("rate-limited caller should still get the cached articles, got %+v", out.Response)
	}
}

func TestExhaustedFallsBackToStaleCache(t *testing.T) {
	flaky := &fakeProvider{name: "alpha", articles: fakeArticles(3, article.DPWH)}
	backing := store.NewMemory(50)
	cache := rescache.New(backing, time.Millisecond)
	e := New([]provider.Provider{flaky}, cache, ratelimit.New(backing, 100, time.Minute), enrich.New(0, time.Second), false, time.Second)

	req := testRequest()
	e.Aggregate(context.Background(), req)
	time.Sleep(5 * time.Millisecond)

	// Providers dry up; the stale entry carries the response.
	flaky.articles = nil
	out := e.Aggregate(context.Background(), req)
	if out.Response.Status != "ok" {
		t.Fatalf("status = %s, want ok from stale cache", out.Response.Status)
	}
	if !out.Response.Fallback {
		t.Error("stale-cache response must be flagged fallback")
	}
	if len(out.Response.ProviderTrace) != 1 || out.Response.ProviderTrace[0] != "cache:stale" {
		t.Errorf("providerTrace = %v, want [cache:stale]", out.Response.ProviderTrace)
	}
}

func TestTotalExhaustionWithoutCache(t *testing.T) {
	e := newTestEngine([]provider.Provider{&fakeProvider{name: "alpha"}}, false, 100)

	out := e.Aggregate(context.Background(), testRequest())
	if out.Response.Status != "error" {
		t.Fatalf("status = %s, want error", out.Response.Status)
	}
	if out.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("httpStatus = %d, want 503", out.HTTPStatus)
	}
	if out.Response.Error == "" {
		t.Error("error response should carry a message")
	}
}

func TestDemoModeFlaggedAsFallback(t *testing.T) {
	e := newTestEngine([]provider.Provider{&fakeProvider{name: "alpha"}}, true, 100)

	req := testRequest()
	req.Category = article.NepoBabies
	out := e.Aggregate(context.Background(), req)

	if out.Response.Status != "ok" {
		t.Fatalf("status = %s", out.Response.Status)
	}
	if !out.Response.Fallback {
		t.Error("demo data must be flagged fallback")
	}
	if len(out.Response.ProviderTrace) != 1 || out.Response.ProviderTrace[0] != "demo:data" {
		t.Errorf("providerTrace = %v, want [demo:data]", out.Response.ProviderTrace)
	}
	for _, a := range out.Response.Articles {
		if a.Category != article.NepoBabies {
			t.Errorf("demo article category = %s", a.Category)
		}
	}
}
