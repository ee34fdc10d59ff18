// Package engine is the aggregation orchestrator: rate-limit gate,
// cache lookup, the provider fallback chain, dedup, cache write-through
// and the sticky-cache / demo-data degradation paths.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/datewindow"
	"github.com/bantaypondo/news/internal/enrich"
	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/metrics"
	"github.com/bantaypondo/news/internal/provider"
	"github.com/bantaypondo/news/internal/ratelimit"
	"github.com/bantaypondo/news/internal/rescache"
)

// Request is a normalized, validated feed query.
type Request struct {
	// Category is meaningful only when All is false.
	Category article.Category
	All      bool
	Query    string
	// From and To are the validated ISO strings, kept for the cache
	// key; Window is their parsed form.
	From, To string
	Window   datewindow.Window
	Page     int
	PageSize int
	// ClientID identifies the caller for rate limiting.
	ClientID string
}

func (r Request) categoryString() string {
	if r.All {
		return "all"
	}
	return string(r.Category)
}

// Response is the envelope the presentation layer consumes. It is
// well-formed even on failure.
type Response struct {
	Status        string            `json:"status"`
	TotalResults  int               `json:"totalResults"`
	Articles      []article.Article `json:"articles"`
	Fallback      bool              `json:"fallback,omitempty"`
	RateLimited   bool              `json:"rateLimited,omitempty"`
	Error         string            `json:"error,omitempty"`
	ProviderTrace []string          `json:"providerTrace,omitempty"`
}

// Outcome bundles the response with the transport-level extras the
// HTTP layer needs.
type Outcome struct {
	Response   Response
	HTTPStatus int
	Decision   ratelimit.Decision
	// Limited reports whether the rate limiter was consulted for this
	// request; cache hits never are.
	Limited bool
}

// Engine runs the fallback chain. Providers are tried strictly in the
// order given; the first one returning at least one article wins.
type Engine struct {
	providers []provider.Provider
	cache     *rescache.Cache
	limiter   *ratelimit.Limiter
	enricher  *enrich.Enricher
	demoMode  bool
	timeout   time.Duration
}

func New(providers []provider.Provider, cache *rescache.Cache, limiter *ratelimit.Limiter, enricher *enrich.Enricher, demoMode bool, providerTimeout time.Duration) *Engine {
	return &Engine{
		providers: providers,
		cache:     cache,
		limiter:   limiter,
		enricher:  enricher,
		demoMode:  demoMode,
		timeout:   providerTimeout,
	}
}

// Aggregate serves one feed request end to end.
func (e *Engine) Aggregate(ctx context.Context, req Request) Outcome {
	start := time.Now()
	defer func() {
		metrics.Global.RecordAggregationTime(time.Since(start))
	}()
	metrics.Global.IncrementRequests()

	key := rescache.Key(req.categoryString(), req.Query, req.From, req.To, req.Page, req.PageSize)

	// Fresh cache entries answer without touching the limiter or any
	// provider: a cache hit costs nothing, so it consumes no quota.
	if resp, ok := e.cachedResponse(ctx, key, true); ok {
		metrics.Global.IncrementCacheHits()
		resp.ProviderTrace = []string{"cache:hit"}
		return Outcome{Response: resp, HTTPStatus: http.StatusOK}
	}

	decision := e.limiter.Check(ctx, req.ClientID)
	if !decision.Allowed {
		metrics.Global.IncrementRateLimited()
		logger.Info("rate limited", "client", req.ClientID)
		// Serve whatever is cached for this key, stale or not, rather
		// than blocking the caller outright.
		if resp, ok := e.cachedResponse(ctx, key, false); ok {
			resp.RateLimited = true
			resp.ProviderTrace = []string{"ratelimit:hit"}
			return Outcome{Response: resp, HTTPStatus: http.StatusTooManyRequests, Decision: decision, Limited: true}
		}
		return Outcome{
			Response: Response{
				Status:        "error",
				Articles:      []article.Article{},
				RateLimited:   true,
				Error:         "rate limit exceeded",
				ProviderTrace: []string{"ratelimit:hit"},
			},
			HTTPStatus: http.StatusTooManyRequests,
			Decision:   decision,
			Limited:    true,
		}
	}

	preq := provider.Request{
		Category: req.Category,
		All:      req.All,
		Query:    req.Query,
		Window:   req.Window,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	for _, p := range e.providers {
		if ctx.Err() != nil {
			break
		}
		articles, err := e.tryProvider(ctx, p, preq)
		if err != nil {
			metrics.Global.RecordProviderFailure(p.Name())
			logger.Warn("provider failed, advancing chain", "provider", p.Name(), "error", err)
			continue
		}
		if len(articles) == 0 {
			metrics.Global.RecordProviderFailure(p.Name())
			logger.Debug("provider returned nothing", "provider", p.Name())
			continue
		}

		metrics.Global.RecordProviderSuccess(p.Name())
		if len(articles) > req.PageSize {
			articles = articles[:req.PageSize]
		}
		e.enricher.EnrichTop(ctx, articles)

		resp := Response{
			Status:        "ok",
			TotalResults:  len(articles),
			Articles:      articles,
			ProviderTrace: []string{fmt.Sprintf("%s:%d", p.Name(), len(articles))},
		}
		e.writeThrough(ctx, key, resp)
		metrics.Global.SetLastRun()
		return Outcome{Response: resp, HTTPStatus: http.StatusOK, Decision: decision, Limited: true}
	}

	// Chain exhausted. A stale cache entry beats an empty feed.
	if resp, ok := e.cachedResponse(ctx, key, false); ok {
		metrics.Global.IncrementCacheStale()
		resp.Fallback = true
		resp.ProviderTrace = []string{"cache:stale"}
		return Outcome{Response: resp, HTTPStatus: http.StatusOK, Decision: decision, Limited: true}
	}

	if e.demoMode {
		articles := demoArticles(req)
		return Outcome{
			Response: Response{
				Status:        "ok",
				TotalResults:  len(articles),
				Articles:      articles,
				Fallback:      true,
				ProviderTrace: []string{"demo:data"},
			},
			HTTPStatus: http.StatusOK,
			Decision:   decision,
			Limited:    true,
		}
	}

	metrics.Global.SetError("all providers exhausted")
	return Outcome{
		Response: Response{
			Status:        "error",
			Articles:      []article.Article{},
			Error:         "all news providers are currently unavailable",
			ProviderTrace: []string{"error:exhausted"},
		},
		HTTPStatus: http.StatusServiceUnavailable,
		Decision:   decision,
		Limited:    true,
	}
}

func (e *Engine) tryProvider(ctx context.Context, p provider.Provider, req provider.Request) ([]article.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return p.Fetch(ctx, req)
}

// cachedResponse reads and decodes the entry under key. freshOnly
// distinguishes the normal lookup from the sticky fallback, which will
// take anything still in the store.
func (e *Engine) cachedResponse(ctx context.Context, key string, freshOnly bool) (Response, bool) {
	payload, fresh, ok := e.cache.Get(ctx, key)
	if !ok || (freshOnly && !fresh) {
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		logger.Warn("cache entry undecodable, ignoring", "error", err)
		return Response{}, false
	}
	return resp, true
}

func (e *Engine) writeThrough(ctx context.Context, key string, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("cache marshal failed", "error", err)
		return
	}
	e.cache.Set(ctx, key, payload)
}
