package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bantaypondo/news/internal/classify"
	"github.com/bantaypondo/news/internal/config"
	"github.com/bantaypondo/news/internal/engine"
	"github.com/bantaypondo/news/internal/enrich"
	"github.com/bantaypondo/news/internal/httpapi"
	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/provider"
	"github.com/bantaypondo/news/internal/ratelimit"
	"github.com/bantaypondo/news/internal/rescache"
	"github.com/bantaypondo/news/internal/rssfeed"
	"github.com/bantaypondo/news/internal/sources"
	"github.com/bantaypondo/news/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false)
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Debug)

	table := loadTable(cfg)
	classifier := loadClassifier(cfg)
	feeds := loadFeeds(cfg)

	backing, cleanup := selectStore(cfg)
	defer cleanup()

	cache := rescache.New(backing, cfg.CacheTTL)
	limiter := ratelimit.New(backing, cfg.RateLimit, cfg.RateLimitWindow)
	enricher := enrich.New(cfg.EnrichTopArticles, cfg.EnrichTimeout)

	fetcher := rssfeed.NewFetcher(feeds, classifier, table, rssfeed.Options{
		BatchSize:   cfg.RSSBatchSize,
		FeedTimeout: cfg.RSSFeedTimeout,
		BatchPause:  cfg.RSSBatchPause,
	})

	providers := buildChain(cfg, table, fetcher)
	eng := engine.New(providers, cache, limiter, enricher, cfg.DemoMode, cfg.ProviderTimeout)

	mux := http.NewServeMux()
	api := httpapi.NewServer(eng, httpapi.Options{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
	api.Routes(mux)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "demo_mode", cfg.DemoMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// buildChain assembles the fallback chain in priority order: generative
// search first when enabled, then the web-search providers, then RSS,
// then the legacy news API. Providers without keys stay in the chain
// and report themselves unavailable, which the orchestrator treats as
// any other failure.
func buildChain(cfg *config.Config, table *sources.Table, fetcher *rssfeed.Fetcher) []provider.Provider {
	var chain []provider.Provider

	if cfg.GeminiEnabled {
		gem, err := provider.NewGemini(cfg.GeminiAPIKey, table)
		if err != nil {
			logger.Warn("gemini provider disabled", "error", err)
		} else {
			chain = append(chain, gem)
		}
	}
	chain = append(chain,
		provider.NewTavily(cfg.TavilyAPIKey, table, cfg.ProviderTimeout),
		provider.NewSerper(cfg.SerperAPIKey, table, cfg.ProviderTimeout),
		provider.NewRSS(fetcher),
		provider.NewNewsAPI(cfg.NewsAPIKey, table, cfg.ProviderTimeout),
	)
	return chain
}

func selectStore(cfg *config.Config) (store.Store, func()) {
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL, cfg.CacheCapacity)
		if err == nil {
			return pg, func() { pg.Close() }
		}
		logger.Warn("postgres store unavailable, using in-memory store", "error", err)
	}
	mem := store.NewMemory(cfg.CacheCapacity)
	return mem, func() { mem.Close() }
}

func loadTable(cfg *config.Config) *sources.Table {
	table, err := sources.Load(cfg.OutletsConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("outlets config unreadable, using defaults", "error", err)
		}
		return sources.Default()
	}
	return table
}

func loadClassifier(cfg *config.Config) *classify.Classifier {
	classifier, err := classify.Load(cfg.KeywordsConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("keywords config unreadable, using defaults", "error", err)
		}
		return classify.New()
	}
	return classifier
}

func loadFeeds(cfg *config.Config) []string {
	feeds, err := rssfeed.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		logger.Warn("feeds config unreadable, using defaults", "error", err)
		return rssfeed.DefaultFeeds()
	}
	return feeds
}
