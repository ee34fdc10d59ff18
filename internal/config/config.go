// Package config loads engine tunables and provider credentials from the
// environment. Data files (feeds, outlets, keywords) live under configs/
// as YAML and are referenced by path here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Provider credentials. A missing key makes that provider report
	// itself unavailable; it never fails startup.
	GeminiAPIKey string
	TavilyAPIKey string
	SerperAPIKey string
	NewsAPIKey   string

	// GeminiEnabled gates the generative provider even when a key exists.
	GeminiEnabled bool

	// DemoMode substitutes curated static data when every provider and
	// the cache have failed. The response is flagged as fallback.
	DemoMode bool

	// Shared store. Empty DatabaseURL selects the in-memory store.
	DatabaseURL string

	// Data file paths
	FeedsConfigPath    string
	OutletsConfigPath  string
	KeywordsConfigPath string

	// Result cache
	CacheTTL      time.Duration
	CacheCapacity int

	// Rate limiting (fixed window, per client IP)
	RateLimit       int
	RateLimitWindow time.Duration

	// RSS fetching
	RSSBatchSize    int
	RSSFeedTimeout  time.Duration
	RSSBatchPause   time.Duration
	ProviderTimeout time.Duration

	// Enrichment: articles per response that get full-content
	// extraction. 0 disables.
	EnrichTopArticles int
	EnrichTimeout     time.Duration

	// Paging
	DefaultPageSize int
	MaxPageSize     int

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		FeedsConfigPath:    getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		OutletsConfigPath:  getEnvOrDefault("OUTLETS_CONFIG_PATH", "configs/outlets.yaml"),
		KeywordsConfigPath: getEnvOrDefault("KEYWORDS_CONFIG_PATH", "configs/keywords.yaml"),
		CacheTTL:           getEnvDurationOrDefault("CACHE_TTL", 5*time.Minute),
		CacheCapacity:      getEnvIntOrDefault("CACHE_CAPACITY", 100),
		RateLimit:          getEnvIntOrDefault("RATE_LIMIT", 30),
		RateLimitWindow:    getEnvDurationOrDefault("RATE_LIMIT_WINDOW", time.Minute),
		RSSBatchSize:       getEnvIntOrDefault("RSS_BATCH_SIZE", 4),
		RSSFeedTimeout:     getEnvDurationOrDefault("RSS_FEED_TIMEOUT", 6*time.Second),
		RSSBatchPause:      getEnvDurationOrDefault("RSS_BATCH_PAUSE", 400*time.Millisecond),
		ProviderTimeout:    getEnvDurationOrDefault("PROVIDER_TIMEOUT", 8*time.Second),
		EnrichTopArticles:  getEnvIntOrDefault("ENRICH_TOP_ARTICLES", 3),
		EnrichTimeout:      getEnvDurationOrDefault("ENRICH_TIMEOUT", 10*time.Second),
		DefaultPageSize:    getEnvIntOrDefault("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:        getEnvIntOrDefault("MAX_PAGE_SIZE", 50),
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	cfg.SerperAPIKey = os.Getenv("SERPER_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.GeminiEnabled = getEnvBool("GEMINI_ENABLED", cfg.GeminiAPIKey != "")
	cfg.DemoMode = getEnvBool("DEMO_MODE", false)
	cfg.Debug = getEnvBool("DEBUG", false)

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.CacheCapacity < 1 {
		return fmt.Errorf("CACHE_CAPACITY must be at least 1")
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("RATE_LIMIT must be at least 1")
	}
	if c.MaxPageSize < 1 || c.MaxPageSize > 50 {
		return fmt.Errorf("MAX_PAGE_SIZE must be in [1,50]")
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be in [1,MAX_PAGE_SIZE]")
	}
	if c.RSSBatchSize < 1 {
		return fmt.Errorf("RSS_BATCH_SIZE must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return defaultValue
}
