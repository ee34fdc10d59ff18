// Package rssfeed retrieves and parses the configured RSS/Atom feeds in
// priority-ordered batches of bounded concurrency.
package rssfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/classify"
	"github.com/bantaypondo/news/internal/dedup"
	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/metrics"
	"github.com/bantaypondo/news/internal/sources"
)

const maxBodyBytes = 2 << 20 // feeds larger than 2MB are not feeds

// Options tune the batch fetch.
type Options struct {
	BatchSize   int
	FeedTimeout time.Duration
	BatchPause  time.Duration
}

func (o *Options) defaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 4
	}
	if o.FeedTimeout <= 0 {
		o.FeedTimeout = 6 * time.Second
	}
	if o.BatchPause <= 0 {
		o.BatchPause = 400 * time.Millisecond
	}
}

// Fetcher downloads feeds and turns their items into classified
// articles. The classifier decides relevance and category, since feeds
// are the one source with no pre-assigned category.
type Fetcher struct {
	feeds      []string
	classifier *classify.Classifier
	table      *sources.Table
	client     *http.Client
	fallback   ItemParser
	pacer      *rate.Limiter
	opts       Options
}

func NewFetcher(feeds []string, classifier *classify.Classifier, table *sources.Table, opts Options) *Fetcher {
	opts.defaults()
	return &Fetcher{
		feeds:      feeds,
		classifier: classifier,
		table:      table,
		client:     &http.Client{Timeout: opts.FeedTimeout},
		fallback:   liteParser{},
		pacer:      rate.NewLimiter(rate.Every(opts.BatchPause), 1),
		opts:       opts,
	}
}

// FetchAll fetches every configured feed, classifies and filters the
// items, deduplicates across feeds, sorts by relevance then recency and
// truncates to limit. targetCategory narrows results to one bucket;
// all=true admits any in-domain category. Individual feed failures are
// counted and skipped, never returned.
func (f *Fetcher) FetchAll(ctx context.Context, targetCategory article.Category, all bool, limit int) []article.Article {
	var (
		mu       sync.Mutex
		articles []article.Article
	)

	for start := 0; start < len(f.feeds); start += f.opts.BatchSize {
		if ctx.Err() != nil {
			break
		}
		if start > 0 {
			// Politeness pause between batches.
			if err := f.pacer.Wait(ctx); err != nil {
				break
			}
		}

		end := start + f.opts.BatchSize
		if end > len(f.feeds) {
			end = len(f.feeds)
		}

		var wg sync.WaitGroup
		for _, feedURL := range f.feeds[start:end] {
			wg.Add(1)
			go func(feedURL string) {
				defer wg.Done()
				items, err := f.fetchFeed(ctx, feedURL)
				if err != nil {
					logger.Warn("feed fetch failed", "feed", feedURL, "error", err)
					metrics.Global.IncrementFeedsFailed()
					return
				}
				metrics.Global.IncrementFeedsFetched()
				kept := f.classifyItems(items, targetCategory, all)
				mu.Lock()
				articles = append(articles, kept...)
				mu.Unlock()
				logger.Debug("feed processed", "feed", feedURL, "items", len(items), "kept", len(kept))
			}(feedURL)
		}
		wg.Wait()
	}

	before := len(articles)
	articles = dedup.Merge(articles, f.table)
	metrics.Global.AddDuplicatesRemoved(before - len(articles))

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Score != articles[j].Score {
			return articles[i].Score > articles[j].Score
		}
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}

// fetchFeed downloads one feed with a hard timeout and parses it,
// falling back to lightweight tag extraction when gofeed rejects the
// document.
func (f *Fetcher) fetchFeed(ctx context.Context, feedURL string) ([]RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.FeedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "bpnews/1.0 (+https://github.com/bantaypondo/news)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	// One parser per fetch; gofeed parsers are not shared across
	// goroutines.
	raw := string(body)
	feed, err := gofeed.NewParser().ParseString(raw)
	if err == nil {
		items := make([]RawItem, 0, len(feed.Items))
		for _, it := range feed.Items {
			item := RawItem{
				Title:       it.Title,
				Description: it.Description,
				Link:        it.Link,
				Published:   it.Published,
			}
			if item.Description == "" {
				item.Description = it.Content
			}
			items = append(items, item)
		}
		return items, nil
	}

	// Some outlets serve feeds with unescaped entities or stray markup
	// that no conforming parser accepts.
	logger.Debug("gofeed parse failed, trying lite parser", "feed", feedURL, "error", err)
	return f.fallback.ParseItems(raw), nil
}

func (f *Fetcher) classifyItems(items []RawItem, targetCategory article.Category, all bool) []article.Article {
	var kept []article.Article
	for _, item := range items {
		title := article.StripHTML(item.Title)
		if title == "" {
			continue
		}
		desc := article.Truncate(article.StripHTML(item.Description), 500)

		result := f.classifier.Classify(title + " " + desc)
		if !f.classifier.Relevant(result) {
			continue
		}
		if !all && result.Category != targetCategory {
			continue
		}

		kept = append(kept, article.Article{
			ID:          article.MakeID(item.Link, title),
			Title:       title,
			Description: desc,
			URL:         item.Link,
			PublishedAt: article.CoerceDate(item.Published),
			Source:      f.table.Resolve(item.Link, ""),
			Category:    result.Category,
			Score:       result.Score,
		})
	}
	return kept
}
