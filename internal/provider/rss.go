package provider

import (
	"context"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/rssfeed"
)

// RSS adapts the feed fetcher into the provider chain. It sits between
// the paid search providers and the legacy news API: free, always
// available, but limited to whatever the outlets currently syndicate.
type RSS struct {
	fetcher *rssfeed.Fetcher
}

func NewRSS(fetcher *rssfeed.Fetcher) *RSS {
	return &RSS{fetcher: fetcher}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Fetch(ctx context.Context, req Request) ([]article.Article, error) {
	articles := r.fetcher.FetchAll(ctx, req.Category, req.All, req.PageSize)
	// Feed items have no upstream date filter, so the window applies
	// here. Relevance and category filtering already happened inside
	// the fetcher; feed items skip the locality filter because the
	// feed list itself is the curated set.
	articles = req.Window.Filter(articles)
	// A pass cut short by the deadline is still a success when some
	// feeds delivered; only an empty run surfaces the cancellation.
	if len(articles) == 0 && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return articles, nil
}
