// Package dedup collapses article lists by canonical URL first and by
// normalized title second, so the same story syndicated under different
// tracking parameters or by different providers survives exactly once.
package dedup

import (
	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/sources"
)

// Merge deduplicates articles. Aggregator-hosted items are excluded
// outright. First tier keys on canonical URL, second tier on normalized
// title; within each tier the first occurrence wins, which preserves the
// provider's ordering preference.
func Merge(articles []article.Article, table *sources.Table) []article.Article {
	seenURLs := make(map[string]struct{}, len(articles))
	seenTitles := make(map[string]struct{}, len(articles))
	result := make([]article.Article, 0, len(articles))

	for _, a := range articles {
		if table != nil && table.IsAggregator(a.URL) {
			continue
		}

		urlKey := article.CanonicalURL(a.URL)
		if urlKey != "" {
			if _, dup := seenURLs[urlKey]; dup {
				continue
			}
		}

		// Same headline from two providers at two different URLs is
		// still the same story.
		titleKey := article.NormalizeTitle(a.Title)
		if titleKey != "" {
			if _, dup := seenTitles[titleKey]; dup {
				continue
			}
		}

		if urlKey == "" && titleKey == "" {
			continue
		}
		if urlKey != "" {
			seenURLs[urlKey] = struct{}{}
		}
		if titleKey != "" {
			seenTitles[titleKey] = struct{}{}
		}
		result = append(result, a)
	}
	return result
}
