// Package enrich fills in the full text of top-ranked articles by
// scraping the outlet page. Best effort only: any failure leaves the
// article as it was.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/metrics"
)

const (
	maxContentRunes = 1800
	minContentRunes = 100
)

// siteSelectors map outlet hostname fragments to the CSS selectors
// their article bodies live under. Order within a list matters: the
// first selector that yields paragraphs wins.
var siteSelectors = map[string][]string{
	"rappler.com": {
		".post-single__content p",
		".entry-content p",
		"article p",
	},
	"inquirer.net": {
		"#article_content p",
		".article-content p",
		"article p",
	},
	"philstar.com": {
		".article__writeup p",
		".article-content p",
		"article p",
	},
	"gmanetwork.com": {
		".story_main p",
		".article-body p",
		"article p",
	},
	"mb.com.ph": {
		".article-content p",
		".entry-content p",
		"article p",
	},
	"manilatimes.net": {
		".article-body-content p",
		".tdb_single_content p",
		"article p",
	},
}

// genericSelectors are tried for outlets without a dedicated entry.
var genericSelectors = []string{
	"article p",
	".article p",
	".post-content p",
	".entry-content p",
	".content p",
	"main p",
	"p",
}

// junkIndicators flag boilerplate lines that creep into article bodies.
var junkIndicators = []string{
	"subscribe to", "sign up for", "newsletter", "follow us",
	"read more:", "read next", "also read", "click here",
	"share this", "advertisement", "cookie", "all rights reserved",
	"download the app", "watch the video",
}

// Enricher performs bounded full-content extraction.
type Enricher struct {
	client *http.Client
	// topN articles per response get an extraction pass; 0 disables.
	topN int
}

func New(topN int, timeout time.Duration) *Enricher {
	return &Enricher{
		client: &http.Client{Timeout: timeout},
		topN:   topN,
	}
}

// EnrichTop fills Content on the first topN articles that lack it.
// Runs sequentially with a short pause so outlet sites see a polite
// client, and stops as soon as the context is done.
func (e *Enricher) EnrichTop(ctx context.Context, articles []article.Article) {
	if e.topN <= 0 {
		return
	}
	enriched := 0
	for i := range articles {
		if enriched >= e.topN || ctx.Err() != nil {
			break
		}
		if articles[i].Content != "" || articles[i].URL == "" {
			continue
		}
		content, err := e.Extract(ctx, articles[i].URL)
		if err != nil {
			logger.Debug("enrichment skipped", "url", articles[i].URL, "error", err)
			continue
		}
		articles[i].Content = content
		metrics.Global.IncrementEnriched()
		enriched++
		if enriched >= e.topN {
			break
		}
		// Pause between page fetches, not after the last one.
		select {
		case <-ctx.Done():
			return
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Extract fetches the page and pulls out the article body text.
func (e *Enricher) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "bpnews/1.0 (+https://github.com/bantaypondo/news)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	content := cleanContent(extractParagraphs(doc, selectorsFor(pageURL)))
	if len([]rune(content)) < minContentRunes {
		return "", fmt.Errorf("extracted content too short")
	}
	return content, nil
}

func selectorsFor(pageURL string) []string {
	host := article.Host(pageURL)
	for fragment, selectors := range siteSelectors {
		if strings.HasSuffix(host, fragment) {
			return append(selectors, genericSelectors...)
		}
	}
	return genericSelectors
}

func extractParagraphs(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 2 {
			return paragraphs
		}
	}
	return nil
}

// cleanContent drops boilerplate lines, joins the rest and caps the
// length at a paragraph boundary.
func cleanContent(paragraphs []string) string {
	var kept []string
	total := 0
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if junk {
			continue
		}
		runes := len([]rune(p))
		if total+runes > maxContentRunes {
			break
		}
		kept = append(kept, p)
		total += runes + 2
	}
	return strings.Join(kept, "\n\n")
}
