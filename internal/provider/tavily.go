package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/sources"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily is web-search provider A.
type Tavily struct {
	apiKey   string
	endpoint string
	client   *resty.Client
	table    *sources.Table
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	Topic          string   `json:"topic"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	Days           int      `json:"days,omitempty"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

func NewTavily(apiKey string, table *sources.Table, timeout time.Duration) *Tavily {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	return &Tavily{
		apiKey:   apiKey,
		endpoint: tavilyEndpoint,
		client:   client,
		table:    table,
	}
}

// SetEndpoint overrides the upstream URL, for tests.
func (t *Tavily) SetEndpoint(url string) { t.endpoint = url }

func (t *Tavily) Name() string { return "tavily" }

func (t *Tavily) Fetch(ctx context.Context, req Request) ([]article.Article, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("tavily: no API key: %w", ErrUnavailable)
	}

	body := tavilyRequest{
		Query:      BuildQuery(req),
		Topic:      "news",
		MaxResults: req.PageSize,
		// Restricting to the curated outlets upstream saves the
		// locality filter most of its work.
		IncludeDomains: t.table.LocalDomains(),
	}

	var payload tavilyResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.apiKey).
		SetBody(body).
		SetResult(&payload).
		Post(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tavily: %v: %w", err, ErrUpstream)
	}
	if resp.StatusCode() != 200 {
		return nil, upstreamStatusErr("tavily", resp.StatusCode())
	}

	items := make([]article.Article, 0, len(payload.Results))
	for _, r := range payload.Results {
		items = append(items, article.Article{
			ID:          article.MakeID(r.URL, r.Title),
			Title:       article.StripHTML(r.Title),
			Description: article.Truncate(article.StripHTML(r.Content), 500),
			URL:         r.URL,
			PublishedAt: article.CoerceDate(r.PublishedDate),
			Source:      t.table.Resolve(r.URL, ""),
			Category:    req.articleCategory(),
			Score:       int(r.Score * 10),
		})
	}
	return refine(items, req, t.table), nil
}
