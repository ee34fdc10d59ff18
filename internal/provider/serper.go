package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/sources"
)

const serperEndpoint = "https://google.serper.dev/news"

// Serper is web-search provider B.
type Serper struct {
	apiKey   string
	endpoint string
	client   *resty.Client
	table    *sources.Table
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
}

type serperResponse struct {
	News []serperResult `json:"news"`
}

type serperResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	Source   string `json:"source"`
	ImageURL string `json:"imageUrl"`
}

func NewSerper(apiKey string, table *sources.Table, timeout time.Duration) *Serper {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	return &Serper{
		apiKey:   apiKey,
		endpoint: serperEndpoint,
		client:   client,
		table:    table,
	}
}

// SetEndpoint overrides the upstream URL, for tests.
func (s *Serper) SetEndpoint(url string) { s.endpoint = url }

func (s *Serper) Name() string { return "serper" }

func (s *Serper) Fetch(ctx context.Context, req Request) ([]article.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("serper: no API key: %w", ErrUnavailable)
	}

	body := serperRequest{
		Q:   BuildQuery(req),
		Num: req.PageSize,
		GL:  "ph",
		HL:  "en",
	}

	var payload serperResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", s.apiKey).
		SetBody(body).
		SetResult(&payload).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("serper: %v: %w", err, ErrUpstream)
	}
	if resp.StatusCode() != 200 {
		return nil, upstreamStatusErr("serper", resp.StatusCode())
	}

	items := make([]article.Article, 0, len(payload.News))
	for _, r := range payload.News {
		// Serper dates arrive as relative text ("2 hours ago") more
		// often than not; those coerce to now.
		items = append(items, article.Article{
			ID:          article.MakeID(r.Link, r.Title),
			Title:       article.StripHTML(r.Title),
			Description: article.Truncate(article.StripHTML(r.Snippet), 500),
			URL:         r.Link,
			URLToImage:  r.ImageURL,
			PublishedAt: article.CoerceDate(r.Date),
			Source:      s.table.Resolve(r.Link, r.Source),
			Category:    req.articleCategory(),
		})
	}
	return refine(items, req, s.table), nil
}
