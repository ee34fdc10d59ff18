package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/sources"
)

const newsAPIEndpoint = "https://newsapi.org/v2/everything"

// NewsAPI is the legacy news API, last in the fallback chain.
type NewsAPI struct {
	apiKey   string
	endpoint string
	client   *resty.Client
	table    *sources.Table
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
	Message      string           `json:"message"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

func NewNewsAPI(apiKey string, table *sources.Table, timeout time.Duration) *NewsAPI {
	client := resty.New()
	client.SetTimeout(timeout)
	return &NewsAPI{
		apiKey:   apiKey,
		endpoint: newsAPIEndpoint,
		client:   client,
		table:    table,
	}
}

// SetEndpoint overrides the upstream URL, for tests.
func (n *NewsAPI) SetEndpoint(url string) { n.endpoint = url }

func (n *NewsAPI) Name() string { return "newsapi" }

func (n *NewsAPI) Fetch(ctx context.Context, req Request) ([]article.Article, error) {
	if n.apiKey == "" {
		return nil, fmt.Errorf("newsapi: no API key: %w", ErrUnavailable)
	}

	params := map[string]string{
		"q":        BuildQuery(req),
		"domains":  strings.Join(n.table.LocalDomains(), ","),
		"sortBy":   "publishedAt",
		"language": "en",
		"pageSize": strconv.Itoa(req.PageSize),
		"apiKey":   n.apiKey,
	}
	if req.Page > 1 {
		params["page"] = strconv.Itoa(req.Page)
	}
	if !req.Window.From.IsZero() {
		params["from"] = req.Window.From.Format(time.RFC3339)
	}
	if !req.Window.To.IsZero() {
		params["to"] = req.Window.To.Format(time.RFC3339)
	}

	var payload newsAPIResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&payload).
		Get(n.endpoint)
	if err != nil {
		return nil, fmt.Errorf("newsapi: %v: %w", err, ErrUpstream)
	}
	if resp.StatusCode() != 200 {
		return nil, upstreamStatusErr("newsapi", resp.StatusCode())
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %q (%s): %w", payload.Status, payload.Message, ErrUpstream)
	}

	items := make([]article.Article, 0, len(payload.Articles))
	for _, r := range payload.Articles {
		items = append(items, article.Article{
			ID:          article.MakeID(r.URL, r.Title),
			Title:       article.StripHTML(r.Title),
			Description: article.Truncate(article.StripHTML(r.Description), 500),
			Content:     r.Content,
			URL:         r.URL,
			URLToImage:  r.URLToImage,
			PublishedAt: article.CoerceDate(r.PublishedAt),
			Source:      n.table.Resolve(r.URL, r.Source.Name),
			Category:    req.articleCategory(),
		})
	}
	return refine(items, req, n.table), nil
}
