package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/sources"
)

// Gemini is the generative-search provider, first in the chain when
// enabled. It asks the model for recent stories as JSON and normalizes
// whatever survives parsing; the locality filter catches hallucinated
// or foreign sources.
type Gemini struct {
	client *genai.Client
	model  string
	table  *sources.Table
}

type geminiItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

func NewGemini(apiKey string, table *sources.Table) (*Gemini, error) {
	if apiKey == "" {
		return &Gemini{table: table}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: "gemini-1.5-flash", table: table}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Close releases the underlying API client.
func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Fetch(ctx context.Context, req Request) ([]article.Article, error) {
	if g.client == nil {
		return nil, fmt.Errorf("gemini: no API key: %w", ErrUnavailable)
	}

	model := g.client.GenerativeModel(g.model)
	prompt := g.buildPrompt(req)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: %v: %w", err, ErrUpstream)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty response: %w", ErrUpstream)
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	raw, err := parseGeminiItems(text)
	if err != nil {
		return nil, fmt.Errorf("gemini: %v: %w", err, ErrUpstream)
	}

	items := make([]article.Article, 0, len(raw))
	for _, r := range raw {
		items = append(items, article.Article{
			ID:          article.MakeID(r.URL, r.Title),
			Title:       article.StripHTML(r.Title),
			Description: article.Truncate(article.StripHTML(r.Description), 500),
			URL:         r.URL,
			PublishedAt: article.CoerceDate(r.PublishedAt),
			Source:      g.table.Resolve(r.URL, r.Source),
			Category:    req.articleCategory(),
		})
	}
	return refine(items, req, g.table), nil
}

func (g *Gemini) buildPrompt(req Request) string {
	max := req.PageSize
	if max <= 0 {
		max = 10
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Search recent Philippine news for: %s\n\n", BuildQuery(req))
	if !req.Window.From.IsZero() {
		fmt.Fprintf(&b, "Only stories published on or after %s.\n", req.Window.From.Format("2006-01-02"))
	}
	if !req.Window.To.IsZero() {
		fmt.Fprintf(&b, "Only stories published on or before %s.\n", req.Window.To.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, `Return up to %d real articles from Philippine news outlets only
(Rappler, Inquirer, Philstar, GMA News, ABS-CBN, Manila Bulletin and similar).

Respond with ONLY a JSON array, no prose, in exactly this shape:
[{"title":"...","description":"...","url":"https://...","source":"outlet name","publishedAt":"2006-01-02"}]
`, max)
	return b.String()
}

// parseGeminiItems digs the JSON array out of the model's reply, which
// routinely arrives wrapped in markdown fences or led by commentary.
func parseGeminiItems(text string) ([]geminiItem, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var items []geminiItem
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode response array: %w", err)
	}
	return items, nil
}
