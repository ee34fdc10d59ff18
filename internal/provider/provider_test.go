package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/classify"
	"github.com/bantaypondo/news/internal/datewindow"
	"github.com/bantaypondo/news/internal/rssfeed"
	"github.com/bantaypondo/news/internal/sources"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(Request{Category: article.DPWH})
	if !strings.Contains(q, "DPWH") {
		t.Errorf("dpwh query = %q", q)
	}

	q = BuildQuery(Request{All: true, Query: "bridge collapse"})
	if !strings.Contains(q, "corruption") || !strings.HasSuffix(q, "bridge collapse") {
		t.Errorf("all query with free text = %q", q)
	}
}

func TestNewsAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Errorf("missing apiKey param")
		}
		if r.URL.Query().Get("domains") == "" {
			t.Errorf("missing domains restriction")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"totalResults": 2,
			"articles": [
				{
					"source": {"name": "Rappler"},
					"title": "COA flags flood control project",
					"description": "Auditors found anomalies.",
					"url": "https://www.rappler.com/story",
					"publishedAt": "2025-08-12T10:30:00Z"
				},
				{
					"source": {"name": "Reuters"},
					"title": "Foreign wire story",
					"description": "Not a local outlet.",
					"url": "https://www.reuters.com/story",
					"publishedAt": "2025-08-12T10:30:00Z"
				}
			]
		}`))
	}))
	defer srv.Close()

	p := NewNewsAPI("test-key", sources.Default(), 2*time.Second)
	p.SetEndpoint(srv.URL)

	got, err := p.Fetch(context.Background(), Request{Category: article.FloodControl, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1 after locality filtering", len(got))
	}
	a := got[0]
	if a.Source.Name != "Rappler" {
		t.Errorf("source = %q", a.Source.Name)
	}
	if a.Category != article.FloodControl {
		t.Errorf("category = %s, want requested category", a.Category)
	}
	if a.ID == "" {
		t.Error("id should be derived from the URL")
	}
}

func TestNewsAPIUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewNewsAPI("test-key", sources.Default(), 2*time.Second)
	p.SetEndpoint(srv.URL)

	_, err := p.Fetch(context.Background(), Request{Category: article.DPWH, PageSize: 20})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("got %v, want ErrUpstream", err)
	}
}

func TestNewsAPIMissingKey(t *testing.T) {
	p := NewNewsAPI("", sources.Default(), time.Second)
	_, err := p.Fetch(context.Background(), Request{Category: article.DPWH, PageSize: 20})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestSerperFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "serper-key" {
			t.Errorf("missing X-API-KEY header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"news": [
				{
					"title": "Senate opens probe into ghost dikes",
					"link": "https://newsinfo.inquirer.net/story",
					"snippet": "Hearings begin this week.",
					"date": "2 hours ago",
					"source": "Inquirer",
					"imageUrl": "https://newsinfo.inquirer.net/img.jpg"
				}
			]
		}`))
	}))
	defer srv.Close()

	p := NewSerper("serper-key", sources.Default(), 2*time.Second)
	p.SetEndpoint(srv.URL)

	got, err := p.Fetch(context.Background(), Request{Category: article.FloodControl, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1", len(got))
	}
	if got[0].Source.Name != "Philippine Daily Inquirer" {
		t.Errorf("source = %q, want curated name", got[0].Source.Name)
	}
	// "2 hours ago" is unparseable and coerces to now.
	if time.Since(got[0].PublishedAt) > time.Minute {
		t.Errorf("relative date should coerce to now, got %v", got[0].PublishedAt)
	}
}

func TestTavilyFetchAppliesWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"title": "Old flood control story",
					"url": "https://www.rappler.com/old",
					"content": "From last year.",
					"score": 0.9,
					"published_date": "2024-01-10"
				},
				{
					"title": "Recent flood control story",
					"url": "https://www.rappler.com/new",
					"content": "From this month.",
					"score": 0.8,
					"published_date": "2025-08-10"
				}
			]
		}`))
	}))
	defer srv.Close()

	p := NewTavily("tavily-key", sources.Default(), 2*time.Second)
	p.SetEndpoint(srv.URL)

	got, err := p.Fetch(context.Background(), Request{
		Category: article.FloodControl,
		Window:   datewindow.Parse("2025-08-01", "2025-08-31"),
		PageSize: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1 inside the window", len(got))
	}
	if got[0].URL != "https://www.rappler.com/new" {
		t.Errorf("kept %q", got[0].URL)
	}
}

func TestRSSKeepsPartialResultsOnDeadline(t *testing.T) {
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss><channel><item>
<title>COA flags anomalous flood control project in Bulacan</title>
<link>https://www.rappler.com/flood-story</link>
<pubDate>Tue, 12 Aug 2025 10:30:00 +0800</pubDate>
</item></channel></rss>`))
	}))
	defer fast.Close()
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer hung.Close()

	fetcher := rssfeed.NewFetcher([]string{fast.URL, hung.URL}, classify.New(), sources.Default(), rssfeed.Options{
		BatchSize:   2,
		FeedTimeout: 2 * time.Second,
		BatchPause:  time.Millisecond,
	})
	p := NewRSS(fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	got, err := p.Fetch(ctx, Request{All: true, PageSize: 20})
	if err != nil {
		t.Fatalf("partial collection must not surface the deadline, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1 from the fast feed", len(got))
	}
}

func TestRSSEmptyRunSurfacesCancellation(t *testing.T) {
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer hung.Close()

	fetcher := rssfeed.NewFetcher([]string{hung.URL}, classify.New(), sources.Default(), rssfeed.Options{
		BatchSize:   1,
		FeedTimeout: 2 * time.Second,
		BatchPause:  time.Millisecond,
	})
	p := NewRSS(fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := p.Fetch(ctx, Request{All: true, PageSize: 20}); err == nil {
		t.Error("an empty timed-out run should report the cancellation")
	}
}

func TestParseGeminiItemsFencedResponse(t *testing.T) {
	text := "Here are the articles:\n```json\n[{\"title\":\"T\",\"url\":\"https://www.rappler.com/x\",\"source\":\"Rappler\",\"publishedAt\":\"2025-08-12\"}]\n```"
	items, err := parseGeminiItems(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "T" {
		t.Fatalf("items = %+v", items)
	}
}

func TestParseGeminiItemsNoArray(t *testing.T) {
	if _, err := parseGeminiItems("I could not find any articles."); err == nil {
		t.Error("expected error when no JSON array present")
	}
}
