// Package provider holds one adapter per upstream news source. Each
// adapter builds its category query, calls the upstream with a bounded
// timeout and maps the payload into canonical articles. Failures come
// back typed so the orchestrator can decide whether to fall back.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/datewindow"
	"github.com/bantaypondo/news/internal/dedup"
	"github.com/bantaypondo/news/internal/sources"
)

var (
	// ErrUnavailable marks a provider that cannot run at all, usually
	// for want of an API key. Equivalent to a transient failure for
	// fallback purposes.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrUpstream marks a non-2xx response, timeout or undecodable
	// payload from the upstream.
	ErrUpstream = errors.New("upstream request failed")
)

// Request is the normalized query every adapter receives.
type Request struct {
	Category article.Category
	// All means the caller asked for every category; adapters widen
	// their query to the generic corruption template.
	All      bool
	Query    string
	Window   datewindow.Window
	Page     int
	PageSize int
}

// Provider is one upstream source in the fallback chain.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]article.Article, error)
}

// categoryQueries are the per-category search templates. User free text
// is appended when present.
var categoryQueries = map[article.Category]string{
	article.FloodControl:       `Philippines "flood control" project corruption anomaly`,
	article.DPWH:               `Philippines DPWH "public works" corruption investigation`,
	article.CorruptPoliticians: `Philippines politician corruption plunder graft charges`,
	article.NepoBabies:         `Philippines "nepo baby" politician family wealth luxury`,
}

const allCategoriesQuery = `Philippines government corruption scandal investigation`

// BuildQuery composes the upstream search string for a request.
func BuildQuery(req Request) string {
	base := allCategoriesQuery
	if !req.All {
		if q, ok := categoryQueries[req.Category]; ok {
			base = q
		}
	}
	if extra := strings.TrimSpace(req.Query); extra != "" {
		return base + " " + extra
	}
	return base
}

// articleCategory is the category stamped on provider-sourced items:
// the one the caller asked for, or the broadest bucket when the caller
// asked for everything.
func (r Request) articleCategory() article.Category {
	if r.All {
		return article.CorruptPoliticians
	}
	return r.Category
}

// refine runs the shared post-processing every adapter applies: keep
// only local outlets, apply the date window, deduplicate.
func refine(items []article.Article, req Request, table *sources.Table) []article.Article {
	kept := make([]article.Article, 0, len(items))
	for _, a := range items {
		if a.Title == "" {
			continue
		}
		if !table.IsLocal(a.Source.Name, a.URL) {
			continue
		}
		kept = append(kept, a)
	}
	kept = req.Window.Filter(kept)
	return dedup.Merge(kept, table)
}

func upstreamStatusErr(name string, status int) error {
	return fmt.Errorf("%s returned status %d: %w", name, status, ErrUpstream)
}
