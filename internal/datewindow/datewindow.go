// Package datewindow filters articles against an optional [from, to]
// publication range.
package datewindow

import (
	"time"

	"github.com/bantaypondo/news/internal/article"
)

// Window is an optional two-sided date range. A zero From or To leaves
// that side unbounded; the zero Window admits everything.
type Window struct {
	From time.Time
	To   time.Time
}

// Parse builds a Window from ISO 8601 strings. Invalid values are
// dropped rather than rejecting the request.
func Parse(from, to string) Window {
	var w Window
	if from != "" {
		if t, ok := article.ParseDate(from); ok {
			w.From = t
		}
	}
	if to != "" {
		if t, ok := article.ParseDate(to); ok {
			w.To = t
		}
	}
	return w
}

// IsZero reports whether the window has no bounds at all.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether t falls inside the window, bounds inclusive.
// A zero t is treated as inside: an article whose upstream date never
// parsed should not be dropped over a formatting quirk.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Filter keeps only the articles whose publish time the window admits.
func (w Window) Filter(articles []article.Article) []article.Article {
	if w.IsZero() {
		return articles
	}
	kept := make([]article.Article, 0, len(articles))
	for _, a := range articles {
		if w.Contains(a.PublishedAt) {
			kept = append(kept, a)
		}
	}
	return kept
}
