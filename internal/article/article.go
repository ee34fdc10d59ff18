package article

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Category buckets every article into one of the corruption beats the feed
// tracks. "all" is only ever a request-side filter and never stored here.
type Category string

const (
	FloodControl       Category = "flood-control"
	DPWH               Category = "dpwh"
	CorruptPoliticians Category = "corrupt-politicians"
	NepoBabies         Category = "nepo-babies"
)

// Categories returns the valid categories in canonical order.
func Categories() []Category {
	return []Category{FloodControl, DPWH, CorruptPoliticians, NepoBabies}
}

// ParseCategory maps a raw string to a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return known, true
		}
	}
	return "", false
}

// Coerce maps unknown or absent category strings to corrupt-politicians so
// an invalid enum value never travels past the normalization boundary.
func Coerce(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CorruptPoliticians
}

// Source identifies the outlet an article came from.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Article is the canonical unit every provider payload is normalized into.
// All text fields arrived from external HTML/JSON/XML and stay untrusted.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url,omitempty"`
	URLToImage  string    `json:"urlToImage,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      Source    `json:"source"`
	Category    Category  `json:"category"`

	// Score is the classifier relevance used for ordering RSS results.
	// It never leaves the engine.
	Score int `json:"-"`
}

// MakeID derives a stable identifier from the article URL, or from the
// title when no URL exists, so the same item maps to the same id across
// requests.
func MakeID(rawURL, title string) string {
	key := CanonicalURL(rawURL)
	if key == "" {
		key = NormalizeTitle(title)
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}

// CanonicalURL strips the query string and fragment and lowercases the
// host. This is the primary dedup key: the same story syndicated with
// different tracking parameters canonicalizes to one URL.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// Host returns the lowercased hostname of raw, with any www. prefix
// removed. Empty when raw has no parseable host.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NormalizeTitle lowercases the title, drops punctuation and collapses
// whitespace. Two headlines that normalize equally are treated as the
// same story by the deduplicator.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	runes := make([]rune, 0, len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, ' ')
		}
	}
	return strings.Join(strings.Fields(string(runes)), " ")
}
