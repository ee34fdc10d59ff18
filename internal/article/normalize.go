package article

import (
	"html"
	"regexp"
	"strings"
	"time"
)

var (
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
	datePattern = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`)
)

// dateLayouts are tried in order against upstream date strings. Providers
// disagree wildly here: the legacy news API sends RFC3339, most RSS feeds
// send RFC1123 variants, web-search payloads often send bare dates.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate parses an upstream date string. When no layout matches it
// falls back to extracting a YYYY-MM-DD shaped substring from the text.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if m := datePattern.FindString(raw); m != "" {
		m = strings.ReplaceAll(m, "/", "-")
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceDate is ParseDate with availability over precision: an
// unparseable upstream date becomes the current time instead of
// rejecting the article.
func CoerceDate(raw string) time.Time {
	if t, ok := ParseDate(raw); ok {
		return t
	}
	return time.Now()
}

// StripHTML removes tags, decodes entities and collapses whitespace.
// Feed descriptions routinely wrap HTML in CDATA, so this runs on every
// text field lifted out of a feed or search payload.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
