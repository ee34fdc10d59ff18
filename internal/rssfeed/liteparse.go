package rssfeed

import (
	"html"
	"regexp"
	"strings"
)

// RawItem is one lightly-parsed feed entry, before normalization.
type RawItem struct {
	Title       string
	Description string
	Link        string
	Published   string
}

// ItemParser extracts items from a raw feed document. The default
// implementation is gofeed; liteParser is the fallback for feeds whose
// XML is too broken for a real parser. The seam exists so a stricter
// parser can replace the regex extraction without touching the fetch
// pipeline.
type ItemParser interface {
	ParseItems(raw string) []RawItem
}

var (
	itemPattern  = regexp.MustCompile(`(?s)<(?:item|entry)(?:\s[^>]*)?>.*?</(?:item|entry)>`)
	cdataPattern = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

	titlePattern   = regexp.MustCompile(`(?s)<title[^>]*>(.*?)</title>`)
	descPattern    = regexp.MustCompile(`(?s)<description[^>]*>(.*?)</description>`)
	summaryPattern = regexp.MustCompile(`(?s)<summary[^>]*>(.*?)</summary>`)
	contentPattern = regexp.MustCompile(`(?s)<content[^>]*>(.*?)</content>`)
	linkPattern    = regexp.MustCompile(`(?s)<link[^>]*>(.*?)</link>`)
	hrefPattern    = regexp.MustCompile(`<link[^>]*href="([^"]+)"`)
	pubPattern     = regexp.MustCompile(`(?s)<(pubDate|published|updated|dc:date)[^>]*>(.*?)</(?:pubDate|published|updated|dc:date)>`)
)

// liteParser pulls items out of RSS or Atom markup by tag extraction.
// It tolerates CDATA wrapping, HTML-in-text and attribute-bearing Atom
// links, and returns nothing rather than erroring on garbage input.
type liteParser struct{}

func (liteParser) ParseItems(raw string) []RawItem {
	var items []RawItem
	for _, fragment := range itemPattern.FindAllString(raw, -1) {
		item := parseFeedItem(fragment)
		if item.Title == "" && item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseFeedItem(fragment string) RawItem {
	item := RawItem{
		Title: extractTag(fragment, titlePattern),
		Link:  extractLink(fragment),
	}
	for _, p := range []*regexp.Regexp{descPattern, summaryPattern, contentPattern} {
		if v := extractTag(fragment, p); v != "" {
			item.Description = v
			break
		}
	}
	if m := pubPattern.FindStringSubmatch(fragment); m != nil {
		item.Published = strings.TrimSpace(unwrapCDATA(m[2]))
	}
	return item
}

func extractTag(fragment string, pattern *regexp.Regexp) string {
	m := pattern.FindStringSubmatch(fragment)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(unwrapCDATA(m[1])))
}

// extractLink handles both RSS <link>url</link> and Atom
// <link href="url"/> forms.
func extractLink(fragment string) string {
	if m := linkPattern.FindStringSubmatch(fragment); m != nil {
		if link := strings.TrimSpace(unwrapCDATA(m[1])); link != "" {
			return html.UnescapeString(link)
		}
	}
	if m := hrefPattern.FindStringSubmatch(fragment); m != nil {
		return html.UnescapeString(strings.TrimSpace(m[1]))
	}
	return ""
}

func unwrapCDATA(s string) string {
	if m := cdataPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
