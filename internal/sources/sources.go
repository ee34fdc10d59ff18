// Package sources holds the curated table of Philippine news outlets the
// engine admits, plus the deny-list of aggregators it always rejects.
package sources

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bantaypondo/news/internal/article"
)

// defaultOutlets maps outlet domains to display names. Subdomains match
// their parent entry, so newsinfo.inquirer.net resolves like inquirer.net.
var defaultOutlets = map[string]string{
	"rappler.com":        "Rappler",
	"inquirer.net":       "Philippine Daily Inquirer",
	"gmanetwork.com":     "GMA News",
	"abs-cbn.com":        "ABS-CBN News",
	"philstar.com":       "The Philippine Star",
	"mb.com.ph":          "Manila Bulletin",
	"manilatimes.net":    "The Manila Times",
	"manilastandard.net": "Manila Standard",
	"pna.gov.ph":         "Philippine News Agency",
	"sunstar.com.ph":     "SunStar",
	"bworldonline.com":   "BusinessWorld",
	"tribune.net.ph":     "Daily Tribune",
	"verafiles.org":      "VERA Files",
	"pcij.org":           "Philippine Center for Investigative Journalism",
	"bulatlat.com":       "Bulatlat",
	"abante.com.ph":      "Abante",
	"remate.ph":          "Remate",
	"journal.com.ph":     "People's Journal",
	"politiko.com.ph":    "Politiko",
	"politics.com.ph":    "Politics.com.ph",
	"onenews.ph":         "One News",
	"cnnphilippines.com": "CNN Philippines",
	"interaksyon.com":    "Interaksyon",
}

// defaultFragments are lowercased substrings of source labels that mark a
// local outlet even when the upstream never gave us a usable URL.
var defaultFragments = []string{
	"rappler",
	"inquirer",
	"gma news",
	"gma integrated",
	"abs-cbn",
	"philstar",
	"philippine star",
	"manila bulletin",
	"manila times",
	"manila standard",
	"philippine news agency",
	"sunstar",
	"businessworld",
	"daily tribune",
	"vera files",
	"pcij",
	"bulatlat",
	"abante",
	"remate",
	"politiko",
	"interaksyon",
}

// defaultAggregators are portals that republish local stories. They are
// rejected even when an allow-list rule would otherwise admit the item.
var defaultAggregators = []string{
	"news.google.com",
	"google.com",
	"news.yahoo.com",
	"yahoo.com",
	"bing.com",
	"msn.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"t.co",
	"instagram.com",
	"tiktok.com",
	"youtube.com",
	"reddit.com",
	"linkedin.com",
	"pinterest.com",
	"flipboard.com",
	"feedly.com",
}

// Table answers locality questions about a source name and URL pair.
// A Table is immutable after construction and safe for concurrent use.
type Table struct {
	outlets     map[string]string
	names       map[string]string
	fragments   []string
	aggregators map[string]struct{}
}

// Default returns the compiled-in outlet table.
func Default() *Table {
	return build(defaultOutlets, defaultFragments, defaultAggregators)
}

type fileFormat struct {
	Outlets []struct {
		Domain string `yaml:"domain"`
		Name   string `yaml:"name"`
	} `yaml:"outlets"`
	NameFragments []string `yaml:"name_fragments"`
	Aggregators   []string `yaml:"aggregators"`
}

// Load reads an outlet table from a YAML file. Sections absent from the
// file keep their compiled-in defaults.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse outlets config: %w", err)
	}

	outlets := defaultOutlets
	if len(ff.Outlets) > 0 {
		outlets = make(map[string]string, len(ff.Outlets))
		for _, o := range ff.Outlets {
			if o.Domain != "" && o.Name != "" {
				outlets[strings.ToLower(o.Domain)] = o.Name
			}
		}
	}
	fragments := defaultFragments
	if len(ff.NameFragments) > 0 {
		fragments = ff.NameFragments
	}
	aggregators := defaultAggregators
	if len(ff.Aggregators) > 0 {
		aggregators = ff.Aggregators
	}
	return build(outlets, fragments, aggregators), nil
}

func build(outlets map[string]string, fragments, aggregators []string) *Table {
	t := &Table{
		outlets:     make(map[string]string, len(outlets)),
		names:       make(map[string]string, len(outlets)),
		aggregators: make(map[string]struct{}, len(aggregators)),
	}
	for domain, name := range outlets {
		t.outlets[strings.ToLower(domain)] = name
		t.names[strings.ToLower(name)] = name
	}
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			t.fragments = append(t.fragments, f)
		}
	}
	for _, a := range aggregators {
		t.aggregators[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	return t
}

// IsLocal reports whether the (sourceName, url) pair belongs to a curated
// local outlet. Aggregator hosts lose regardless of the allow rules, which
// keeps syndication portals out even when they carry a local byline.
func (t *Table) IsLocal(sourceName, rawURL string) bool {
	if t.IsAggregator(rawURL) {
		return false
	}
	if host := article.Host(rawURL); host != "" {
		if _, ok := t.lookupDomain(host); ok {
			return true
		}
	}
	name := strings.ToLower(strings.TrimSpace(sourceName))
	if name == "" {
		return false
	}
	if _, ok := t.names[name]; ok {
		return true
	}
	for _, frag := range t.fragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// IsAggregator reports whether the URL points at a denied portal.
func (t *Table) IsAggregator(rawURL string) bool {
	host := article.Host(rawURL)
	if host == "" {
		return false
	}
	return t.hostDenied(host)
}

func (t *Table) hostDenied(host string) bool {
	if _, ok := t.aggregators[host]; ok {
		return true
	}
	for denied := range t.aggregators {
		if strings.HasSuffix(host, "."+denied) {
			return true
		}
	}
	return false
}

// Resolve produces the article source for a URL, preferring the curated
// outlet name over whatever label the provider sent along.
func (t *Table) Resolve(rawURL, fallbackName string) article.Source {
	host := article.Host(rawURL)
	if host != "" {
		if name, ok := t.lookupDomain(host); ok {
			return article.Source{Name: name, URL: "https://" + host}
		}
	}
	name := strings.TrimSpace(fallbackName)
	if name == "" {
		if host != "" {
			name = host
		} else {
			name = "Unknown"
		}
	}
	return article.Source{Name: name, URL: sourceURL(host)}
}

func sourceURL(host string) string {
	if host == "" {
		return ""
	}
	return "https://" + host
}

// LocalDomains returns the allow-listed domains in sorted order, for
// providers that accept a domain restriction parameter.
func (t *Table) LocalDomains() []string {
	domains := make([]string, 0, len(t.outlets))
	for d := range t.outlets {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

func (t *Table) lookupDomain(host string) (string, bool) {
	if name, ok := t.outlets[host]; ok {
		return name, true
	}
	for domain, name := range t.outlets {
		if strings.HasSuffix(host, "."+domain) {
			return name, true
		}
	}
	return "", false
}
