// Package classify scores unstructured feed text against per-category
// keyword sets. RSS feeds are not pre-categorized, so this heuristic
// decides both whether an item is a corruption story at all and which
// bucket it belongs in.
package classify

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bantaypondo/news/internal/article"
)

// Weights are the scoring bonuses. They were tuned against real
// headlines rather than measured formally, which is why they live in
// configuration instead of being hard-coded.
type Weights struct {
	Keyword      int `yaml:"keyword"`
	PhraseBonus  int `yaml:"phrase_bonus"`
	StrongSignal int `yaml:"strong_signal"`
	Individual   int `yaml:"individual"`
	CancelNepo   int `yaml:"cancel_nepo"`
}

// Result is the classification outcome for one text.
type Result struct {
	Category article.Category
	Score    int
}

// Classifier holds the compiled keyword sets. Safe for concurrent use
// after construction.
type Classifier struct {
	categories    map[article.Category][]string
	strongSignals []string
	individuals   []string
	weights       Weights
	minScore      int

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New builds a classifier from the compiled-in defaults.
func New() *Classifier {
	return fromSettings(defaultSettings())
}

func fromSettings(s settings) *Classifier {
	return &Classifier{
		categories:    s.categories,
		strongSignals: s.strongSignals,
		individuals:   s.individuals,
		weights:       s.weights,
		minScore:      s.minScore,
		patterns:      make(map[string]*regexp.Regexp),
	}
}

// MinScore is the relevance threshold: texts scoring below it are not
// corruption stories at all. Deliberately low, since many real stories
// carry neither a peso amount nor a named official.
func (c *Classifier) MinScore() int {
	return c.minScore
}

// Classify scores text against every category and returns the winner.
// Ties fall to corrupt-politicians, the broadest bucket.
func (c *Classifier) Classify(text string) Result {
	text = strings.ToLower(text)

	// Seed with the broadest bucket so a tie lands there no matter
	// what order the categories score in.
	best := Result{
		Category: article.CorruptPoliticians,
		Score:    c.scoreCategory(text, article.CorruptPoliticians),
	}
	for _, cat := range article.Categories() {
		if cat == article.CorruptPoliticians {
			continue
		}
		if score := c.scoreCategory(text, cat); score > best.Score {
			best = Result{Category: cat, Score: score}
		}
	}
	return best
}

// Relevant reports whether the result clears the relevance threshold.
func (c *Classifier) Relevant(r Result) bool {
	return r.Score >= c.minScore
}

func (c *Classifier) scoreCategory(text string, cat article.Category) int {
	score := 0
	matched := false
	for _, kw := range c.categories[cat] {
		if !c.matches(text, kw) {
			continue
		}
		matched = true
		score += c.weights.Keyword
		if strings.Contains(kw, " ") {
			// Multi-word phrases are much less likely to be a
			// coincidental hit than a single common word.
			score += c.weights.PhraseBonus
		}
	}
	if !matched {
		return 0
	}

	for _, kw := range c.strongSignals {
		if c.matches(text, kw) {
			score += c.weights.StrongSignal
		}
	}
	for _, name := range c.individuals {
		if c.matches(text, name) {
			score += c.weights.Individual
		}
	}
	// Headlines like "canceled nepo babies of <city>" carry no peso
	// amount and no official's name, yet are squarely in scope.
	if cat == article.NepoBabies && strings.Contains(text, "cancel") && strings.Contains(text, "nepo") {
		score += c.weights.CancelNepo
	}
	return score
}

// matches distinguishes phrases from single tokens the same way the
// relevance filter in the feed pipeline always has: phrases match as
// substrings, short tokens only at word boundaries (so "coa" never
// matches inside "coach").
func (c *Classifier) matches(text, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}
	if len(keyword) <= 4 {
		return c.wordPattern(keyword).MatchString(text)
	}
	return strings.Contains(text, keyword)
}

func (c *Classifier) wordPattern(keyword string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.patterns[keyword]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
		c.patterns[keyword] = re
	}
	return re
}
