package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bantaypondo/news/internal/article"
)

type settings struct {
	categories    map[article.Category][]string
	strongSignals []string
	individuals   []string
	weights       Weights
	minScore      int
}

// genericKeywords appear in every category set: a story has to look
// like a corruption story before the category-specific terms decide
// which bucket it lands in.
var genericKeywords = []string{
	"corruption", "corrupt", "graft", "plunder", "kickback", "bribery",
	"bribe", "anomalous", "anomaly", "malversation", "ombudsman",
	"sandiganbayan", "coa", "coa report", "audit report", "ill-gotten",
	"ghost project", "ghost employee", "overpriced", "misuse of funds",
	"scandal", "investigation", "whistleblower",
}

var floodControlKeywords = []string{
	"flood control", "flood control project", "flood mitigation", "flood",
	"dike", "drainage", "dredging", "pumping station", "river wall",
	"substandard flood control", "ghost flood control",
}

var dpwhKeywords = []string{
	"dpwh", "public works", "department of public works", "highways",
	"road project", "infrastructure project", "contractor", "bidding",
	"rigged bidding", "right of way", "farm-to-market road",
	"infrastructure fund",
}

var politicianKeywords = []string{
	"senator", "congressman", "congresswoman", "mayor", "governor",
	"politician", "lawmaker", "pork barrel", "pdaf", "confidential funds",
	"intelligence funds", "impeachment", "unexplained wealth", "saln",
	"political dynasty", "resign", "plea bargain",
}

var nepoKeywords = []string{
	"nepo", "nepo baby", "nepo babies", "nepotism", "cancel", "canceled",
	"luxury", "luxury bags", "designer bags", "private jet", "lavish",
	"lavish lifestyle", "heir", "heiress", "influencer", "vlogger",
	"mansion", "supercar",
}

// strongSignalKeywords mark a story as unmistakably about corruption
// rather than routine government coverage.
var strongSignalKeywords = []string{
	"plunder", "ill-gotten wealth", "malversation", "ghost project",
	"kickback", "bribery",
}

// namedIndividuals are people recurring in the stories this feed
// tracks. A name match is a stronger signal than any vocabulary hit.
var namedIndividuals = []string{
	"napoles", "discaya", "zaldy co", "bong revilla", "jinggoy estrada",
}

func defaultSettings() settings {
	withGeneric := func(specific []string) []string {
		out := make([]string, 0, len(genericKeywords)+len(specific))
		out = append(out, specific...)
		out = append(out, genericKeywords...)
		return out
	}
	return settings{
		categories: map[article.Category][]string{
			article.FloodControl:       withGeneric(floodControlKeywords),
			article.DPWH:               withGeneric(dpwhKeywords),
			article.CorruptPoliticians: withGeneric(politicianKeywords),
			article.NepoBabies:         withGeneric(nepoKeywords),
		},
		strongSignals: strongSignalKeywords,
		individuals:   namedIndividuals,
		weights: Weights{
			Keyword:      1,
			PhraseBonus:  1,
			StrongSignal: 2,
			Individual:   3,
			CancelNepo:   5,
		},
		minScore: 1,
	}
}

type fileFormat struct {
	Categories    map[string][]string `yaml:"categories"`
	StrongSignals []string            `yaml:"strong_signals"`
	Individuals   []string            `yaml:"individuals"`
	Weights       *Weights            `yaml:"weights"`
	MinScore      *int                `yaml:"min_score"`
}

// Load reads classifier configuration from a YAML file. Fields absent
// from the file keep their compiled-in defaults, so a deployment can
// retune one category without restating everything.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse keywords config: %w", err)
	}

	s := defaultSettings()
	for raw, keywords := range ff.Categories {
		cat, ok := article.ParseCategory(raw)
		if !ok {
			return nil, fmt.Errorf("keywords config: unknown category %q", raw)
		}
		if len(keywords) > 0 {
			s.categories[cat] = keywords
		}
	}
	if len(ff.StrongSignals) > 0 {
		s.strongSignals = ff.StrongSignals
	}
	if len(ff.Individuals) > 0 {
		s.individuals = ff.Individuals
	}
	if ff.Weights != nil {
		s.weights = *ff.Weights
	}
	if ff.MinScore != nil && *ff.MinScore >= 0 {
		s.minScore = *ff.MinScore
	}
	return fromSettings(s), nil
}
