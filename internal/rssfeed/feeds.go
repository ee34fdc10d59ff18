package rssfeed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FeedsConfig is the YAML feed list. Order matters: feeds are fetched
// in batches from the top, so the most reliable outlets go first.
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// defaultFeeds cover the major Philippine outlets' news feeds. Used
// when no feeds.yaml is present.
var defaultFeeds = []string{
	"https://www.rappler.com/feed/",
	"https://newsinfo.inquirer.net/feed",
	"https://www.philstar.com/rss/headlines",
	"https://data.gmanetwork.com/gno/rss/news/feed.xml",
	"https://mb.com.ph/rss/news",
	"https://www.manilatimes.net/news/feed/",
	"https://www.sunstar.com.ph/rssFeed/selected",
	"https://www.bworldonline.com/feed/",
	"https://www.pna.gov.ph/latest.rss",
	"https://verafiles.org/feed",
	"https://pcij.org/feed/",
	"https://www.bulatlat.com/feed/",
	"https://politics.com.ph/feed/",
	"https://www.interaksyon.com/feed/",
}

// DefaultFeeds returns a copy of the compiled-in feed list.
func DefaultFeeds() []string {
	return append([]string(nil), defaultFeeds...)
}

// LoadFeeds reads the RSS feed list from a YAML file. A missing file
// falls back to the compiled-in list.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultFeeds, nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}
	if len(cfg.Feeds) == 0 {
		return defaultFeeds, nil
	}
	return cfg.Feeds, nil
}
