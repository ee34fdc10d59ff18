package rssfeed

import (
	"testing"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/sources"
)

// Every compiled-in feed must belong to an outlet the default table
// knows, so its items resolve to a curated source name instead of a
// raw hostname.
func TestDefaultFeedsMatchOutletTable(t *testing.T) {
	table := sources.Default()
	for _, feed := range DefaultFeeds() {
		src := table.Resolve(feed, "")
		if src.Name == article.Host(feed) {
			t.Errorf("feed %s resolves to raw host %q, not a curated outlet", feed, src.Name)
		}
	}
}

func TestDefaultFeedsReturnsCopy(t *testing.T) {
	feeds := DefaultFeeds()
	feeds[0] = "mutated"
	if DefaultFeeds()[0] == "mutated" {
		t.Error("callers must not be able to mutate the compiled-in list")
	}
}
