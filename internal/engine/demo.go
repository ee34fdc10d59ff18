package engine

import (
	"time"

	"github.com/bantaypondo/news/internal/article"
)

// demoSet is the curated static dataset served only in demo mode, and
// only after the whole chain and the cache have failed. Responses built
// from it are always flagged as fallback data.
var demoSet = map[article.Category][]demoArticle{
	article.FloodControl: {
		{
			title: "COA flags P2.3-billion flood control project with no visible output",
			desc:  "State auditors found a completed-on-paper flood control project along the Pampanga river basin with no trace of actual construction.",
			url:   "https://www.rappler.com/philippines/coa-flags-flood-control-project-demo",
			src:   "Rappler",
		},
		{
			title: "Senate probe opens into ghost dike projects in Central Luzon",
			desc:  "Lawmakers begin hearings on allegedly non-existent dike and drainage projects funded over three fiscal years.",
			url:   "https://newsinfo.inquirer.net/senate-probe-ghost-dike-projects-demo",
			src:   "Philippine Daily Inquirer",
		},
	},
	article.DPWH: {
		{
			title: "DPWH engineer relieved amid overpriced road project inquiry",
			desc:  "A district engineer was relieved from post while the department audits a farm-to-market road contract awarded without public bidding.",
			url:   "https://www.philstar.com/headlines/dpwh-engineer-relieved-demo",
			src:   "The Philippine Star",
		},
		{
			title: "Contractors blacklisted over substandard bridge works",
			desc:  "Two firms were barred from future public works contracts after inspections found substandard materials in completed bridges.",
			url:   "https://www.gmanetwork.com/news/contractors-blacklisted-demo",
			src:   "GMA News",
		},
	},
	article.CorruptPoliticians: {
		{
			title: "Ombudsman files graft charges against provincial governor",
			desc:  "The anti-graft office found probable cause over the diversion of calamity funds to fictitious suppliers.",
			url:   "https://www.manilatimes.net/ombudsman-files-graft-charges-demo",
			src:   "The Manila Times",
		},
		{
			title: "Solon's unexplained wealth triggers lifestyle check",
			desc:  "A lawmaker's asset declaration grew twelvefold in six years, prompting a formal lifestyle check.",
			url:   "https://mb.com.ph/solon-lifestyle-check-demo",
			src:   "Manila Bulletin",
		},
	},
	article.NepoBabies: {
		{
			title: "Canceled nepo babies: heirs of contractors under fire for luxury posts",
			desc:  "Social media users dug up designer hauls and private jet trips posted by children of flood-control contractors.",
			url:   "https://www.rappler.com/technology/nepo-babies-luxury-posts-demo",
			src:   "Rappler",
		},
		{
			title: "Vlogging heiress deletes channel amid contractor wealth probe",
			desc:  "The daughter of a public works contractor took down lifestyle vlogs after her family's projects were flagged by auditors.",
			url:   "https://www.interaksyon.com/vlogging-heiress-deletes-channel-demo",
			src:   "Interaksyon",
		},
	},
}

type demoArticle struct {
	title, desc, url, src string
}

func demoArticles(req Request) []article.Article {
	categories := article.Categories()
	if !req.All {
		categories = []article.Category{req.Category}
	}

	var out []article.Article
	for _, cat := range categories {
		for i, d := range demoSet[cat] {
			out = append(out, article.Article{
				ID:          article.MakeID(d.url, d.title),
				Title:       d.title,
				Description: d.desc,
				URL:         d.url,
				PublishedAt: time.Now().Add(-time.Duration(i+1) * time.Hour),
				Source:      article.Source{Name: d.src},
				Category:    cat,
			})
		}
	}
	if req.PageSize > 0 && len(out) > req.PageSize {
		out = out[:req.PageSize]
	}
	return out
}
