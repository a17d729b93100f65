package autofix

import (
	"math"
	"path"
	"sort"
	"strings"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

const (
	// MinInboundLinks is the number of distinct internal pages that should
	// link to every crawled page. Pages below it get a link proposal.
	MinInboundLinks = 2

	// MinRelevance is the lowest title+heading Jaccard overlap accepted for
	// a link proposal.
	MinRelevance = 0.15
)

// linkGraph is the internal link structure between crawled pages only.
type linkGraph struct {
	pages    []*models.CrawledPage
	inbound  map[string]map[string]bool
	outbound map[string]map[string]bool
}

func newLinkGraph(pages []models.CrawledPage) *linkGraph {
	g := &linkGraph{
		inbound:  make(map[string]map[string]bool, len(pages)),
		outbound: make(map[string]map[string]bool, len(pages)),
	}
	for i := range pages {
		p := &pages[i]
		if _, dup := g.inbound[p.URL]; dup {
			continue
		}
		g.pages = append(g.pages, p)
		g.inbound[p.URL] = map[string]bool{}
		g.outbound[p.URL] = map[string]bool{}
	}
	for _, p := range g.pages {
		for _, link := range p.Links {
			if !link.IsInternal || link.Href == p.URL {
				continue
			}
			if _, crawled := g.inbound[link.Href]; !crawled {
				continue
			}
			g.inbound[link.Href][p.URL] = true
			g.outbound[p.URL][link.Href] = true
		}
	}
	sort.Slice(g.pages, func(i, j int) bool { return g.pages[i].URL < g.pages[j].URL })
	return g
}

func (g *linkGraph) inboundCount(url string) int {
	return len(g.inbound[url])
}

func (g *linkGraph) links(from, to string) bool {
	return g.outbound[from][to]
}

// GenerateInternalLinkSuggestions proposes, for each page with fewer than
// MinInboundLinks internal inbound links, a link from the most topically
// related page that does not already link to it. Relatedness is the Jaccard
// overlap of title and heading tokens; ties go to the lexically smaller
// source URL. Suggestions are ordered by target URL.
func GenerateInternalLinkSuggestions(pages []models.CrawledPage) []models.InternalLinkSuggestion {
	suggestions := []models.InternalLinkSuggestion{}
	g := newLinkGraph(pages)

	tokens := make(map[string]map[string]struct{}, len(g.pages))
	for _, p := range g.pages {
		tokens[p.URL] = topicTokens(p)
	}

	for _, target := range g.pages {
		if g.inboundCount(target.URL) >= MinInboundLinks || len(tokens[target.URL]) == 0 {
			continue
		}

		var best *models.CrawledPage
		bestScore := 0.0
		for _, source := range g.pages {
			if source.URL == target.URL || g.links(source.URL, target.URL) {
				continue
			}
			if score := utils.Jaccard(tokens[source.URL], tokens[target.URL]); score > bestScore {
				best, bestScore = source, score
			}
		}
		if best == nil || bestScore < MinRelevance {
			continue
		}

		suggestions = append(suggestions, models.InternalLinkSuggestion{
			SourcePage:   best.URL,
			TargetPage:   target.URL,
			AnchorText:   anchorText(target),
			Relevance:    math.Round(bestScore*1000) / 1000,
			SharedTopics: utils.SharedTokens(tokens[best.URL], tokens[target.URL]),
		})
	}
	return suggestions
}

func topicTokens(p *models.CrawledPage) map[string]struct{} {
	texts := make([]string, 0, len(p.Headings)+1)
	texts = append(texts, p.Title)
	for _, h := range p.Headings {
		texts = append(texts, h.Text)
	}
	return utils.TokenSet(texts...)
}

// anchorText prefers the first H1, then the title, then the URL slug.
func anchorText(p *models.CrawledPage) string {
	if len(p.H1) > 0 && p.H1[0] != "" {
		return p.H1[0]
	}
	if p.Title != "" {
		return p.Title
	}
	return utils.Humanize(path.Base(strings.TrimSuffix(utils.PathOf(p.URL), "/")))
}
