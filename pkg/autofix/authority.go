package autofix

import (
	"sort"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// DefaultTopAuthority is the number of pages reports list by authority.
const DefaultTopAuthority = 10

const (
	dampingFactor   = 0.85
	authorityRounds = 50
)

// LinkAuthority ranks crawled pages by PageRank over the internal link
// graph. Only links between crawled pages count, each source/target pair
// once, and self links are ignored. Pages without outbound links spread
// their rank evenly so the scores always sum to 1. The result is ordered
// by authority desc, then URL, and holds at most limit entries (all when
// limit <= 0).
func LinkAuthority(pages []models.CrawledPage, limit int) []models.PageAuthority {
	g := newLinkGraph(pages)
	n := len(g.pages)
	ranked := []models.PageAuthority{}
	if n == 0 {
		return ranked
	}

	rank := make(map[string]float64, n)
	for _, p := range g.pages {
		rank[p.URL] = 1.0 / float64(n)
	}

	for i := 0; i < authorityRounds; i++ {
		dangling := 0.0
		for _, p := range g.pages {
			if len(g.outbound[p.URL]) == 0 {
				dangling += rank[p.URL]
			}
		}

		next := make(map[string]float64, n)
		for _, p := range g.pages {
			r := (1.0-dampingFactor)/float64(n) + dampingFactor*dangling/float64(n)
			for _, source := range sortedKeys(g.inbound[p.URL]) {
				r += dampingFactor * rank[source] / float64(len(g.outbound[source]))
			}
			next[p.URL] = r
		}
		rank = next
	}

	for _, p := range g.pages {
		ranked = append(ranked, models.PageAuthority{
			URL:          p.URL,
			Authority:    rank[p.URL],
			InboundLinks: g.inboundCount(p.URL),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Authority > ranked[j].Authority
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// sortedKeys fixes the summation order so scores are reproducible to the
// last bit.
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
