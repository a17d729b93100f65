package autofix

import (
	"fmt"
	"time"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/audit"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

// ContentOption configures GenerateContentSuggestions.
type ContentOption func(*contentOptions)

type contentOptions struct {
	reference time.Time
}

// WithReferenceTime sets the time content age is measured against, normally
// the crawl start. Without it no freshness suggestion is made.
func WithReferenceTime(t time.Time) ContentOption {
	return func(o *contentOptions) {
		o.reference = t
	}
}

// GenerateContentSuggestions derives content recommendations from aggregate
// page statistics. Site-wide suggestions come first in a fixed order,
// followed by per-page suggestions ordered by URL.
func GenerateContentSuggestions(pages []models.CrawledPage, opts ...ContentOption) []models.ContentSuggestion {
	o := &contentOptions{}
	for _, opt := range opts {
		opt(o)
	}

	suggestions := []models.ContentSuggestion{}
	if len(pages) == 0 {
		return suggestions
	}

	var thin, missingDescription, stale int
	hasFAQ := false
	for i := range pages {
		p := &pages[i]
		if p.WordCount < audit.ThinContentWords {
			thin++
		}
		if p.MetaDescription == "" {
			missingDescription++
		}
		if p.HasSchema("FAQPage") {
			hasFAQ = true
		}
		if p.PublishedAt != nil && !o.reference.IsZero() && o.reference.Sub(*p.PublishedAt) > audit.StaleAfter {
			stale++
		}
	}

	if thin > 0 {
		suggestions = append(suggestions, models.ContentSuggestion{
			Type:       models.ContentThinPages,
			Priority:   models.PriorityMedium,
			Suggestion: fmt.Sprintf("%d of %d pages have fewer than %d words. Expand them with original content or merge them into stronger pages.", thin, len(pages), audit.ThinContentWords),
		})
	}
	if !hasFAQ {
		suggestions = append(suggestions, models.ContentSuggestion{
			Type:       models.ContentNoFAQPage,
			Priority:   models.PriorityLow,
			Suggestion: "No crawled page carries FAQPage structured data. Add an FAQ page answering the questions customers ask most.",
		})
	}
	if missingDescription*2 >= len(pages) {
		suggestions = append(suggestions, models.ContentSuggestion{
			Type:       models.ContentMetaCoverage,
			Priority:   models.PriorityHigh,
			Suggestion: fmt.Sprintf("%d of %d pages have no meta description. Write descriptions for the most visited pages first.", missingDescription, len(pages)),
		})
	}
	if stale > 0 {
		suggestions = append(suggestions, models.ContentSuggestion{
			Type:       models.ContentRefreshStale,
			Priority:   models.PriorityLow,
			Suggestion: fmt.Sprintf("%d pages were published more than two years before this crawl. Schedule a content refresh.", stale),
		})
	}

	g := newLinkGraph(pages)
	root := pages[0].URL
	for _, p := range g.pages {
		if p.URL == root || utils.PathOf(p.URL) == "/" || g.inboundCount(p.URL) > 0 {
			continue
		}
		suggestions = append(suggestions, models.ContentSuggestion{
			PageURL:    p.URL,
			Type:       models.ContentOrphanPage,
			Priority:   models.PriorityMedium,
			Suggestion: "No other crawled page links here. Link to it from a related page or the navigation.",
		})
	}
	for _, p := range g.pages {
		if p.WordCount < audit.ThinContentWords || hasSubheadings(p) {
			continue
		}
		suggestions = append(suggestions, models.ContentSuggestion{
			PageURL:    p.URL,
			Type:       models.ContentAddSubheadings,
			Priority:   models.PriorityLow,
			Suggestion: fmt.Sprintf("The page has %d words but no <h2> subheadings. Break it into sections.", p.WordCount),
		})
	}
	return suggestions
}

func hasSubheadings(p *models.CrawledPage) bool {
	for _, h := range p.Headings {
		if h.Level == 2 {
			return true
		}
	}
	return false
}
