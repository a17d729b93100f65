package audit

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

// Thresholds used by the rule set.
const (
	MaxTitleLength       = 60
	ThinContentWords     = 300
	SlowPageMs           = 3000
	StaleAfter           = 730 * 24 * time.Hour
	FAQQuestionHeadings  = 3
	maxListedBrokenLinks = 3
)

// siteIndex holds the cross-page facts some rules need. It is built once
// per audit from the CrawlResult.
type siteIndex struct {
	titles       map[string]int
	descriptions map[string]int
	failed       map[string]bool
	reference    time.Time
}

func newSiteIndex(result *models.CrawlResult) *siteIndex {
	idx := &siteIndex{
		titles:       make(map[string]int),
		descriptions: make(map[string]int),
		failed:       make(map[string]bool, len(result.Errors)),
		reference:    result.StartedAt,
	}
	for i := range result.Pages {
		page := &result.Pages[i]
		if key := dedupeKey(page.Title); key != "" {
			idx.titles[key]++
		}
		if key := dedupeKey(page.MetaDescription); key != "" {
			idx.descriptions[key]++
		}
	}
	for _, e := range result.Errors {
		idx.failed[e.URL] = true
	}
	return idx
}

func dedupeKey(s string) string {
	return strings.ToLower(utils.CleanText(s))
}

// rule checks one page for one issue type. It returns the issue
// description and whether the issue applies.
type rule struct {
	issueType models.IssueType
	check     func(page *models.CrawledPage, site *siteIndex) (string, bool)
}

// rules is evaluated in order for every page. Each entry yields at most one
// issue per page.
var rules = []rule{
	{models.IssueMissingMetaTitle, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return "The page has no <title> element or the title is empty.", p.Title == ""
	}},
	{models.IssueDuplicateMetaTitle, func(p *models.CrawledPage, s *siteIndex) (string, bool) {
		n := s.titles[dedupeKey(p.Title)]
		return fmt.Sprintf("The title %q is used on %d pages.", p.Title, n), p.Title != "" && n > 1
	}},
	{models.IssueTitleTooLong, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		n := utf8.RuneCountInString(p.Title)
		return fmt.Sprintf("The title is %d characters long; search results truncate after about %d.", n, MaxTitleLength), n > MaxTitleLength
	}},
	{models.IssueMissingMetaDescription, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return "The page has no meta description.", p.MetaDescription == ""
	}},
	{models.IssueDuplicateMetaDescription, func(p *models.CrawledPage, s *siteIndex) (string, bool) {
		n := s.descriptions[dedupeKey(p.MetaDescription)]
		return fmt.Sprintf("The meta description is used on %d pages.", n), p.MetaDescription != "" && n > 1
	}},
	{models.IssueMissingH1, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return "The page has no <h1> heading.", len(p.H1) == 0
	}},
	{models.IssueMultipleH1, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return fmt.Sprintf("The page has %d <h1> headings.", len(p.H1)), len(p.H1) > 1
	}},
	{models.IssueMissingAltText, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		n := len(imagesMissingAlt(p))
		return fmt.Sprintf("%d of %d images have no alt attribute.", n, len(p.Images)), n > 0
	}},
	{models.IssueThinContent, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return fmt.Sprintf("The page has %d words of visible text, below the %d word minimum.", p.WordCount, ThinContentWords), p.WordCount < ThinContentWords
	}},
	{models.IssueStaleContent, func(p *models.CrawledPage, s *siteIndex) (string, bool) {
		if p.PublishedAt == nil || s.reference.IsZero() {
			return "", false
		}
		age := s.reference.Sub(*p.PublishedAt)
		return fmt.Sprintf("The page was published %s, %d days before this crawl.", p.PublishedAt.Format("2006-01-02"), int(age.Hours()/24)), age > StaleAfter
	}},
	{models.IssueMissingCanonical, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return "The page does not declare a canonical URL.", p.CanonicalURL == ""
	}},
	{models.IssueNoindexPage, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return fmt.Sprintf("The robots meta tag is %q.", p.RobotsDirective), hasNoindex(p.RobotsDirective)
	}},
	{models.IssueBrokenLink, func(p *models.CrawledPage, s *siteIndex) (string, bool) {
		broken := brokenLinks(p, s)
		if len(broken) == 0 {
			return "", false
		}
		listed := broken
		if len(listed) > maxListedBrokenLinks {
			listed = listed[:maxListedBrokenLinks]
		}
		desc := fmt.Sprintf("%d links point to pages that failed to load: %s", len(broken), strings.Join(listed, ", "))
		if len(broken) > len(listed) {
			desc += fmt.Sprintf(" and %d more", len(broken)-len(listed))
		}
		return desc + ".", true
	}},
	{models.IssueMissingSchema, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		n := questionHeadings(p)
		return fmt.Sprintf("The page has %d question headings but no FAQPage structured data.", n), n >= FAQQuestionHeadings && !p.HasSchema("FAQPage")
	}},
	{models.IssueSlowPage, func(p *models.CrawledPage, _ *siteIndex) (string, bool) {
		return fmt.Sprintf("The page took %dms to load, above the %dms threshold.", p.LoadTimeMs, SlowPageMs), p.LoadTimeMs > SlowPageMs
	}},
}

func imagesMissingAlt(p *models.CrawledPage) []models.Image {
	var missing []models.Image
	for _, img := range p.Images {
		if img.Alt == nil {
			missing = append(missing, img)
		}
	}
	return missing
}

func hasNoindex(directive string) bool {
	for _, part := range strings.FieldsFunc(strings.ToLower(directive), func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		if part == "noindex" || part == "none" {
			return true
		}
	}
	return false
}

func brokenLinks(p *models.CrawledPage, s *siteIndex) []string {
	var broken []string
	for _, link := range p.Links {
		if s.failed[link.Href] {
			broken = append(broken, link.Href)
		}
	}
	return broken
}

// questionHeadings counts headings shaped like an FAQ question.
func questionHeadings(p *models.CrawledPage) int {
	n := 0
	for _, h := range p.Headings {
		if strings.HasSuffix(strings.TrimSpace(h.Text), "?") {
			n++
		}
	}
	return n
}

// issueText is the fixed title and recommendation per issue type.
var issueText = map[models.IssueType]struct {
	title          string
	recommendation string
}{
	models.IssueMissingMetaTitle: {
		"Missing page title",
		"Add a unique, descriptive <title> of 50-60 characters that leads with the page's main topic.",
	},
	models.IssueDuplicateMetaTitle: {
		"Duplicate page title",
		"Give every page its own title so search engines can tell them apart.",
	},
	models.IssueTitleTooLong: {
		"Title too long",
		"Shorten the title to 60 characters or fewer, keeping the key phrase at the start.",
	},
	models.IssueMissingMetaDescription: {
		"Missing meta description",
		"Write a meta description of 120-155 characters summarising the page.",
	},
	models.IssueDuplicateMetaDescription: {
		"Duplicate meta description",
		"Write a distinct meta description for each page.",
	},
	models.IssueMissingH1: {
		"Missing H1 heading",
		"Add a single <h1> that states what the page is about.",
	},
	models.IssueMultipleH1: {
		"Multiple H1 headings",
		"Keep one <h1> per page and demote the others to <h2> or lower.",
	},
	models.IssueMissingAltText: {
		"Images missing alt text",
		"Add alt text describing each informative image; use alt=\"\" for purely decorative ones.",
	},
	models.IssueThinContent: {
		"Thin content",
		"Expand the page with useful, original content of at least 300 words.",
	},
	models.IssueStaleContent: {
		"Stale content",
		"Review the page and refresh outdated facts, examples and dates.",
	},
	models.IssueMissingCanonical: {
		"Missing canonical URL",
		"Add <link rel=\"canonical\"> pointing at the preferred URL of this page.",
	},
	models.IssueNoindexPage: {
		"Page excluded from indexing",
		"Confirm the page should stay out of search results; otherwise remove noindex.",
	},
	models.IssueBrokenLink: {
		"Broken internal links",
		"Update or remove links to pages that return errors.",
	},
	models.IssueMissingSchema: {
		"Missing FAQ structured data",
		"Mark up the question and answer pairs with FAQPage JSON-LD.",
	},
	models.IssueSlowPage: {
		"Slow page",
		"Reduce server response time and page weight so the page loads in under 3 seconds.",
	},
}
