// Package autofix turns audit results into remediation proposals: one fix
// per issue from a static table, internal link proposals from topical
// overlap, and site-level content suggestions. Everything here is a pure
// function of its input.
package autofix

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

// MaxMetaDescriptionLength bounds generated meta descriptions.
const MaxMetaDescriptionLength = 155

// fixTemplate describes the fix for one issue type. suggest, when set,
// produces a value that can be applied without human judgment; a fix is
// automated only when suggest returns a non-empty value.
type fixTemplate struct {
	title       string
	description string
	impact      string
	suggest     func(page *models.CrawledPage) string
}

// fixTable maps every issue type to its fix.
var fixTable = map[models.IssueType]fixTemplate{
	models.IssueMissingMetaTitle: {
		title:       "Write a page title",
		description: "Add a <title> that names the page's main topic in 50-60 characters. The title needs real copy, so it is left to an editor.",
		impact:      "The title is the headline of the search result and a primary relevance signal.",
	},
	models.IssueDuplicateMetaTitle: {
		title:       "Make the title unique",
		description: "Rewrite the title so it distinguishes this page from the others that share it.",
		impact:      "Duplicate titles make pages compete with each other for the same queries.",
	},
	models.IssueTitleTooLong: {
		title:       "Shorten the title",
		description: "Cut the title to 60 characters or fewer without losing the key phrase.",
		impact:      "Long titles are truncated in search results and lose their ending.",
	},
	models.IssueMissingMetaDescription: {
		title:       "Add a meta description",
		description: "Insert the generated meta description, or refine it before publishing.",
		impact:      "Search engines show the description under the title; a missing one is replaced by arbitrary page text.",
		suggest:     suggestMetaDescription,
	},
	models.IssueDuplicateMetaDescription: {
		title:       "Make the meta description unique",
		description: "Write a description that summarises what is specific to this page.",
		impact:      "Repeated descriptions make distinct results look identical.",
	},
	models.IssueMissingH1: {
		title:       "Add an H1 heading",
		description: "Add a single <h1> that states what the page is about.",
		impact:      "The H1 tells readers and crawlers what the page covers.",
	},
	models.IssueMultipleH1: {
		title:       "Keep a single H1",
		description: "Choose the main heading and demote the other <h1> elements to <h2>.",
		impact:      "Several H1s dilute the page's main topic.",
	},
	models.IssueMissingAltText: {
		title:       "Add alt text to images",
		description: "Apply the generated alt text stubs, then refine any that do not describe the image well.",
		impact:      "Alt text makes images accessible to screen readers and indexable by image search.",
		suggest:     suggestAltText,
	},
	models.IssueThinContent: {
		title:       "Expand the content",
		description: "Add original, useful content until the page answers its topic in at least 300 words, or merge it into a stronger page.",
		impact:      "Thin pages rarely rank and can lower the perceived quality of the whole site.",
	},
	models.IssueStaleContent: {
		title:       "Refresh the content",
		description: "Review facts, examples and dates, then update the published date.",
		impact:      "Up-to-date pages earn more trust from readers and search engines.",
	},
	models.IssueMissingCanonical: {
		title:       "Add a canonical link",
		description: "Insert <link rel=\"canonical\"> pointing at the page's own URL.",
		impact:      "A canonical URL consolidates ranking signals from duplicate URL variants.",
		suggest:     suggestCanonical,
	},
	models.IssueNoindexPage: {
		title:       "Review the noindex directive",
		description: "Remove noindex from the robots meta tag unless the page is meant to stay out of search.",
		impact:      "Noindexed pages never appear in search results.",
	},
	models.IssueBrokenLink: {
		title:       "Fix broken links",
		description: "Point the failing links at live pages or remove them.",
		impact:      "Broken links waste crawl budget and frustrate readers.",
	},
	models.IssueMissingSchema: {
		title:       "Add FAQPage structured data",
		description: "Mark up each question heading and its answer as a Question in FAQPage JSON-LD.",
		impact:      "FAQ markup can earn expanded results and helps answer engines quote the page.",
	},
	models.IssueSlowPage: {
		title:       "Speed up the page",
		description: "Reduce server response time, compress assets and defer non-critical scripts.",
		impact:      "Slow pages lose visitors and rank lower on mobile.",
	},
}

// GenerateFixes returns one suggestion per issue that has a fix template,
// ordered by priority. Suggestions of equal priority keep the order of the
// issues in auditResult.
func GenerateFixes(auditResult *models.AuditResult, pages []models.CrawledPage) []models.FixSuggestion {
	fixes := []models.FixSuggestion{}
	if auditResult == nil {
		return fixes
	}

	byURL := make(map[string]*models.CrawledPage, len(pages))
	for i := range pages {
		byURL[pages[i].URL] = &pages[i]
	}

	for _, issue := range auditResult.Issues {
		tmpl, ok := fixTable[issue.Type]
		if !ok {
			continue
		}
		fix := models.FixSuggestion{
			IssueRef:    issue.Ref(),
			Title:       tmpl.title,
			Description: tmpl.description,
			Impact:      tmpl.impact,
			Priority:    models.PriorityFor(issue.Severity),
		}
		if page, found := byURL[issue.PageURL]; found && tmpl.suggest != nil {
			if value := tmpl.suggest(page); value != "" {
				fix.Automated = true
				fix.SuggestedValue = value
			}
		}
		fixes = append(fixes, fix)
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Priority.Rank() > fixes[j].Priority.Rank()
	})
	return fixes
}

// suggestAltText proposes an alt text per image without an alt attribute,
// derived from the image file name. One "src: alt" pair per line.
func suggestAltText(page *models.CrawledPage) string {
	var lines []string
	for _, img := range page.Images {
		if img.Alt != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", img.Src, altStub(img.Src, page.Title)))
	}
	return strings.Join(lines, "\n")
}

func altStub(src, pageTitle string) string {
	name := path.Base(utils.PathOf(src))
	name = strings.TrimSuffix(name, path.Ext(name))
	if stub := utils.Humanize(name); stub != "" && stub != "/" {
		return stub
	}
	if pageTitle != "" {
		return "Image for " + pageTitle
	}
	return "Image"
}

// suggestMetaDescription builds a description from the title and the first
// heading that adds something to it.
func suggestMetaDescription(page *models.CrawledPage) string {
	parts := []string{}
	if page.Title != "" {
		parts = append(parts, page.Title)
	}
	for _, h := range page.Headings {
		if h.Text != "" && !strings.EqualFold(h.Text, page.Title) {
			parts = append(parts, h.Text)
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	desc := strings.Join(parts, ": ")
	if !strings.HasSuffix(desc, ".") && !strings.HasSuffix(desc, "?") && !strings.HasSuffix(desc, "!") {
		desc += "."
	}
	if len(desc) > MaxMetaDescriptionLength {
		desc = utils.TruncateText(desc, MaxMetaDescriptionLength-len("..."))
	}
	return desc
}

// suggestCanonical proposes the page's own URL as its canonical.
func suggestCanonical(page *models.CrawledPage) string {
	return page.URL
}
