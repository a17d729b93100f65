package audit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

func strPtr(s string) *string { return &s }

// cleanPage returns a page that triggers no rule.
func cleanPage(url string) models.CrawledPage {
	return models.CrawledPage{
		URL:             url,
		StatusCode:      200,
		Title:           "Guide to " + url,
		MetaDescription: "Everything about " + url,
		H1:              []string{"Guide"},
		Headings:        []models.Heading{{Level: 1, Text: "Guide"}},
		Images:          []models.Image{{Src: url + "/a.png", Alt: strPtr("A chart")}},
		Links:           []models.Link{},
		WordCount:       800,
		LoadTimeMs:      250,
		CanonicalURL:    url,
	}
}

func crawlOf(pages ...models.CrawledPage) *models.CrawlResult {
	return &models.CrawlResult{
		RootURL:      "https://example.com/",
		Status:       models.CrawlCompleted,
		Pages:        pages,
		TotalPages:   len(pages),
		CrawledPages: len(pages),
		Errors:       []models.CrawlError{},
		StartedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func issueTypes(result *models.AuditResult) []models.IssueType {
	types := make([]models.IssueType, 0, len(result.Issues))
	for _, issue := range result.Issues {
		types = append(types, issue.Type)
	}
	return types
}

func issuesFor(result *models.AuditResult, pageURL string) []models.IssueType {
	var types []models.IssueType
	for _, issue := range result.Issues {
		if issue.PageURL == pageURL {
			types = append(types, issue.Type)
		}
	}
	return types
}

func TestAuditCleanSiteScoresMax(t *testing.T) {
	result := Audit(crawlOf(cleanPage("https://example.com/"), cleanPage("https://example.com/about")))

	assert.Empty(t, result.Issues)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, 0, result.Summary.TotalIssues)
	assert.Len(t, result.Summary.CategoryBreakdown, len(models.Categories))
	for _, c := range models.Categories {
		assert.Zero(t, result.Summary.CategoryBreakdown[c])
	}
}

func TestAuditScoreIsLinearInSeverityWeights(t *testing.T) {
	page := cleanPage("https://example.com/")
	page.Title = ""
	page.MetaDescription = ""
	page.H1 = []string{}
	page.Headings = []models.Heading{}
	page.Images = []models.Image{{Src: "https://example.com/a.png"}}

	result := Audit(crawlOf(page))

	assert.Equal(t, []models.IssueType{
		models.IssueMissingMetaTitle,
		models.IssueMissingAltText,
		models.IssueMissingH1,
		models.IssueMissingMetaDescription,
	}, issueTypes(result))
	assert.Equal(t, 89.0, result.Score)
	assert.Equal(t, 1, result.Summary.CriticalIssues)
	assert.Equal(t, 3, result.Summary.WarningIssues)
	assert.Equal(t, 2, result.Summary.CategoryBreakdown[models.CategoryMeta])
	assert.Equal(t, 2, result.Summary.CategoryBreakdown[models.CategoryContent])
}

func TestAuditMissingTitleAndThinContent(t *testing.T) {
	page := cleanPage("https://example.com/short")
	page.Title = ""
	page.WordCount = 120

	result := Audit(crawlOf(page))

	require.Len(t, result.Issues, 2)
	assert.Equal(t, models.IssueMissingMetaTitle, result.Issues[0].Type)
	assert.Equal(t, models.SeverityCritical, result.Issues[0].Severity)
	assert.Equal(t, models.IssueThinContent, result.Issues[1].Type)
	assert.Equal(t, models.SeverityWarning, result.Issues[1].Severity)
	assert.Equal(t, 93.0, result.Score)
}

func TestAuditIsDeterministic(t *testing.T) {
	a := cleanPage("https://example.com/a")
	a.Title = "Shared"
	a.WordCount = 10
	b := cleanPage("https://example.com/b")
	b.Title = "shared "
	b.LoadTimeMs = 4000
	c := cleanPage("https://example.com/c")
	c.H1 = []string{"One", "Two"}
	c.CanonicalURL = ""

	first := Audit(crawlOf(a, b, c))
	second := Audit(crawlOf(a, b, c))
	reversed := Audit(crawlOf(c, b, a))

	assert.Equal(t, first, second)
	assert.Equal(t, first.Issues, reversed.Issues)
	assert.Equal(t, first.Score, reversed.Score)
}

func TestAuditIssueOrdering(t *testing.T) {
	a := cleanPage("https://example.com/b")
	a.Title = ""
	a.CanonicalURL = ""
	b := cleanPage("https://example.com/a")
	b.WordCount = 5
	b.H1 = nil

	result := Audit(crawlOf(a, b))

	var got []string
	for _, issue := range result.Issues {
		got = append(got, fmt.Sprintf("%s %s %s", issue.Severity, issue.PageURL, issue.Type))
	}
	assert.Equal(t, []string{
		"critical https://example.com/b missing_meta_title",
		"warning https://example.com/a missing_h1",
		"warning https://example.com/a thin_content",
		"info https://example.com/b missing_canonical",
	}, got)
}

func TestAuditDuplicates(t *testing.T) {
	a := cleanPage("https://example.com/a")
	a.Title = "Widgets"
	a.MetaDescription = "Buy widgets"
	b := cleanPage("https://example.com/b")
	b.Title = "  widgets "
	b.MetaDescription = "Buy   Widgets"

	result := Audit(crawlOf(a, b))

	for _, url := range []string{a.URL, b.URL} {
		assert.ElementsMatch(t, []models.IssueType{
			models.IssueDuplicateMetaTitle,
			models.IssueDuplicateMetaDescription,
		}, issuesFor(result, url))
	}
}

func TestAuditBrokenLinkFlaggedOnSource(t *testing.T) {
	source := cleanPage("https://example.com/")
	source.Links = []models.Link{
		{Href: "https://example.com/gone", IsInternal: true, AnchorText: "Gone"},
		{Href: "https://example.com/ok", IsInternal: true, AnchorText: "OK"},
	}
	other := cleanPage("https://example.com/ok")

	crawl := crawlOf(source, other)
	crawl.Errors = []models.CrawlError{{URL: "https://example.com/gone", Reason: "HTTP 404"}}

	result := Audit(crawl)

	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, models.IssueBrokenLink, issue.Type)
	assert.Equal(t, "https://example.com/", issue.PageURL)
	assert.Equal(t, models.CategoryTechnical, issue.Category)
	assert.Contains(t, issue.Description, "https://example.com/gone")
}

func TestAuditMissingFAQSchema(t *testing.T) {
	faq := cleanPage("https://example.com/faq")
	faq.Headings = []models.Heading{
		{Level: 1, Text: "Guide"},
		{Level: 2, Text: "How much does it cost?"},
		{Level: 2, Text: "Do you ship abroad?"},
		{Level: 2, Text: "Can I return it? "},
	}

	result := Audit(crawlOf(faq))
	assert.Equal(t, []models.IssueType{models.IssueMissingSchema}, issueTypes(result))
	assert.Equal(t, 1, result.Summary.CategoryBreakdown[models.CategoryStructuredData])

	faq.SchemaTypes = []string{"FAQPage"}
	assert.Empty(t, Audit(crawlOf(faq)).Issues)

	faq.SchemaTypes = nil
	faq.Headings = faq.Headings[:3]
	assert.Empty(t, Audit(crawlOf(faq)).Issues, "two questions are not an FAQ")
}

func TestAuditSinglePageRules(t *testing.T) {
	published := func(y int, m time.Month) *time.Time {
		t := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}

	tests := []struct {
		name   string
		mutate func(*models.CrawledPage)
		want   []models.IssueType
	}{
		{name: "title at limit", mutate: func(p *models.CrawledPage) { p.Title = strings.Repeat("x", 60) }},
		{name: "title too long", mutate: func(p *models.CrawledPage) { p.Title = strings.Repeat("é", 61) }, want: []models.IssueType{models.IssueTitleTooLong}},
		{name: "multiple h1", mutate: func(p *models.CrawledPage) { p.H1 = []string{"a", "b"} }, want: []models.IssueType{models.IssueMultipleH1}},
		{name: "decorative image", mutate: func(p *models.CrawledPage) { p.Images = []models.Image{{Src: "x.png", Alt: strPtr("")}} }},
		{name: "thin boundary", mutate: func(p *models.CrawledPage) { p.WordCount = 300 }},
		{name: "thin", mutate: func(p *models.CrawledPage) { p.WordCount = 299 }, want: []models.IssueType{models.IssueThinContent}},
		{name: "stale", mutate: func(p *models.CrawledPage) { p.PublishedAt = published(2021, time.June) }, want: []models.IssueType{models.IssueStaleContent}},
		{name: "recent", mutate: func(p *models.CrawledPage) { p.PublishedAt = published(2023, time.June) }},
		{name: "missing canonical", mutate: func(p *models.CrawledPage) { p.CanonicalURL = "" }, want: []models.IssueType{models.IssueMissingCanonical}},
		{name: "noindex", mutate: func(p *models.CrawledPage) { p.RobotsDirective = "noindex, follow" }, want: []models.IssueType{models.IssueNoindexPage}},
		{name: "index follow", mutate: func(p *models.CrawledPage) { p.RobotsDirective = "index,follow" }},
		{name: "slow boundary", mutate: func(p *models.CrawledPage) { p.LoadTimeMs = 3000 }},
		{name: "slow", mutate: func(p *models.CrawledPage) { p.LoadTimeMs = 3001 }, want: []models.IssueType{models.IssueSlowPage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := cleanPage("https://example.com/")
			tt.mutate(&page)
			result := Audit(crawlOf(page))
			if tt.want == nil {
				assert.Empty(t, result.Issues)
				return
			}
			assert.Equal(t, tt.want, issueTypes(result))
			for _, issue := range result.Issues {
				assert.Equal(t, issue.Type.Severity(), issue.Severity)
				assert.NotEmpty(t, issue.Title)
				assert.NotEmpty(t, issue.Recommendation)
			}
		})
	}
}

func TestAuditStaleNeedsReferenceTime(t *testing.T) {
	page := cleanPage("https://example.com/")
	old := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	page.PublishedAt = &old

	crawl := crawlOf(page)
	crawl.StartedAt = time.Time{}
	assert.Empty(t, Audit(crawl).Issues)
}

func TestScoreClampsAtZero(t *testing.T) {
	var pages []models.CrawledPage
	for i := 0; i < 30; i++ {
		p := cleanPage(fmt.Sprintf("https://example.com/%d", i))
		p.Title = ""
		pages = append(pages, p)
	}
	result := Audit(crawlOf(pages...))
	assert.Equal(t, 30, result.Summary.CriticalIssues)
	assert.Equal(t, 0.0, result.Score)
}

func TestAuditNilAndEmpty(t *testing.T) {
	result := Audit(nil)
	assert.Equal(t, 100.0, result.Score)
	assert.NotNil(t, result.Issues)

	result = Audit(crawlOf())
	assert.Equal(t, 100.0, result.Score)
}

func TestEveryIssueTypeHasTextAndRule(t *testing.T) {
	ruled := make(map[models.IssueType]bool)
	for _, r := range rules {
		assert.False(t, ruled[r.issueType], "rule %s listed twice", r.issueType)
		ruled[r.issueType] = true
	}
	order := make([]models.IssueType, len(rules))
	for i, r := range rules {
		order[i] = r.issueType
	}
	assert.Equal(t, models.IssueTypes(), order, "rules follow the taxonomy order")

	for _, typ := range models.IssueTypes() {
		assert.True(t, ruled[typ], "no rule for %s", typ)
		_, ok := issueText[typ]
		assert.True(t, ok, "no text for %s", typ)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {90, "A"}, {89.5, "B"}, {80, "B"}, {75, "C"}, {60, "D"}, {59.5, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %v", tt.score)
	}
}
