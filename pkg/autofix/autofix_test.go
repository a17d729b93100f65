package autofix

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/audit"
)

func strPtr(s string) *string { return &s }

func cleanPage(url string) models.CrawledPage {
	return models.CrawledPage{
		URL:             url,
		StatusCode:      200,
		Title:           "Guide to " + url,
		MetaDescription: "Everything about " + url,
		H1:              []string{"Guide"},
		Headings:        []models.Heading{{Level: 1, Text: "Guide"}, {Level: 2, Text: "Details"}},
		Images:          []models.Image{},
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

func internalLink(href string) models.Link {
	return models.Link{Href: href, IsInternal: true, AnchorText: "link"}
}

func TestGenerateFixesCoversEveryIssue(t *testing.T) {
	published := time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC)

	a := cleanPage("https://example.com/a")
	a.Title = ""
	a.MetaDescription = ""
	a.H1 = []string{}
	a.Images = []models.Image{{Src: "https://example.com/img/hero.jpg"}}

	b := cleanPage("https://example.com/b")
	b.H1 = []string{"One", "Two"}
	b.WordCount = 90
	b.CanonicalURL = ""
	b.PublishedAt = &published
	b.RobotsDirective = "noindex"
	b.LoadTimeMs = 4200

	crawl := crawlOf(a, b)
	result := audit.Audit(crawl)
	require.NotEmpty(t, result.Issues)

	fixes := GenerateFixes(result, crawl.Pages)

	byRef := make(map[models.IssueRef]int)
	for _, fix := range fixes {
		byRef[fix.IssueRef]++
	}
	issueRefs := make(map[models.IssueRef]bool)
	for _, issue := range result.Issues {
		issueRefs[issue.Ref()] = true
		if issue.Severity == models.SeverityCritical || issue.Severity == models.SeverityWarning {
			assert.Equal(t, 1, byRef[issue.Ref()], "fixes for %v", issue.Ref())
		}
	}
	for _, fix := range fixes {
		assert.True(t, issueRefs[fix.IssueRef], "fix references unknown issue %v", fix.IssueRef)
	}
	assert.Len(t, fixes, len(result.Issues))
}

func TestGenerateFixesMissingTitleAndThinContent(t *testing.T) {
	page := cleanPage("https://example.com/")
	page.Title = ""
	page.WordCount = 120

	crawl := crawlOf(page)
	result := audit.Audit(crawl)
	require.Len(t, result.Issues, 2)

	fixes := GenerateFixes(result, crawl.Pages)
	require.Len(t, fixes, 2)

	assert.Equal(t, models.IssueMissingMetaTitle, fixes[0].IssueRef.Type)
	assert.Equal(t, models.PriorityHigh, fixes[0].Priority)
	assert.False(t, fixes[0].Automated)
	assert.Empty(t, fixes[0].SuggestedValue)

	assert.Equal(t, models.IssueThinContent, fixes[1].IssueRef.Type)
	assert.Equal(t, models.PriorityMedium, fixes[1].Priority)
	assert.False(t, fixes[1].Automated)
}

func TestGenerateFixesAutomatedValues(t *testing.T) {
	page := cleanPage("https://example.com/widgets")
	page.Title = "Blue Widgets"
	page.MetaDescription = ""
	page.CanonicalURL = ""
	page.Headings = []models.Heading{{Level: 1, Text: "Blue Widgets"}, {Level: 2, Text: "Sizes and colours"}}
	page.Images = []models.Image{
		{Src: "https://example.com/img/blue-widget_v2.png"},
		{Src: "https://example.com/img/spacer.gif", Alt: strPtr("")},
		{Src: "https://example.com/"},
	}

	crawl := crawlOf(page)
	fixes := GenerateFixes(audit.Audit(crawl), crawl.Pages)

	values := make(map[models.IssueType]models.FixSuggestion)
	for _, fix := range fixes {
		values[fix.IssueRef.Type] = fix
	}
	require.Len(t, values, 3)

	alt := values[models.IssueMissingAltText]
	assert.True(t, alt.Automated)
	assert.Equal(t, "https://example.com/img/blue-widget_v2.png: Blue widget v2\nhttps://example.com/: Image for Blue Widgets", alt.SuggestedValue)

	desc := values[models.IssueMissingMetaDescription]
	assert.True(t, desc.Automated)
	assert.Equal(t, "Blue Widgets: Sizes and colours.", desc.SuggestedValue)

	canonical := values[models.IssueMissingCanonical]
	assert.True(t, canonical.Automated)
	assert.Equal(t, "https://example.com/widgets", canonical.SuggestedValue)
	assert.Equal(t, models.PriorityLow, canonical.Priority)
}

func TestSuggestMetaDescriptionIsBounded(t *testing.T) {
	page := cleanPage("https://example.com/")
	page.Title = strings.Repeat("widgets ", 15)
	page.Headings = []models.Heading{{Level: 2, Text: strings.Repeat("gadgets ", 15)}}

	desc := suggestMetaDescription(&page)
	assert.LessOrEqual(t, len(desc), MaxMetaDescriptionLength)
	assert.True(t, strings.HasSuffix(desc, "..."))

	empty := models.CrawledPage{URL: "https://example.com/"}
	assert.Empty(t, suggestMetaDescription(&empty))
}

func TestGenerateFixesStableByPriority(t *testing.T) {
	result := &models.AuditResult{Issues: []models.AuditIssue{
		{Type: models.IssueMissingH1, Severity: models.SeverityWarning, PageURL: "https://example.com/x"},
		{Type: models.IssueMissingMetaTitle, Severity: models.SeverityCritical, PageURL: "https://example.com/y"},
		{Type: models.IssueMissingCanonical, Severity: models.SeverityInfo, PageURL: "https://example.com/a"},
		{Type: models.IssueThinContent, Severity: models.SeverityWarning, PageURL: "https://example.com/a"},
	}}

	fixes := GenerateFixes(result, nil)
	require.Len(t, fixes, 4)

	got := make([]models.IssueType, len(fixes))
	for i, fix := range fixes {
		got[i] = fix.IssueRef.Type
	}
	assert.Equal(t, []models.IssueType{
		models.IssueMissingMetaTitle,
		models.IssueMissingH1,
		models.IssueThinContent,
		models.IssueMissingCanonical,
	}, got)

	// Without the page no value can be generated.
	assert.False(t, fixes[3].Automated)
}

func TestGenerateFixesNilAudit(t *testing.T) {
	fixes := GenerateFixes(nil, nil)
	assert.NotNil(t, fixes)
	assert.Empty(t, fixes)
}

func TestEveryIssueTypeHasFix(t *testing.T) {
	for _, issueType := range models.IssueTypes() {
		tmpl, ok := fixTable[issueType]
		if assert.True(t, ok, "no fix for %s", issueType) {
			assert.NotEmpty(t, tmpl.title)
			assert.NotEmpty(t, tmpl.description)
			assert.NotEmpty(t, tmpl.impact)
		}
	}
}

func linkFixture() []models.CrawledPage {
	root := cleanPage("https://example.com/")
	root.Title = "Acme widgets shop"
	root.H1 = []string{"Acme widgets shop"}
	root.Headings = []models.Heading{{Level: 2, Text: "Featured widgets"}}
	root.Links = []models.Link{
		internalLink("https://example.com/widgets/blue"),
		internalLink("https://example.com/widgets/red"),
		{Href: "https://other.org/", AnchorText: "partner"},
	}

	blue := cleanPage("https://example.com/widgets/blue")
	blue.Title = "Blue widget sizes"
	blue.H1 = []string{"Blue widget sizes"}
	blue.Headings = []models.Heading{{Level: 2, Text: "Blue widget colours"}}
	blue.Links = []models.Link{internalLink("https://example.com/widgets/red")}

	red := cleanPage("https://example.com/widgets/red")
	red.Title = "Red widget sizes"
	red.H1 = []string{}
	red.Headings = []models.Heading{}
	red.Links = []models.Link{internalLink("https://example.com/")}

	care := cleanPage("https://example.com/guides/widget-care")
	care.Title = "Widget care guide"
	care.H1 = []string{"Widget care guide"}
	care.Headings = []models.Heading{{Level: 2, Text: "Cleaning a blue widget"}}
	care.Links = []models.Link{internalLink("https://example.com/guides/widget-care")}

	return []models.CrawledPage{root, blue, red, care}
}

func TestGenerateInternalLinkSuggestions(t *testing.T) {
	suggestions := GenerateInternalLinkSuggestions(linkFixture())
	require.Len(t, suggestions, 2)

	assert.Equal(t, "https://example.com/widgets/blue", suggestions[0].SourcePage)
	assert.Equal(t, "https://example.com/guides/widget-care", suggestions[0].TargetPage)
	assert.Equal(t, "Widget care guide", suggestions[0].AnchorText)
	assert.InDelta(t, 2.0/7.0, suggestions[0].Relevance, 0.001)
	assert.Equal(t, []string{"blue", "widget"}, suggestions[0].SharedTopics)

	// The root already links to the blue page, so the next best source wins.
	assert.Equal(t, "https://example.com/widgets/red", suggestions[1].SourcePage)
	assert.Equal(t, "https://example.com/widgets/blue", suggestions[1].TargetPage)
	assert.Equal(t, "Blue widget sizes", suggestions[1].AnchorText)
	assert.InDelta(t, 0.4, suggestions[1].Relevance, 0.001)
	assert.Equal(t, []string{"sizes", "widget"}, suggestions[1].SharedTopics)

	for _, s := range suggestions {
		assert.NotEqual(t, s.SourcePage, s.TargetPage)
		assert.GreaterOrEqual(t, s.Relevance, MinRelevance)
	}
}

func TestInternalLinkTiesGoToSmallerSourceURL(t *testing.T) {
	target := cleanPage("https://example.com/t")
	target.Title = "Garden hose reels"
	target.Headings = []models.Heading{}
	b := cleanPage("https://example.com/b-source")
	b.Title = "Garden hose reels"
	b.Headings = []models.Heading{}
	a := cleanPage("https://example.com/a-source")
	a.Title = "Garden hose reels"
	a.Headings = []models.Heading{}

	suggestions := GenerateInternalLinkSuggestions([]models.CrawledPage{target, b, a})

	var found bool
	for _, s := range suggestions {
		if s.TargetPage == target.URL {
			found = true
			assert.Equal(t, "https://example.com/a-source", s.SourcePage)
			assert.Equal(t, 1.0, s.Relevance)
		}
	}
	assert.True(t, found)
}

func TestInternalLinkSuggestionsNeedRelatedPages(t *testing.T) {
	a := cleanPage("https://example.com/a")
	a.Title = "Garden hose reels"
	a.Headings = []models.Heading{}
	b := cleanPage("https://example.com/b")
	b.Title = "Quarterly tax filing"
	b.Headings = []models.Heading{}

	assert.Empty(t, GenerateInternalLinkSuggestions([]models.CrawledPage{a, b}))
	assert.NotNil(t, GenerateInternalLinkSuggestions(nil))
}

func contentFixture() []models.CrawledPage {
	published := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)

	root := cleanPage("https://example.com/")
	root.Links = []models.Link{
		internalLink("https://example.com/thin"),
		internalLink("https://example.com/long"),
	}

	thin := cleanPage("https://example.com/thin")
	thin.WordCount = 120
	thin.MetaDescription = ""

	long := cleanPage("https://example.com/long")
	long.WordCount = 900
	long.Headings = []models.Heading{{Level: 1, Text: "Guide"}, {Level: 3, Text: "Aside"}}
	long.PublishedAt = &published

	orphan := cleanPage("https://example.com/orphan")
	orphan.WordCount = 400
	orphan.MetaDescription = ""

	return []models.CrawledPage{root, thin, long, orphan}
}

func contentTypes(suggestions []models.ContentSuggestion) []models.ContentSuggestionType {
	types := make([]models.ContentSuggestionType, len(suggestions))
	for i, s := range suggestions {
		types[i] = s.Type
	}
	return types
}

func TestGenerateContentSuggestions(t *testing.T) {
	suggestions := GenerateContentSuggestions(contentFixture(),
		WithReferenceTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, []models.ContentSuggestionType{
		models.ContentThinPages,
		models.ContentNoFAQPage,
		models.ContentMetaCoverage,
		models.ContentRefreshStale,
		models.ContentOrphanPage,
		models.ContentAddSubheadings,
	}, contentTypes(suggestions))

	assert.Contains(t, suggestions[0].Suggestion, "1 of 4 pages")
	assert.Empty(t, suggestions[0].PageURL)
	assert.Equal(t, models.PriorityHigh, suggestions[2].Priority)
	assert.Equal(t, "https://example.com/orphan", suggestions[4].PageURL)
	assert.Equal(t, "https://example.com/long", suggestions[5].PageURL)
}

func TestGenerateContentSuggestionsWithoutReferenceTime(t *testing.T) {
	suggestions := GenerateContentSuggestions(contentFixture())
	assert.NotContains(t, contentTypes(suggestions), models.ContentRefreshStale)
}

func TestGenerateContentSuggestionsHealthySite(t *testing.T) {
	root := cleanPage("https://example.com/")
	root.SchemaTypes = []string{"FAQPage"}
	root.Links = []models.Link{internalLink("https://example.com/about")}
	about := cleanPage("https://example.com/about")

	assert.Empty(t, GenerateContentSuggestions([]models.CrawledPage{root, about}))

	empty := GenerateContentSuggestions(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLinkAuthority(t *testing.T) {
	ranked := LinkAuthority(linkFixture(), 0)
	require.Len(t, ranked, 4)

	total := 0.0
	for _, p := range ranked {
		total += p.Authority
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// Red is linked from both the root and the blue page.
	assert.Equal(t, "https://example.com/widgets/red", ranked[0].URL)
	assert.Equal(t, 2, ranked[0].InboundLinks)

	// The care guide only links to itself, so it has the least authority.
	last := ranked[len(ranked)-1]
	assert.Equal(t, "https://example.com/guides/widget-care", last.URL)
	assert.Zero(t, last.InboundLinks)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Authority, ranked[i].Authority)
	}
	assert.Equal(t, ranked, LinkAuthority(linkFixture(), 0))
}

func TestLinkAuthorityLimitAndEmpty(t *testing.T) {
	assert.Len(t, LinkAuthority(linkFixture(), 2), 2)

	empty := LinkAuthority(nil, DefaultTopAuthority)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
