package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

const widgetsPage = `<!DOCTYPE html>
<html lang="en">
<head>
	<title>  Acme
	  Widgets </title>
	<meta name="Description" content="Best widgets in town">
	<meta name="robots" content="NOINDEX, follow">
	<link rel="canonical" href="/widgets">
	<meta property="article:published_time" content="2021-03-04T10:00:00Z">
	<script type="application/ld+json">
	{"@context":"https://schema.org","@graph":[{"@type":"Organization"},{"@type":["WebPage","FAQPage"]}]}
	</script>
</head>
<body>
	<h1>Widgets</h1>
	<p>Our widgets are great.</p>
	<script>var ignored = "lots of words in a script";</script>
	<style>.x { color: red }</style>
	<h2>Why buy?</h2>
	<h1>Second heading</h1>
	<div itemscope itemtype="https://schema.org/Product"></div>
	<img src="/a.png" alt="An image">
	<img src="b.png" alt="">
	<img src="/c.png">
	<a href="/about?ref=nav#team">About us</a>
	<a href="/about">Duplicate</a>
	<a href="https://blog.example.com/post">Blog</a>
	<a href="https://other.org/">Other</a>
	<a href="#top">Top</a>
	<a href="mailto:x@example.com">Mail</a>
	<a href="/contact"><img src="/i.png" alt="Contact"></a>
</body>
</html>`

func newTestExtractor() *Extractor {
	return New("https://www.example.com/", WithDateFallback(false))
}

func TestExtract(t *testing.T) {
	page := newTestExtractor().Extract([]byte(widgetsPage), "https://www.example.com/widgets", 200, 1500*time.Millisecond)

	assert.Equal(t, "https://www.example.com/widgets", page.URL)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, int64(1500), page.LoadTimeMs)
	assert.Equal(t, "Acme Widgets", page.Title)
	assert.Equal(t, "Best widgets in town", page.MetaDescription)
	assert.Equal(t, "noindex, follow", page.RobotsDirective)
	assert.Equal(t, "en", page.Lang)
	assert.Equal(t, "https://www.example.com/widgets", page.CanonicalURL)

	assert.Equal(t, []string{"Widgets", "Second heading"}, page.H1)
	assert.Equal(t, []models.Heading{
		{Level: 1, Text: "Widgets"},
		{Level: 2, Text: "Why buy?"},
		{Level: 1, Text: "Second heading"},
	}, page.Headings)

	assert.Equal(t, []string{"Organization", "WebPage", "FAQPage", "Product"}, page.SchemaTypes)
	assert.True(t, page.HasSchema("FAQPage"))

	require.NotNil(t, page.PublishedAt)
	assert.Equal(t, time.Date(2021, 3, 4, 10, 0, 0, 0, time.UTC), *page.PublishedAt)
}

func TestExtractWordCountIgnoresMarkup(t *testing.T) {
	page := newTestExtractor().Extract([]byte(widgetsPage), "https://www.example.com/widgets", 200, 0)

	// Widgets(1) + Our widgets are great.(4) + Why buy?(2) + Second heading(2)
	// + anchors: About us(2) Duplicate Blog Other Top Mail(5)
	assert.Equal(t, 16, page.WordCount)
}

func TestExtractLinks(t *testing.T) {
	page := newTestExtractor().Extract([]byte(widgetsPage), "https://www.example.com/widgets", 200, 0)

	assert.Equal(t, []models.Link{
		{Href: "https://www.example.com/about", IsInternal: true, AnchorText: "About us"},
		{Href: "https://blog.example.com/post", IsInternal: true, AnchorText: "Blog"},
		{Href: "https://other.org/", IsInternal: false, AnchorText: "Other"},
		{Href: "https://www.example.com/contact", IsInternal: true, AnchorText: "Contact"},
	}, page.Links)
}

func TestExtractImages(t *testing.T) {
	page := newTestExtractor().Extract([]byte(widgetsPage), "https://www.example.com/widgets/", 200, 0)

	require.Len(t, page.Images, 3)
	assert.Equal(t, "https://www.example.com/a.png", page.Images[0].Src)
	require.NotNil(t, page.Images[0].Alt)
	assert.Equal(t, "An image", *page.Images[0].Alt)

	assert.Equal(t, "https://www.example.com/widgets/b.png", page.Images[1].Src)
	require.NotNil(t, page.Images[1].Alt, "empty alt is present, not missing")
	assert.Empty(t, *page.Images[1].Alt)

	assert.Nil(t, page.Images[2].Alt)
}

func TestExtractBaseHref(t *testing.T) {
	body := `<html><head><base href="https://cdn.example.com/docs/"></head>
		<body><a href="guide">Guide</a><img src="logo.png" alt="Logo"></body></html>`

	page := newTestExtractor().Extract([]byte(body), "https://www.example.com/start", 200, 0)

	require.Len(t, page.Links, 1)
	assert.Equal(t, "https://cdn.example.com/docs/guide", page.Links[0].Href)
	assert.True(t, page.Links[0].IsInternal)
	assert.Equal(t, "https://cdn.example.com/docs/logo.png", page.Images[0].Src)
}

func TestExtractMalformedHTML(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "unclosed tags", body: `<html><head><title>Broken<body><h1>Heading<p>text <a href="/x">x`},
		{name: "binary noise", body: "\x00\x01\x02<<<>>>&&&"},
		{name: "bad json-ld", body: `<script type="application/ld+json">{not json</script><p>ok</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page models.CrawledPage
			assert.NotPanics(t, func() {
				page = newTestExtractor().Extract([]byte(tt.body), "https://www.example.com/", 200, 0)
			})
			assert.Equal(t, "https://www.example.com/", page.URL)
			assert.NotNil(t, page.H1)
			assert.NotNil(t, page.Links)
			assert.NotNil(t, page.Images)
			assert.NotNil(t, page.SchemaTypes)
		})
	}
}

func TestExtractUnclosedMarkupKeepsFields(t *testing.T) {
	body := `<html><head><title>Broken</title><body><h1>Heading<p>some text here <a href="/x">x`
	page := newTestExtractor().Extract([]byte(body), "https://www.example.com/", 200, 0)

	assert.Equal(t, "Broken", page.Title)
	require.Len(t, page.H1, 1)
	assert.Contains(t, page.H1[0], "Heading")
	require.Len(t, page.Links, 1)
	assert.Equal(t, "https://www.example.com/x", page.Links[0].Href)
}

func TestSchemaName(t *testing.T) {
	tests := map[string]string{
		"FAQPage":                    "FAQPage",
		"https://schema.org/Article": "Article",
		"http://schema.org/Product/": "Product",
		"schema:Recipe":              "Recipe",
		"  ":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, schemaName(in), in)
	}
}

func TestParseDate(t *testing.T) {
	got, ok := parseDate("2020-01-02")
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), got)

	_, ok = parseDate("last tuesday")
	assert.False(t, ok)
}
