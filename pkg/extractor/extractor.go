// Package extractor turns a fetched HTML document into a models.CrawledPage.
// It tolerates malformed markup and never returns an error: anything it
// cannot read is left empty.
package extractor

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

// skippedTextElements never contribute to the visible word count.
var skippedTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
}

// publishedMetaSelectors are tried in order before falling back to
// trafilatura's date detection.
var publishedMetaSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[itemprop="datePublished"]`,
	`meta[name="date"]`,
	`meta[name="dc.date"]`,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Extractor handles structural extraction for one crawl. The root URL
// decides which links count as internal.
type Extractor struct {
	rootURL      string
	dateFallback bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDateFallback toggles trafilatura-based publish date detection for
// pages that carry no explicit date meta tag.
func WithDateFallback(enabled bool) Option {
	return func(e *Extractor) {
		e.dateFallback = enabled
	}
}

// New creates a new Extractor for pages belonging to rootURL.
func New(rootURL string, opts ...Option) *Extractor {
	e := &Extractor{rootURL: rootURL, dateFallback: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses body as served from finalURL (the post-redirect URL) and
// returns the structured page. The page URL is the canonical form of
// finalURL. Relative references resolve against <base href> when present,
// otherwise against finalURL as served.
func (e *Extractor) Extract(body []byte, finalURL string, statusCode int, loadTime time.Duration) models.CrawledPage {
	pageURL, err := utils.CanonicalURL(finalURL)
	if err != nil {
		pageURL = finalURL
	}
	page := models.CrawledPage{
		URL:         pageURL,
		StatusCode:  statusCode,
		H1:          []string{},
		Headings:    []models.Heading{},
		Images:      []models.Image{},
		Links:       []models.Link{},
		SchemaTypes: []string{},
		LoadTimeMs:  loadTime.Milliseconds(),
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return page
	}
	doc := goquery.NewDocumentFromNode(root)
	base := resolveBase(doc, finalURL)

	page.Title = utils.CleanText(doc.Find("title").First().Text())
	page.MetaDescription = metaContent(doc, "description")
	page.RobotsDirective = strings.ToLower(metaContent(doc, "robots"))
	page.Lang = strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))
	page.CanonicalURL = extractCanonical(doc, base)
	page.H1, page.Headings = extractHeadings(doc)
	page.Images = extractImages(doc, base)
	page.Links = e.extractLinks(doc, base)
	page.SchemaTypes = extractSchemaTypes(doc)
	page.WordCount = countWords(root)
	page.PublishedAt = e.publishedAt(doc, body)

	return page
}

func resolveBase(doc *goquery.Document, pageURL string) *url.URL {
	pageBase, err := url.Parse(pageURL)
	if err != nil {
		pageBase = &url.URL{}
	}
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageBase
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageBase
	}
	return pageBase.ResolveReference(ref)
}

// metaContent returns the content of the first <meta name=...> whose name
// matches case-insensitively and whose content is not blank.
func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			return true
		}
		content = utils.CleanText(s.AttrOr("content", ""))
		return content == ""
	})
	return content
}

func extractCanonical(doc *goquery.Document, base *url.URL) string {
	var canonical string
	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, rel := range strings.Fields(s.AttrOr("rel", "")) {
			if !strings.EqualFold(rel, "canonical") {
				continue
			}
			canonical = resolve(base, s.AttrOr("href", ""))
			return canonical == ""
		}
		return true
	})
	return canonical
}

func extractHeadings(doc *goquery.Document) ([]string, []models.Heading) {
	h1 := []string{}
	headings := []models.Heading{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := int(goquery.NodeName(s)[1] - '0')
		text := utils.CleanText(s.Text())
		headings = append(headings, models.Heading{Level: level, Text: text})
		if level == 1 {
			h1 = append(h1, text)
		}
	})
	return h1, headings
}

func extractImages(doc *goquery.Document, base *url.URL) []models.Image {
	images := []models.Image{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if resolved := resolve(base, src); resolved != "" {
			src = resolved
		}
		img := models.Image{Src: src}
		if alt, ok := s.Attr("alt"); ok {
			alt = strings.TrimSpace(alt)
			img.Alt = &alt
		}
		images = append(images, img)
	})
	return images
}

// extractLinks returns http(s) links in document order, canonicalized and
// deduplicated by href. The first anchor text seen for an href is kept.
func (e *Extractor) extractLinks(doc *goquery.Document, base *url.URL) []models.Link {
	links := []models.Link{}
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.AttrOr("href", ""))
		if raw == "" || strings.HasPrefix(raw, "#") {
			return
		}
		href, err := utils.ResolveCanonical(base, raw)
		if err != nil || seen[href] {
			return
		}
		seen[href] = true

		text := utils.CleanText(s.Text())
		if text == "" {
			text = utils.CleanText(s.Find("img[alt]").First().AttrOr("alt", ""))
		}
		links = append(links, models.Link{
			Href:       href,
			IsInternal: utils.SameSite(href, e.rootURL),
			AnchorText: text,
		})
	})
	return links
}

// extractSchemaTypes collects schema.org types from JSON-LD blocks and
// microdata itemtype attributes, in document order without duplicates.
func extractSchemaTypes(doc *goquery.Document) []string {
	types := []string{}
	seen := make(map[string]bool)
	add := func(t string) {
		t = schemaName(t)
		if t != "" && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	doc.Find("script[type]").Each(func(_ int, s *goquery.Selection) {
		mediaType, _, _ := strings.Cut(s.AttrOr("type", ""), ";")
		if !strings.EqualFold(strings.TrimSpace(mediaType), "application/ld+json") {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		collectJSONLDTypes(data, add)
	})

	doc.Find("[itemtype]").Each(func(_ int, s *goquery.Selection) {
		for _, t := range strings.Fields(s.AttrOr("itemtype", "")) {
			add(t)
		}
	})
	return types
}

// collectJSONLDTypes reads @type from a JSON-LD value. Top-level arrays and
// @graph containers are walked; nested entity properties are not.
func collectJSONLDTypes(v any, add func(string)) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			collectJSONLDTypes(item, add)
		}
	case map[string]any:
		switch t := node["@type"].(type) {
		case string:
			add(t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
		if graph, ok := node["@graph"]; ok {
			collectJSONLDTypes(graph, add)
		}
	}
}

// schemaName reduces "https://schema.org/FAQPage" or "schema:FAQPage" to
// "FAQPage".
func schemaName(t string) string {
	t = strings.TrimRight(strings.TrimSpace(t), "/")
	if i := strings.LastIndexAny(t, "/:#"); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// countWords counts whitespace-delimited tokens in visible text nodes.
func countWords(n *html.Node) int {
	if n.Type == html.ElementNode && skippedTextElements[n.Data] {
		return 0
	}
	if n.Type == html.CommentNode {
		return 0
	}
	if n.Type == html.TextNode {
		return len(strings.Fields(n.Data))
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countWords(c)
	}
	return count
}

func (e *Extractor) publishedAt(doc *goquery.Document, body []byte) *time.Time {
	for _, selector := range publishedMetaSelectors {
		if value, ok := doc.Find(selector).First().Attr("content"); ok {
			if t, ok := parseDate(value); ok {
				return &t
			}
		}
	}
	if value, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, ok := parseDate(value); ok {
			return &t
		}
	}
	if !e.dateFallback {
		return nil
	}
	return trafilaturaDate(body)
}

// trafilaturaDate asks trafilatura's metadata pass for a publish date.
// Short or unusual documents can make it fail; that just means no date.
func trafilaturaDate(body []byte) (published *time.Time) {
	defer func() {
		if recover() != nil {
			published = nil
		}
	}()

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{})
	if err != nil || result == nil || result.Metadata.Date.IsZero() {
		return nil
	}
	t := result.Metadata.Date.UTC()
	return &t
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// resolve makes ref absolute against base. Unparseable refs resolve to "".
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
