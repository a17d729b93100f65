// Package sitemap discovers and parses sitemap.xml files and sitemap indexes
// into a set of seed URLs for the crawler.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

const (
	// DefaultMaxDepth bounds sitemap index nesting.
	DefaultMaxDepth = 3

	// DefaultMaxURLs is the per-file limit from the sitemaps protocol.
	DefaultMaxURLs = 50000
)

// wellKnownPaths are tried in order before any robots.txt Sitemap: lines.
var wellKnownPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}

// xmlURLSet is the root element of a standard sitemap XML file.
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

// xmlURL is a single <url> entry inside a <urlset>.
type xmlURL struct {
	Loc string `xml:"loc"`
}

// xmlSitemapIndex is the root element of a sitemap index XML file.
type xmlSitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

// xmlSitemap is a single <sitemap> entry inside a <sitemapindex>.
type xmlSitemap struct {
	Loc string `xml:"loc"`
}

// ParseURLSet parses a <urlset> document and returns its locations.
func ParseURLSet(body []byte) ([]string, error) {
	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	urls := make([]string, 0, len(urlset.URLs))
	for _, u := range urlset.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// ParseIndex parses a <sitemapindex> document and returns the child
// sitemap locations.
func ParseIndex(body []byte) ([]string, error) {
	var index xmlSitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("parse sitemap index: %w", err)
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, s := range index.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// Parser discovers sitemap URLs for a site.
type Parser struct {
	fetcher  fetcher.Fetcher
	maxDepth int
	maxURLs  int
	logger   *zap.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth sets the sitemap index recursion bound.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithMaxURLs caps the number of URLs returned by Discover.
func WithMaxURLs(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxURLs = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New returns a Parser that fetches through f.
func New(f fetcher.Fetcher, opts ...Option) *Parser {
	p := &Parser{
		fetcher:  f,
		maxDepth: DefaultMaxDepth,
		maxURLs:  DefaultMaxURLs,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Discover tries {origin}/sitemap.xml, then {origin}/sitemap_index.xml, then
// each robots.txt Sitemap: URL, and returns the URLs of the first source
// that yields any. Missing or malformed sitemaps are not errors; the result
// is simply empty.
func (p *Parser) Discover(ctx context.Context, baseURL string, robotsSitemaps ...string) []string {
	origin, err := utils.Origin(baseURL)
	if err != nil {
		return []string{}
	}

	candidates := make([]string, 0, len(wellKnownPaths)+len(robotsSitemaps))
	for _, path := range wellKnownPaths {
		candidates = append(candidates, origin+path)
	}
	candidates = append(candidates, robotsSitemaps...)

	visited := make(map[string]bool)
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		var urls []string
		p.expand(ctx, candidate, 1, visited, &urls)
		if len(urls) > 0 {
			p.logger.Debug("sitemap discovered",
				zap.String("sitemap", candidate),
				zap.Int("urls", len(urls)))
			return dedupe(urls)
		}
	}
	return []string{}
}

// expand fetches one sitemap document and appends its page URLs, recursing
// into sitemap indexes until depth exceeds maxDepth. visited breaks cycles.
func (p *Parser) expand(ctx context.Context, sitemapURL string, depth int, visited map[string]bool, urls *[]string) {
	if depth > p.maxDepth || visited[sitemapURL] || len(*urls) >= p.maxURLs {
		return
	}
	visited[sitemapURL] = true

	resp, err := p.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		p.logger.Debug("sitemap fetch failed", zap.String("sitemap", sitemapURL), zap.Error(err))
		return
	}
	if !resp.OK() {
		return
	}

	if locs, err := ParseURLSet(resp.Body); err == nil {
		room := p.maxURLs - len(*urls)
		if len(locs) > room {
			locs = locs[:room]
		}
		*urls = append(*urls, locs...)
		return
	}

	children, err := ParseIndex(resp.Body)
	if err != nil {
		p.logger.Debug("sitemap malformed", zap.String("sitemap", sitemapURL), zap.Error(err))
		return
	}
	for _, child := range children {
		p.expand(ctx, child, depth+1, visited, urls)
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
