package models

import "time"

// CrawledPage represents a fetched and extracted web page.
// Pages are immutable once produced by the extractor.
type CrawledPage struct {
	URL             string     `json:"url" yaml:"url"`
	StatusCode      int        `json:"status_code" yaml:"status_code"`
	Title           string     `json:"title,omitempty" yaml:"title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty" yaml:"meta_description,omitempty"`
	H1              []string   `json:"h1" yaml:"h1"`
	Headings        []Heading  `json:"headings" yaml:"headings"`
	Images          []Image    `json:"images" yaml:"images"`
	Links           []Link     `json:"links" yaml:"links"`
	SchemaTypes     []string   `json:"schema_types" yaml:"schema_types"`
	WordCount       int        `json:"word_count" yaml:"word_count"`
	LoadTimeMs      int64      `json:"load_time_ms" yaml:"load_time_ms"`
	CanonicalURL    string     `json:"canonical_url,omitempty" yaml:"canonical_url,omitempty"`
	RobotsDirective string     `json:"robots_directive,omitempty" yaml:"robots_directive,omitempty"`
	Lang            string     `json:"lang,omitempty" yaml:"lang,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// Heading is a single h1-h6 element in document order.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// Image is an <img> element. Alt is nil when the attribute is absent;
// an empty alt attribute marks a decorative image.
type Image struct {
	Src string  `json:"src" yaml:"src"`
	Alt *string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Link represents a hyperlink from one page to another
type Link struct {
	Href       string `json:"href" yaml:"href"`
	IsInternal bool   `json:"is_internal" yaml:"is_internal"`
	AnchorText string `json:"anchor_text" yaml:"anchor_text"`
}

// HasSchema reports whether the page declares the given schema.org type.
func (p *CrawledPage) HasSchema(schemaType string) bool {
	for _, t := range p.SchemaTypes {
		if t == schemaType {
			return true
		}
	}
	return false
}

// CrawlStatus is the terminal state of a crawl.
type CrawlStatus string

const (
	CrawlCompleted CrawlStatus = "completed"
	CrawlAborted   CrawlStatus = "aborted"
)

// CrawlError records a URL that could not be fetched.
type CrawlError struct {
	URL    string `json:"url" yaml:"url"`
	Reason string `json:"reason" yaml:"reason"`
}

// CrawlResult contains the results of a crawl operation.
//
// CrawledPages always equals len(Pages), and CrawledPages+len(Errors)
// never exceeds TotalPages.
type CrawlResult struct {
	RootURL      string        `json:"root_url" yaml:"root_url"`
	Status       CrawlStatus   `json:"status" yaml:"status"`
	Pages        []CrawledPage `json:"pages" yaml:"pages"`
	TotalPages   int           `json:"total_pages" yaml:"total_pages"`
	CrawledPages int           `json:"crawled_pages" yaml:"crawled_pages"`
	Errors       []CrawlError  `json:"errors" yaml:"errors"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	DurationMs   int64         `json:"duration_ms" yaml:"duration_ms"`
}

// CrawlConfig is the caller-supplied crawl budget and politeness settings.
type CrawlConfig struct {
	MaxPages         int  `json:"max_pages" yaml:"max_pages"`
	MaxDepth         int  `json:"max_depth" yaml:"max_depth"`
	DelayMs          int  `json:"delay_ms" yaml:"delay_ms"`
	RespectRobotsTxt bool `json:"respect_robots_txt" yaml:"respect_robots_txt"`
}

// Progress is reported to the caller after each frontier item is resolved.
type Progress struct {
	URL          string `json:"url"`
	Depth        int    `json:"depth"`
	Outcome      string `json:"outcome"`
	Discovered   int    `json:"discovered"`
	CrawledPages int    `json:"crawled_pages"`
	Errors       int    `json:"errors"`
}
