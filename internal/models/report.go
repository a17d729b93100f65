package models

import "time"

// CrawlSummary is the part of a CrawlResult carried in a report. Page
// bodies are left out; the audit already holds what was found on them.
type CrawlSummary struct {
	RootURL      string       `json:"root_url" yaml:"root_url"`
	Status       CrawlStatus  `json:"status" yaml:"status"`
	TotalPages   int          `json:"total_pages" yaml:"total_pages"`
	CrawledPages int          `json:"crawled_pages" yaml:"crawled_pages"`
	Errors       []CrawlError `json:"errors" yaml:"errors"`
	StartedAt    time.Time    `json:"started_at" yaml:"started_at"`
	DurationMs   int64        `json:"duration_ms" yaml:"duration_ms"`
}

// SummarizeCrawl drops the pages from a crawl result.
func SummarizeCrawl(result *CrawlResult) CrawlSummary {
	errs := result.Errors
	if errs == nil {
		errs = []CrawlError{}
	}
	return CrawlSummary{
		RootURL:      result.RootURL,
		Status:       result.Status,
		TotalPages:   result.TotalPages,
		CrawledPages: result.CrawledPages,
		Errors:       errs,
		StartedAt:    result.StartedAt,
		DurationMs:   result.DurationMs,
	}
}

// PageAuthority is a page's share of internal link equity.
type PageAuthority struct {
	URL          string  `json:"url" yaml:"url"`
	Authority    float64 `json:"authority" yaml:"authority"`
	InboundLinks int     `json:"inbound_links" yaml:"inbound_links"`
}

// Report combines one crawl with its audit and remediation proposals.
// Reports are immutable snapshots; a later run produces a new one.
type Report struct {
	ID                 string                   `json:"id,omitempty" yaml:"id,omitempty"`
	GeneratedAt        time.Time                `json:"generated_at" yaml:"generated_at"`
	Crawl              CrawlSummary             `json:"crawl" yaml:"crawl"`
	Grade              string                   `json:"grade" yaml:"grade"`
	Audit              AuditResult              `json:"audit" yaml:"audit"`
	Fixes              []FixSuggestion          `json:"fixes" yaml:"fixes"`
	LinkSuggestions    []InternalLinkSuggestion `json:"link_suggestions" yaml:"link_suggestions"`
	ContentSuggestions []ContentSuggestion      `json:"content_suggestions" yaml:"content_suggestions"`
	TopPages           []PageAuthority          `json:"top_pages" yaml:"top_pages"`
}
