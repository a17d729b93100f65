package crawler

import (
	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// frontierItem is a queued URL with its BFS depth. The URL is canonical.
type frontierItem struct {
	url   string
	depth int
}

// CrawlState is the mutable state of one crawl. It is owned by the crawl
// loop and never shared; Crawl returns a snapshot of it as a CrawlResult.
type CrawlState struct {
	queue   []frontierItem
	seen    map[string]bool
	crawled map[string]bool

	pages  []models.CrawledPage
	errors []models.CrawlError

	// discovered counts unique URLs ever enqueued, the root included.
	discovered int
	// accepted counts fetches that will become pages, including those
	// still waiting for extraction.
	accepted int
}

func newCrawlState() *CrawlState {
	return &CrawlState{
		seen:    make(map[string]bool),
		crawled: make(map[string]bool),
		pages:   []models.CrawledPage{},
		errors:  []models.CrawlError{},
	}
}

// enqueue adds url at depth unless it was already queued or visited.
func (s *CrawlState) enqueue(url string, depth int) bool {
	if s.seen[url] {
		return false
	}
	s.seen[url] = true
	s.discovered++
	s.queue = append(s.queue, frontierItem{url: url, depth: depth})
	return true
}

// takeLevel removes and returns everything currently queued. Links found
// while processing the batch are queued behind it, so consuming batches in
// order visits URLs in the same order as a single FIFO queue.
func (s *CrawlState) takeLevel() []frontierItem {
	batch := s.queue
	s.queue = nil
	return batch
}

func (s *CrawlState) pending() bool {
	return len(s.queue) > 0
}

// markCrawled records a final URL as fetched. It reports false when the URL
// was already crawled, for example when two URLs redirect to the same page.
func (s *CrawlState) markCrawled(url string) bool {
	if s.crawled[url] {
		return false
	}
	s.crawled[url] = true
	s.seen[url] = true
	s.accepted++
	return true
}

func (s *CrawlState) fail(url, reason string) {
	s.errors = append(s.errors, models.CrawlError{URL: url, Reason: reason})
}

func (s *CrawlState) progress(item frontierItem, outcome string) models.Progress {
	return models.Progress{
		URL:          item.url,
		Depth:        item.depth,
		Outcome:      outcome,
		Discovered:   s.discovered,
		CrawledPages: s.accepted,
		Errors:       len(s.errors),
	}
}
