package crawler

import (
	"context"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// SiteCrawler defines the interface for crawling one site. *Crawler
// implements it; batch runs and the CLI depend only on this.
type SiteCrawler interface {
	// Crawl crawls rootURL within the budget in cfg.
	Crawl(ctx context.Context, rootURL string, cfg models.CrawlConfig) (*models.CrawlResult, error)
}

var _ SiteCrawler = (*Crawler)(nil)
