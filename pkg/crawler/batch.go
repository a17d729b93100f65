package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// DefaultBatchConcurrency is used when CrawlSites gets a non-positive limit.
const DefaultBatchConcurrency = 4

// CrawlSites crawls several independent sites in parallel, at most
// concurrency at a time. Each site gets its own crawl with its own frontier
// and politeness gates, so per-origin spacing is unaffected. Results are
// returned in the order of roots.
//
// All roots and cfg are validated before any crawl starts.
func CrawlSites(ctx context.Context, sc SiteCrawler, roots []string, cfg models.CrawlConfig, concurrency int) ([]*models.CrawlResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	for _, root := range roots {
		if _, err := NormalizeRootURL(root); err != nil {
			return nil, err
		}
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]*models.CrawlResult, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, root := range roots {
		g.Go(func() error {
			result, err := sc.Crawl(ctx, root, cfg)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
