// Package crawler walks a site breadth-first from a root URL and collects a
// models.CrawledPage for every HTML page it fetches.
//
// Fetches to one origin are serialized through a politeness limiter;
// extraction of fetched bodies runs on a bounded worker pool. Frontier order
// is that of a single FIFO queue regardless of the pool size.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/extractor"
	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
	"github.com/amosWeiskopf/siteaudit/pkg/sitemap"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

// DefaultExtractWorkers bounds concurrent extraction within one crawl.
const DefaultExtractWorkers = 4

// Outcomes reported through Progress.Outcome.
const (
	OutcomeCrawled         = "crawled"
	OutcomeFailed          = "failed"
	OutcomeSkippedDepth    = "skipped_depth"
	OutcomeSkippedRobots   = "skipped_robots"
	OutcomeSkippedNonHTML  = "skipped_non_html"
	OutcomeSkippedExternal = "skipped_external"
	OutcomeDuplicate       = "duplicate"
)

// ProgressFunc receives a snapshot after each frontier item is resolved.
// It is called synchronously from the crawl loop. When one Crawler runs
// several crawls at once the function must be safe for concurrent use.
type ProgressFunc func(models.Progress)

// Crawler crawls sites. It holds only immutable settings, so one Crawler
// may run any number of crawls concurrently.
type Crawler struct {
	fetcher        fetcher.Fetcher
	userAgent      string
	logger         *zap.Logger
	extractWorkers int
	useSitemap     bool
	dateFallback   bool
	progress       ProgressFunc
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// WithUserAgent sets the agent used for requests and robots.txt matching.
func WithUserAgent(userAgent string) Option {
	return func(c *Crawler) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithExtractWorkers bounds the extraction pool.
func WithExtractWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.extractWorkers = n
		}
	}
}

// WithSitemap toggles seeding the frontier from sitemaps.
func WithSitemap(enabled bool) Option {
	return func(c *Crawler) {
		c.useSitemap = enabled
	}
}

// WithDateFallback toggles trafilatura publish date detection.
func WithDateFallback(enabled bool) Option {
	return func(c *Crawler) {
		c.dateFallback = enabled
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Crawler) {
		c.progress = fn
	}
}

// New creates a Crawler. Without WithFetcher it fetches over HTTP with the
// configured user agent and fetcher defaults.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		userAgent:      fetcher.DefaultUserAgent,
		logger:         zap.NewNop(),
		extractWorkers: DefaultExtractWorkers,
		useSitemap:     true,
		dateFallback:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetcher.New(fetcher.Options{UserAgent: c.userAgent})
	}
	return c
}

// ValidateConfig rejects crawl budgets that cannot be honoured.
func ValidateConfig(cfg models.CrawlConfig) error {
	switch {
	case cfg.MaxPages <= 0:
		return fmt.Errorf("%w: max pages must be positive, got %d", ErrInvalidConfig, cfg.MaxPages)
	case cfg.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidConfig, cfg.MaxDepth)
	case cfg.DelayMs < 0:
		return fmt.Errorf("%w: delay must not be negative, got %dms", ErrInvalidConfig, cfg.DelayMs)
	}
	return nil
}

// NormalizeRootURL validates rootURL and returns its canonical form.
func NormalizeRootURL(rootURL string) (string, error) {
	u, err := url.Parse(rootURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRootURL, rootURL)
	}
	canonical, err := utils.CanonicalURL(rootURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRootURL, err)
	}
	return canonical, nil
}

// crawlRun carries the per-call collaborators of one Crawl. The mutable
// frontier lives in CrawlState and is passed explicitly.
type crawlRun struct {
	*Crawler
	cfg       models.CrawlConfig
	root      string
	gates     *gates
	extractor *extractor.Extractor
	logger    *zap.Logger
}

// fetchedPage is a successful HTML response waiting for extraction.
type fetchedPage struct {
	item frontierItem
	resp *fetcher.Response
}

// Crawl crawls rootURL within the budget in cfg. Invalid input fails with
// ErrInvalidConfig or ErrInvalidRootURL before any request is made. Fetch
// failures never fail the crawl; they are recorded in CrawlResult.Errors.
// When ctx is cancelled Crawl stops at the next frontier step and returns
// what it has with status aborted and a nil error.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, cfg models.CrawlConfig) (*models.CrawlResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	root, err := NormalizeRootURL(rootURL)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	logger := c.logger.With(zap.String("root_url", root))
	run := &crawlRun{
		Crawler:   c,
		cfg:       cfg,
		root:      root,
		gates:     newGates(c.fetcher, c.userAgent, cfg.RespectRobotsTxt, time.Duration(cfg.DelayMs)*time.Millisecond, logger),
		extractor: extractor.New(root, extractor.WithDateFallback(c.dateFallback)),
		logger:    logger,
	}

	state := newCrawlState()
	state.enqueue(root, 0)
	if c.useSitemap && cfg.MaxDepth >= 1 && ctx.Err() == nil {
		run.seedFromSitemaps(ctx, state)
	}

	status := models.CrawlCompleted
	for state.pending() && state.accepted < cfg.MaxPages {
		if aborted := run.crawlLevel(ctx, state); aborted {
			status = models.CrawlAborted
			break
		}
	}

	result := &models.CrawlResult{
		RootURL:      root,
		Status:       status,
		Pages:        state.pages,
		TotalPages:   state.discovered,
		CrawledPages: len(state.pages),
		Errors:       state.errors,
		StartedAt:    startedAt.UTC(),
		DurationMs:   time.Since(startedAt).Milliseconds(),
	}

	logger.Info("crawl finished",
		zap.String("status", string(result.Status)),
		zap.Int("pages", result.CrawledPages),
		zap.Int("errors", len(result.Errors)),
		zap.Int("discovered", result.TotalPages),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

// seedFromSitemaps queues same-site sitemap URLs at depth 1, ahead of any
// link found on the root page.
func (r *crawlRun) seedFromSitemaps(ctx context.Context, state *CrawlState) {
	gate, err := r.gates.forURL(ctx, r.root)
	if err != nil {
		return
	}

	parser := sitemap.New(gatedFetcher{gates: r.gates}, sitemap.WithLogger(r.logger))
	seeded := 0
	for _, loc := range parser.Discover(ctx, r.root, gate.policy.Sitemaps()...) {
		canonical, err := utils.CanonicalURL(loc)
		if err != nil || !utils.SameSite(canonical, r.root) || !utils.IsPageURL(canonical) {
			continue
		}
		if state.enqueue(canonical, 1) {
			seeded++
		}
	}
	r.logger.Info("sitemap seeds queued", zap.Int("seeds", seeded))
}

// crawlLevel fetches every item currently queued, in order, then extracts
// the fetched pages in parallel and queues their links in fetch order. It
// reports whether the crawl was aborted.
func (r *crawlRun) crawlLevel(ctx context.Context, state *CrawlState) bool {
	batch := state.takeLevel()
	fetched := make([]fetchedPage, 0, len(batch))
	aborted := false

	for _, item := range batch {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		if state.accepted >= r.cfg.MaxPages {
			break
		}

		resp, outcome, err := r.visit(ctx, state, item)
		if err != nil {
			aborted = true
			break
		}
		if resp != nil {
			fetched = append(fetched, fetchedPage{item: item, resp: resp})
		}
		if r.progress != nil {
			r.progress(state.progress(item, outcome))
		}
	}

	pages := r.extractAll(fetched)
	for i, page := range pages {
		state.pages = append(state.pages, page)
		for _, link := range page.Links {
			if link.IsInternal && utils.IsPageURL(link.Href) {
				state.enqueue(link.Href, fetched[i].item.depth+1)
			}
		}
	}
	return aborted
}

// visit resolves one frontier item. A non-nil response means the page was
// accepted for extraction. A non-nil error means ctx was cancelled before
// the request went out.
func (r *crawlRun) visit(ctx context.Context, state *CrawlState, item frontierItem) (*fetcher.Response, string, error) {
	if item.depth > r.cfg.MaxDepth {
		return nil, OutcomeSkippedDepth, nil
	}
	if state.crawled[item.url] {
		return nil, OutcomeDuplicate, nil
	}

	gate, err := r.gates.forURL(ctx, item.url)
	if err != nil {
		state.fail(item.url, err.Error())
		return nil, OutcomeFailed, nil
	}
	if r.cfg.RespectRobotsTxt && !gate.policy.IsAllowed(utils.PathOf(item.url)) {
		r.logger.Debug("disallowed by robots.txt", zap.String("url", item.url))
		return nil, OutcomeSkippedRobots, nil
	}
	if err := gate.wait(ctx); err != nil {
		return nil, "", err
	}

	r.logger.Debug("fetching", zap.String("url", item.url), zap.Int("depth", item.depth))
	resp, err := r.fetcher.Fetch(context.WithoutCancel(ctx), item.url)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		r.logger.Warn("fetch failed", zap.String("url", item.url), zap.Error(err))
		state.fail(item.url, failureReason(err))
		return nil, OutcomeFailed, nil
	}
	if !resp.IsHTML() {
		return nil, OutcomeSkippedNonHTML, nil
	}

	final, err := utils.CanonicalURL(resp.URL)
	if err != nil {
		final = item.url
	}
	if !utils.SameSite(final, r.root) {
		return nil, OutcomeSkippedExternal, nil
	}
	if !state.markCrawled(final) {
		return nil, OutcomeDuplicate, nil
	}
	state.crawled[item.url] = true
	return resp, OutcomeCrawled, nil
}

// extractAll extracts fetched pages on a bounded pool. Each task writes only
// its own slot, so the result keeps fetch order without locking.
func (r *crawlRun) extractAll(fetched []fetchedPage) []models.CrawledPage {
	pages := make([]models.CrawledPage, len(fetched))
	if len(fetched) == 0 {
		return pages
	}

	var g errgroup.Group
	g.SetLimit(r.extractWorkers)
	for i, f := range fetched {
		g.Go(func() error {
			pages[i] = r.extractor.Extract(f.resp.Body, f.resp.URL, f.resp.StatusCode, f.resp.Duration)
			return nil
		})
	}
	_ = g.Wait()
	return pages
}

func failureReason(err error) string {
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP %d", statusErr.StatusCode)
	}
	return err.Error()
}
