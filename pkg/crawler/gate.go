package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
	"github.com/amosWeiskopf/siteaudit/pkg/robots"
	"github.com/amosWeiskopf/siteaudit/pkg/utils"
)

// originGate holds the robots policy and politeness limiter of one origin.
// The limiter has a burst of one, so consecutive Wait calls return at least
// one delay apart.
type originGate struct {
	policy  *robots.Policy
	limiter *rate.Limiter
	delay   time.Duration
}

// gates lazily builds an originGate per origin for the lifetime of a single
// crawl. robots.txt is fetched at most once per origin, and the first page
// fetch after it still waits a full politeness window.
type gates struct {
	fetcher       fetcher.Fetcher
	userAgent     string
	respectRobots bool
	delay         time.Duration
	logger        *zap.Logger
	byOrigin      map[string]*originGate
}

func newGates(f fetcher.Fetcher, userAgent string, respectRobots bool, delay time.Duration, logger *zap.Logger) *gates {
	return &gates{
		fetcher:       f,
		userAgent:     userAgent,
		respectRobots: respectRobots,
		delay:         delay,
		logger:        logger,
		byOrigin:      make(map[string]*originGate),
	}
}

// forURL returns the gate for rawURL's origin, loading robots.txt on first
// use when robots are respected.
func (g *gates) forURL(ctx context.Context, rawURL string) (*originGate, error) {
	origin, err := utils.Origin(rawURL)
	if err != nil {
		return nil, fmt.Errorf("politeness gate: %w", err)
	}
	if gate, ok := g.byOrigin[origin]; ok {
		return gate, nil
	}

	policy := robots.AllowAll(g.delay)
	if g.respectRobots {
		policy = robots.Load(context.WithoutCancel(ctx), g.fetcher, origin, g.userAgent, g.delay)
		g.logger.Info("robots.txt loaded",
			zap.String("origin", origin),
			zap.Bool("found", policy.Found()),
			zap.Int("crawl_delay_ms", policy.CrawlDelayMs()),
			zap.Int("sitemaps", len(policy.Sitemaps())))
	}

	delay := g.delay
	if g.respectRobots && policy.CrawlDelay() > delay {
		delay = policy.CrawlDelay()
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	gate := &originGate{
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
	}
	if g.respectRobots {
		// The robots.txt request counts as the origin's last fetch.
		gate.limiter.Allow()
	}
	g.byOrigin[origin] = gate
	return gate, nil
}

// wait blocks until the origin's politeness window has passed. It fails
// only when ctx is cancelled, either while waiting or right after.
func (gate *originGate) wait(ctx context.Context) error {
	if err := gate.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("politeness wait: %w", err)
	}
	return ctx.Err()
}

// fetch waits out the politeness window for url's origin, then fetches it.
// An in-flight request is left to finish or time out rather than being
// cancelled with ctx.
func (g *gates) fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	gate, err := g.forURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := gate.wait(ctx); err != nil {
		return nil, err
	}
	return g.fetcher.Fetch(context.WithoutCancel(ctx), url)
}

// gatedFetcher routes sitemap discovery through the same politeness gates
// as page fetches.
type gatedFetcher struct {
	gates *gates
}

func (f gatedFetcher) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	return f.gates.fetch(ctx, url)
}
