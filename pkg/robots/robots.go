// Package robots answers robots.txt questions for a single origin: may a
// path be fetched, what crawl-delay applies, and which sitemaps are listed.
package robots

import (
	"context"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
)

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// Policy is the parsed robots.txt of one origin, resolved for one user agent.
// A missing, unreadable or non-2xx robots.txt yields an allow-all policy.
type Policy struct {
	group        *robotstxt.Group
	sitemaps     []string
	found        bool
	defaultDelay time.Duration
}

// Load fetches {origin}/robots.txt once and parses it. Fetch failures never
// surface as errors; they produce an allow-all policy.
func Load(ctx context.Context, f fetcher.Fetcher, origin, userAgent string, defaultDelay time.Duration) *Policy {
	resp, err := f.Fetch(ctx, strings.TrimRight(origin, "/")+robotsTxtPath)
	if err != nil || !resp.OK() {
		return AllowAll(defaultDelay)
	}
	return Parse(resp.Body, userAgent, defaultDelay)
}

// Parse builds a Policy from a robots.txt body.
func Parse(body []byte, userAgent string, defaultDelay time.Duration) *Policy {
	data, err := robotstxt.FromBytes(preferAllow(body))
	if err != nil {
		return AllowAll(defaultDelay)
	}
	return &Policy{
		group:        data.FindGroup(userAgent),
		sitemaps:     data.Sitemaps,
		found:        true,
		defaultDelay: defaultDelay,
	}
}

// AllowAll returns a fully permissive policy.
func AllowAll(defaultDelay time.Duration) *Policy {
	return &Policy{defaultDelay: defaultDelay}
}

// Found reports whether a robots.txt was fetched and parsed.
func (p *Policy) Found() bool {
	return p.found
}

// IsAllowed reports whether path may be fetched. The longest matching
// Allow/Disallow rule wins; equal-length matches favour Allow.
func (p *Policy) IsAllowed(path string) bool {
	if p.group == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return p.group.Test(path)
}

// CrawlDelay returns the Crawl-delay declared for the agent, or the default
// delay when the file declares none.
func (p *Policy) CrawlDelay() time.Duration {
	if p.group != nil && p.group.CrawlDelay > 0 {
		return p.group.CrawlDelay
	}
	return p.defaultDelay
}

// CrawlDelayMs is CrawlDelay in milliseconds.
func (p *Policy) CrawlDelayMs() int {
	return int(p.CrawlDelay() / time.Millisecond)
}

// Sitemaps returns the Sitemap: URLs listed in the file.
func (p *Policy) Sitemaps() []string {
	return append([]string(nil), p.sitemaps...)
}

// preferAllow moves Allow lines ahead of Disallow lines within each
// contiguous run of rules. The matcher keeps the first of several
// equal-length matches, so this makes ties resolve to Allow.
func preferAllow(body []byte) []byte {
	lines := strings.Split(strings.ReplaceAll(string(body), "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))

	var allows, disallows []string
	flush := func() {
		out = append(out, allows...)
		out = append(out, disallows...)
		allows, disallows = allows[:0], disallows[:0]
	}

	for _, line := range lines {
		switch ruleKey(line) {
		case "allow":
			allows = append(allows, line)
		case "disallow":
			disallows = append(disallows, line)
		default:
			flush()
			out = append(out, line)
		}
	}
	flush()

	return []byte(strings.Join(out, "\n"))
}

func ruleKey(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	key, _, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(key))
}
