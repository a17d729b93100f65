// Package reporter assembles a combined site report from a crawl and renders
// it as JSON, YAML, HTML or Markdown.
package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amosWeiskopf/siteaudit/internal/models"
	"github.com/amosWeiskopf/siteaudit/pkg/audit"
	"github.com/amosWeiskopf/siteaudit/pkg/autofix"
)

// Format is a report output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Formats lists the supported output formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatHTML, FormatMarkdown}
}

// ParseFormat resolves a format name, accepting the "yml" and "md" aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, name, FormatList())
}

// FormatList joins the supported format names for help and error text.
func FormatList() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// Reporter handles report generation in various formats
type Reporter struct {
	now func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock sets the clock used to stamp GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// New creates a new Reporter instance
func New(opts ...Option) *Reporter {
	r := &Reporter{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build audits a crawl and collects every remediation proposal into one
// report. Content age is measured against the crawl start.
func (r *Reporter) Build(crawl *models.CrawlResult) *models.Report {
	if crawl == nil {
		crawl = &models.CrawlResult{}
	}
	auditResult := audit.Audit(crawl)

	return &models.Report{
		GeneratedAt:        r.now().UTC(),
		Crawl:              models.SummarizeCrawl(crawl),
		Grade:              audit.Grade(auditResult.Score),
		Audit:              *auditResult,
		Fixes:              autofix.GenerateFixes(auditResult, crawl.Pages),
		LinkSuggestions:    autofix.GenerateInternalLinkSuggestions(crawl.Pages),
		ContentSuggestions: autofix.GenerateContentSuggestions(crawl.Pages, autofix.WithReferenceTime(crawl.StartedAt)),
		TopPages:           autofix.LinkAuthority(crawl.Pages, autofix.DefaultTopAuthority),
	}
}

// Write renders report to w in the given format.
func (r *Reporter) Write(w io.Writer, report *models.Report, format Format) error {
	switch format {
	case FormatJSON:
		return r.writeJSON(w, report)
	case FormatYAML:
		return r.writeYAML(w, report)
	case FormatHTML:
		return r.writeHTML(w, report)
	case FormatMarkdown:
		return r.writeMarkdown(w, report)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// GenerateReport renders report to a string in the given format.
func (r *Reporter) GenerateReport(report *models.Report, format Format) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, report, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Reporter) writeJSON(w io.Writer, report *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return nil
}

func (r *Reporter) writeYAML(w io.Writer, report *models.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
