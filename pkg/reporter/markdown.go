package reporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// maxCell bounds free text in Markdown table cells.
const maxCell = 80

func (r *Reporter) writeMarkdown(w io.Writer, report *models.Report) error {
	md := markdown.NewMarkdown(w)

	writeMarkdownHeader(md, report)
	writeMarkdownSummary(md, report)
	writeMarkdownIssues(md, report)
	writeMarkdownFixes(md, report)
	writeMarkdownLinks(md, report)
	writeMarkdownContent(md, report)
	writeMarkdownAuthority(md, report)
	writeMarkdownErrors(md, report)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by siteaudit on %s*", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

func writeMarkdownHeader(md *markdown.Markdown, report *models.Report) {
	md.H1("Site Audit Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.Crawl.RootURL + "`"},
			{"Crawl Started", report.Crawl.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Crawl Status", string(report.Crawl.Status)},
			{"Pages Crawled", strconv.Itoa(report.Crawl.CrawledPages)},
			{"Pages Discovered", strconv.Itoa(report.Crawl.TotalPages)},
			{"Score", fmt.Sprintf("%.1f / 100", report.Audit.Score)},
			{"Grade", "**" + report.Grade + "**"},
		},
	})
	md.PlainText("")
}

func writeMarkdownSummary(md *markdown.Markdown, report *models.Report) {
	summary := report.Audit.Summary
	md.H2("Issue Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"Critical", strconv.Itoa(summary.CriticalIssues)},
			{"Warning", strconv.Itoa(summary.WarningIssues)},
			{"Info", strconv.Itoa(summary.InfoIssues)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalIssues) + "**"},
		},
	})
	md.PlainText("")

	if summary.TotalIssues > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Issues by Category"),
			piechart.WithShowData(true),
		)
		for _, c := range models.Categories {
			if n := summary.CategoryBreakdown[c]; n > 0 {
				chart.LabelAndIntValue(string(c), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case summary.CriticalIssues > 0:
		md.Cautionf("%d critical issue(s) keep pages out of search results or hide what they are about.", summary.CriticalIssues)
	case summary.WarningIssues > 0:
		md.Warningf("%d warning(s) should be addressed.", summary.WarningIssues)
	case summary.TotalIssues > 0:
		md.Note("Only informational issues found.")
	default:
		md.Tip("No issues found.")
	}
	md.PlainText("")
}

func writeMarkdownIssues(md *markdown.Markdown, report *models.Report) {
	md.H2("Issues")
	md.PlainText("")
	if len(report.Audit.Issues) == 0 {
		md.PlainText("No issues found.")
		md.PlainText("")
		return
	}

	sections := []struct {
		severity models.Severity
		header   string
	}{
		{models.SeverityCritical, "Critical"},
		{models.SeverityWarning, "Warning"},
		{models.SeverityInfo, "Info"},
	}
	for _, section := range sections {
		var rows [][]string
		for _, issue := range report.Audit.Issues {
			if issue.Severity != section.severity {
				continue
			}
			rows = append(rows, []string{
				issue.Title,
				"`" + issue.PageURL + "`",
				string(issue.Category),
				cell(issue.Description),
			})
		}
		if len(rows) == 0 {
			continue
		}
		md.H3(section.header)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Issue", "Page", "Category", "Details"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func writeMarkdownFixes(md *markdown.Markdown, report *models.Report) {
	if len(report.Fixes) == 0 {
		return
	}
	md.H2("Fixes")
	md.PlainText("")

	rows := make([][]string, len(report.Fixes))
	for i, fix := range report.Fixes {
		automated := "no"
		if fix.Automated {
			automated = "yes"
		}
		rows[i] = []string{
			string(fix.Priority),
			fix.Title,
			"`" + fix.IssueRef.PageURL + "`",
			automated,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Priority", "Fix", "Page", "Automated"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, fix := range report.Fixes {
		if fix.SuggestedValue != "" {
			md.Details(fix.Title+" ("+fix.IssueRef.PageURL+")", fix.SuggestedValue)
		}
	}
	md.PlainText("")
}

func writeMarkdownLinks(md *markdown.Markdown, report *models.Report) {
	if len(report.LinkSuggestions) == 0 {
		return
	}
	md.H2("Internal Link Suggestions")
	md.PlainText("")

	rows := make([][]string, len(report.LinkSuggestions))
	for i, s := range report.LinkSuggestions {
		rows[i] = []string{
			"`" + s.SourcePage + "`",
			"`" + s.TargetPage + "`",
			cell(s.AnchorText),
			strconv.FormatFloat(s.Relevance, 'f', 2, 64),
			cell(strings.Join(s.SharedTopics, ", ")),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"From", "To", "Anchor Text", "Relevance", "Shared Topics"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeMarkdownContent(md *markdown.Markdown, report *models.Report) {
	if len(report.ContentSuggestions) == 0 {
		return
	}
	md.H2("Content Suggestions")
	md.PlainText("")

	items := make([]string, len(report.ContentSuggestions))
	for i, s := range report.ContentSuggestions {
		item := fmt.Sprintf("**%s** %s", s.Priority, s.Suggestion)
		if s.PageURL != "" {
			item = fmt.Sprintf("**%s** `%s`: %s", s.Priority, s.PageURL, s.Suggestion)
		}
		items[i] = item
	}
	md.BulletList(items...)
	md.PlainText("")
}

func writeMarkdownAuthority(md *markdown.Markdown, report *models.Report) {
	if len(report.TopPages) == 0 {
		return
	}
	md.H2("Link Authority")
	md.PlainText("")

	rows := make([][]string, len(report.TopPages))
	for i, p := range report.TopPages {
		rows[i] = []string{
			"`" + p.URL + "`",
			strconv.FormatFloat(p.Authority, 'f', 3, 64),
			strconv.Itoa(p.InboundLinks),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Authority", "Inbound Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeMarkdownErrors(md *markdown.Markdown, report *models.Report) {
	if len(report.Crawl.Errors) == 0 {
		return
	}
	md.H2("Crawl Errors")
	md.PlainText("")

	rows := make([][]string, len(report.Crawl.Errors))
	for i, e := range report.Crawl.Errors {
		rows[i] = []string{"`" + e.URL + "`", cell(e.Reason)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// cell makes free text safe for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if runes := []rune(s); len(runes) > maxCell {
		s = string(runes[:maxCell-3]) + "..."
	}
	return s
}
