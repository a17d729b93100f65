package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

var htmlFuncs = template.FuncMap{
	"categories": func() []models.Category { return models.Categories },
	"join":       strings.Join,
}

var htmlTemplate = template.Must(template.New("report").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Site Audit - {{.Crawl.RootURL}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 2rem;
            border-radius: 10px;
            margin-bottom: 2rem;
        }
        .card {
            background: white;
            border-radius: 10px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .score-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
            gap: 1rem;
            margin: 1rem 0;
        }
        .score-item {
            text-align: center;
            padding: 1rem;
            background: #f8f9fa;
            border-radius: 8px;
        }
        .score-value {
            font-size: 2rem;
            font-weight: bold;
            color: #667eea;
        }
        .score-label {
            color: #666;
            font-size: 0.9rem;
        }
        .grade {
            display: inline-block;
            padding: 0.5rem 1rem;
            background: #28a745;
            color: white;
            border-radius: 5px;
            font-weight: bold;
            font-size: 1.2rem;
        }
        .issue {
            border-left: 4px solid #ffc107;
            padding: 0.5rem 1rem;
            margin: 1rem 0;
        }
        .issue.critical { border-left-color: #dc3545; }
        .issue.warning { border-left-color: #ffc107; }
        .issue.info { border-left-color: #17a2b8; }
        .priority-badge {
            display: inline-block;
            padding: 0.25rem 0.75rem;
            border-radius: 4px;
            font-size: 0.85rem;
            font-weight: bold;
            margin-right: 0.5rem;
        }
        .priority-high { background: #dc3545; color: white; }
        .priority-medium { background: #ffc107; color: #333; }
        .priority-low { background: #28a745; color: white; }
        pre { background: #f8f9fa; padding: 0.75rem; white-space: pre-wrap; }
        table { border-collapse: collapse; width: 100%; }
        td, th { text-align: left; padding: 0.4rem; border-bottom: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Site Audit for {{.Crawl.RootURL}}</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006"}} &middot; crawl {{.Crawl.Status}}</p>
    </div>

    <div class="card">
        <h2>Summary</h2>
        <p>Overall Grade: <span class="grade">{{.Grade}}</span></p>
        <div class="score-grid">
            <div class="score-item">
                <div class="score-value">{{printf "%.1f" .Audit.Score}}</div>
                <div class="score-label">Score</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{.Crawl.CrawledPages}}</div>
                <div class="score-label">Pages crawled</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{.Audit.Summary.CriticalIssues}}</div>
                <div class="score-label">Critical</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{.Audit.Summary.WarningIssues}}</div>
                <div class="score-label">Warnings</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{.Audit.Summary.InfoIssues}}</div>
                <div class="score-label">Info</div>
            </div>
        </div>
        <table>
            <tr><th>Category</th><th>Issues</th></tr>
            {{range categories}}
            <tr><td>{{.}}</td><td>{{index $.Audit.Summary.CategoryBreakdown .}}</td></tr>
            {{end}}
        </table>
    </div>

    <div class="card">
        <h2>Issues</h2>
        {{range .Audit.Issues}}
        <div class="issue {{.Severity}}">
            <h4>{{.Title}}</h4>
            <p><small>{{.PageURL}} &middot; {{.Category}}</small></p>
            <p>{{.Description}}</p>
            <p><em>{{.Recommendation}}</em></p>
        </div>
        {{else}}
        <p>No issues found.</p>
        {{end}}
    </div>

    {{if .Fixes}}
    <div class="card">
        <h2>Fixes</h2>
        {{range .Fixes}}
        <div class="issue">
            <span class="priority-badge priority-{{.Priority}}">{{.Priority}} priority</span>
            {{if .Automated}}<span class="priority-badge">automated</span>{{end}}
            <h4>{{.Title}}</h4>
            <p><small>{{.IssueRef.PageURL}}</small></p>
            <p>{{.Description}}</p>
            <p><small>Impact: {{.Impact}}</small></p>
            {{if .SuggestedValue}}<pre>{{.SuggestedValue}}</pre>{{end}}
        </div>
        {{end}}
    </div>
    {{end}}

    {{if .LinkSuggestions}}
    <div class="card">
        <h2>Internal Link Suggestions</h2>
        <table>
            <tr><th>From</th><th>To</th><th>Anchor text</th><th>Relevance</th><th>Shared topics</th></tr>
            {{range .LinkSuggestions}}
            <tr><td>{{.SourcePage}}</td><td>{{.TargetPage}}</td><td>{{.AnchorText}}</td><td>{{printf "%.2f" .Relevance}}</td><td>{{join .SharedTopics ", "}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}

    {{if .ContentSuggestions}}
    <div class="card">
        <h2>Content Suggestions</h2>
        <ul>
            {{range .ContentSuggestions}}
            <li><span class="priority-badge priority-{{.Priority}}">{{.Priority}}</span>{{if .PageURL}}<strong>{{.PageURL}}</strong>: {{end}}{{.Suggestion}}</li>
            {{end}}
        </ul>
    </div>
    {{end}}

    {{if .TopPages}}
    <div class="card">
        <h2>Link Authority</h2>
        <table>
            <tr><th>Page</th><th>Authority</th><th>Inbound links</th></tr>
            {{range .TopPages}}
            <tr><td>{{.URL}}</td><td>{{printf "%.3f" .Authority}}</td><td>{{.InboundLinks}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}

    {{if .Crawl.Errors}}
    <div class="card">
        <h2>Crawl Errors</h2>
        <table>
            <tr><th>URL</th><th>Reason</th></tr>
            {{range .Crawl.Errors}}
            <tr><td>{{.URL}}</td><td>{{.Reason}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}
</body>
</html>
`))

func (r *Reporter) writeHTML(w io.Writer, report *models.Report) error {
	if err := htmlTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}
