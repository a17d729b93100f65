// Package audit scores a crawl against a fixed rule set. It performs no I/O
// and is deterministic: auditing the same CrawlResult twice yields the same
// score and the same issues in the same order.
package audit

import (
	"sort"

	"github.com/amosWeiskopf/siteaudit/internal/models"
)

// MaxScore is the score of a site with no issues.
const MaxScore = 100.0

// weights is the score penalty per issue of each severity.
var weights = map[models.Severity]float64{
	models.SeverityCritical: 5,
	models.SeverityWarning:  2,
	models.SeverityInfo:     0.5,
}

// Weight returns the score penalty of one issue with severity s.
func Weight(s models.Severity) float64 {
	return weights[s]
}

// Audit evaluates every page of result against the rule set and returns
// the scored, sorted issues. A nil result audits as an empty site.
func Audit(result *models.CrawlResult) *models.AuditResult {
	if result == nil {
		result = &models.CrawlResult{}
	}

	site := newSiteIndex(result)
	issues := []models.AuditIssue{}
	for i := range result.Pages {
		issues = append(issues, auditPage(&result.Pages[i], site)...)
	}
	SortIssues(issues)

	return &models.AuditResult{
		RootURL: result.RootURL,
		Score:   Score(issues),
		Summary: Summarize(issues),
		Issues:  issues,
	}
}

// auditPage runs the rule table once over a page.
func auditPage(page *models.CrawledPage, site *siteIndex) []models.AuditIssue {
	var issues []models.AuditIssue
	for _, r := range rules {
		description, ok := r.check(page, site)
		if !ok {
			continue
		}
		info, _ := r.issueType.Info()
		text := issueText[r.issueType]
		issues = append(issues, models.AuditIssue{
			Type:           r.issueType,
			Severity:       info.Severity,
			Category:       info.Category,
			PageURL:        page.URL,
			Title:          text.title,
			Description:    description,
			Recommendation: text.recommendation,
		})
	}
	return issues
}

// SortIssues orders issues by severity (most severe first), then page URL,
// then issue type. (page, type) is unique, so the order is total.
func SortIssues(issues []models.AuditIssue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.PageURL != b.PageURL {
			return a.PageURL < b.PageURL
		}
		return a.Type < b.Type
	})
}

// Score is MaxScore minus the summed severity weights, clamped to
// [0, MaxScore] once at the end.
func Score(issues []models.AuditIssue) float64 {
	penalty := 0.0
	for _, issue := range issues {
		penalty += Weight(issue.Severity)
	}
	score := MaxScore - penalty
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	}
	return score
}

// Summarize counts issues per severity and per category. Every category is
// present in the breakdown, with zero when it has no issues.
func Summarize(issues []models.AuditIssue) models.AuditSummary {
	summary := models.AuditSummary{
		TotalIssues:       len(issues),
		CategoryBreakdown: make(map[models.Category]int, len(models.Categories)),
	}
	for _, c := range models.Categories {
		summary.CategoryBreakdown[c] = 0
	}
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityCritical:
			summary.CriticalIssues++
		case models.SeverityWarning:
			summary.WarningIssues++
		case models.SeverityInfo:
			summary.InfoIssues++
		}
		summary.CategoryBreakdown[issue.Category]++
	}
	return summary
}

// Grade maps a score to a letter grade for reports.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
