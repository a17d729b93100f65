package models

// Severity represents the impact level of an audit issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Category groups issue types for UI rendering, independent of severity.
type Category string

const (
	CategoryMeta           Category = "meta"
	CategoryContent        Category = "content"
	CategoryTechnical      Category = "technical"
	CategoryStructuredData Category = "structured-data"
	CategoryPerformance    Category = "performance"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMeta,
	CategoryContent,
	CategoryTechnical,
	CategoryStructuredData,
	CategoryPerformance,
}

// IssueType is a member of the fixed issue taxonomy shared by the audit
// and autofix engines.
type IssueType string

const (
	IssueMissingMetaTitle         IssueType = "missing_meta_title"
	IssueDuplicateMetaTitle       IssueType = "duplicate_meta_title"
	IssueTitleTooLong             IssueType = "title_too_long"
	IssueMissingMetaDescription   IssueType = "missing_meta_description"
	IssueDuplicateMetaDescription IssueType = "duplicate_meta_description"
	IssueMissingH1                IssueType = "missing_h1"
	IssueMultipleH1               IssueType = "multiple_h1"
	IssueMissingAltText           IssueType = "missing_alt_text"
	IssueThinContent              IssueType = "thin_content"
	IssueStaleContent             IssueType = "stale_content"
	IssueMissingCanonical         IssueType = "missing_canonical"
	IssueNoindexPage              IssueType = "noindex_page"
	IssueBrokenLink               IssueType = "broken_link"
	IssueMissingSchema            IssueType = "missing_schema"
	IssueSlowPage                 IssueType = "slow_page"
)

// IssueInfo is the static metadata attached to an issue type.
type IssueInfo struct {
	Severity Severity
	Category Category
}

// issueInfo is the single source of truth for severity and category per
// issue type. Severity is never computed dynamically.
var issueInfo = map[IssueType]IssueInfo{
	IssueMissingMetaTitle:         {SeverityCritical, CategoryMeta},
	IssueDuplicateMetaTitle:       {SeverityWarning, CategoryMeta},
	IssueTitleTooLong:             {SeverityInfo, CategoryMeta},
	IssueMissingMetaDescription:   {SeverityWarning, CategoryMeta},
	IssueDuplicateMetaDescription: {SeverityWarning, CategoryMeta},
	IssueMissingH1:                {SeverityWarning, CategoryContent},
	IssueMultipleH1:               {SeverityWarning, CategoryContent},
	IssueMissingAltText:           {SeverityWarning, CategoryContent},
	IssueThinContent:              {SeverityWarning, CategoryContent},
	IssueStaleContent:             {SeverityInfo, CategoryContent},
	IssueMissingCanonical:         {SeverityInfo, CategoryTechnical},
	IssueNoindexPage:              {SeverityInfo, CategoryTechnical},
	IssueBrokenLink:               {SeverityWarning, CategoryTechnical},
	IssueMissingSchema:            {SeverityWarning, CategoryStructuredData},
	IssueSlowPage:                 {SeverityWarning, CategoryPerformance},
}

// Info returns the static severity and category for the issue type.
func (t IssueType) Info() (IssueInfo, bool) {
	info, ok := issueInfo[t]
	return info, ok
}

// Severity returns the static severity for the issue type.
func (t IssueType) Severity() Severity {
	return issueInfo[t].Severity
}

// Category returns the taxonomy grouping for the issue type.
func (t IssueType) Category() Category {
	return issueInfo[t].Category
}

// issueTypes lists the taxonomy in declaration order.
var issueTypes = []IssueType{
	IssueMissingMetaTitle,
	IssueDuplicateMetaTitle,
	IssueTitleTooLong,
	IssueMissingMetaDescription,
	IssueDuplicateMetaDescription,
	IssueMissingH1,
	IssueMultipleH1,
	IssueMissingAltText,
	IssueThinContent,
	IssueStaleContent,
	IssueMissingCanonical,
	IssueNoindexPage,
	IssueBrokenLink,
	IssueMissingSchema,
	IssueSlowPage,
}

// IssueTypes returns every member of the taxonomy in a fixed order.
func IssueTypes() []IssueType {
	return append([]IssueType(nil), issueTypes...)
}

// AuditIssue is a single finding on a single page.
type AuditIssue struct {
	Type           IssueType `json:"type" yaml:"type"`
	Severity       Severity  `json:"severity" yaml:"severity"`
	Category       Category  `json:"category" yaml:"category"`
	PageURL        string    `json:"page_url" yaml:"page_url"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description" yaml:"description"`
	Recommendation string    `json:"recommendation" yaml:"recommendation"`
}

// Ref returns the back-reference used by fix suggestions.
func (i AuditIssue) Ref() IssueRef {
	return IssueRef{PageURL: i.PageURL, Type: i.Type}
}

// AuditSummary aggregates issue counts.
type AuditSummary struct {
	TotalIssues       int              `json:"total_issues" yaml:"total_issues"`
	CriticalIssues    int              `json:"critical_issues" yaml:"critical_issues"`
	WarningIssues     int              `json:"warning_issues" yaml:"warning_issues"`
	InfoIssues        int              `json:"info_issues" yaml:"info_issues"`
	CategoryBreakdown map[Category]int `json:"category_breakdown" yaml:"category_breakdown"`
}

// AuditResult is the scored output of an audit run.
// Issues are sorted by severity desc, page URL asc, then type asc.
type AuditResult struct {
	RootURL string       `json:"root_url" yaml:"root_url"`
	Score   float64      `json:"score" yaml:"score"`
	Summary AuditSummary `json:"summary" yaml:"summary"`
	Issues  []AuditIssue `json:"issues" yaml:"issues"`
}
