package models

// Priority ranks remediation work.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// PriorityFor maps a severity to its fixed remediation priority.
func PriorityFor(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityHigh
	case SeverityWarning:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IssueRef identifies an AuditIssue by its (page, type) key, which is
// unique within an AuditResult.
type IssueRef struct {
	PageURL string    `json:"page_url" yaml:"page_url"`
	Type    IssueType `json:"type" yaml:"type"`
}

// FixSuggestion is a remediation proposal for one audit issue.
type FixSuggestion struct {
	IssueRef       IssueRef `json:"issue_ref" yaml:"issue_ref"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Impact         string   `json:"impact" yaml:"impact"`
	Priority       Priority `json:"priority" yaml:"priority"`
	Automated      bool     `json:"automated" yaml:"automated"`
	SuggestedValue string   `json:"suggested_value,omitempty" yaml:"suggested_value,omitempty"`
}

// InternalLinkSuggestion proposes a directed link between two crawled pages.
// It is never applied; publishing the link is the caller's job.
type InternalLinkSuggestion struct {
	SourcePage   string   `json:"source_page" yaml:"source_page"`
	TargetPage   string   `json:"target_page" yaml:"target_page"`
	AnchorText   string   `json:"anchor_text" yaml:"anchor_text"`
	Relevance    float64  `json:"relevance" yaml:"relevance"`
	SharedTopics []string `json:"shared_topics" yaml:"shared_topics"`
}

// ContentSuggestionType names a site-level content recommendation.
type ContentSuggestionType string

const (
	ContentThinPages      ContentSuggestionType = "thin_pages"
	ContentNoFAQPage      ContentSuggestionType = "no_faq_page"
	ContentMetaCoverage   ContentSuggestionType = "meta_description_coverage"
	ContentRefreshStale   ContentSuggestionType = "refresh_stale_content"
	ContentOrphanPage     ContentSuggestionType = "orphan_page"
	ContentAddSubheadings ContentSuggestionType = "add_subheadings"
)

// ContentSuggestion is a content recommendation derived from aggregate
// page statistics. PageURL is empty for site-wide suggestions.
type ContentSuggestion struct {
	PageURL    string                `json:"page_url,omitempty" yaml:"page_url,omitempty"`
	Type       ContentSuggestionType `json:"type" yaml:"type"`
	Priority   Priority              `json:"priority" yaml:"priority"`
	Suggestion string                `json:"suggestion" yaml:"suggestion"`
}
