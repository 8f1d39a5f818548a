package model

import "time"

// Review represents the complete result of one review session
type Review struct {
	ID          string    `json:"id"`           // session identifier (uuid)
	ProjectName string    `json:"project_name"` //
	Ruleset     Ruleset   `json:"ruleset"`      // selected once per session
	ScaleNote   string    `json:"scale_note,omitempty"`
	Reviewer    string    `json:"reviewer,omitempty"`
	ReviewedAt  time.Time `json:"reviewed_at"`

	Pages    []PageSummary    `json:"pages"`              // one per reviewed page
	Findings []GroupedFinding `json:"findings"`           // aggregator output, contract order
	Quality  *QualityMetrics  `json:"quality,omitempty"`  // post-aggregation metrics
	Errors   []PageError      `json:"errors,omitempty"`   // session-level page failures
}

// PageSummary records what was reviewed on one page
type PageSummary struct {
	PageIndex    int      `json:"page_index"`
	PageType     PageType `json:"page_type"`
	SheetLabel   string   `json:"sheet_label,omitempty"`
	HasText      bool     `json:"has_text"`      // whether extracted text was available
	FindingCount int      `json:"finding_count"` // findings produced before aggregation
}

// PageError records a page whose extraction failed at the session level
// (inference unavailable). Distinct from degraded NEEDS_VERIFICATION
// findings so the reviewer can tell "flag this yourself" from
// "system review failed".
type PageError struct {
	PageIndex int    `json:"page_index"`
	Message   string `json:"message"`
}

// QualityMetrics describes the completeness and confidence of a review.
// Diagnostic only; never feeds back into findings.
type QualityMetrics struct {
	TotalFindings            int     `json:"total_findings"`
	HighConfidenceFindings   int     `json:"high_confidence_findings"`
	FindingsWithMeasurements int     `json:"findings_with_measurements"`
	FindingsWithCitations    int     `json:"findings_with_citations"`
	PagesReviewed            int     `json:"pages_reviewed"`
	AvgFindingsPerPage       float64 `json:"avg_findings_per_page"`
	ConfidenceScore          float64 `json:"confidence_score"`   // 0-100
	CompletenessScore        float64 `json:"completeness_score"` // 0-100
}
