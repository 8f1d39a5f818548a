// Package quality scores how complete and trustworthy a finished review
// looks. The metrics are diagnostic: they flag thin or low-confidence reviews
// for a human second pass and never alter the findings themselves.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/planproof/planproof/internal/model"
)

// expectedFindingsPerPage is a rough per-page-type baseline for how many
// observations a thorough review of accessibility sheets tends to produce.
var expectedFindingsPerPage = map[model.PageType]int{
	model.PageTypeFloorPlan:         5,
	model.PageTypeInteriorElevation: 3,
	model.PageTypeDoorSchedule:      3,
}

const defaultExpectedPerPage = 3

var (
	digitPattern    = regexp.MustCompile(`\d`)
	citationPattern = regexp.MustCompile(`(?i)\b(ANSI|FHA|A117|ADA|SECTION|§)\b`)
)

// Analyze computes metrics over an assembled review.
func Analyze(review *model.Review) model.QualityMetrics {
	var m model.QualityMetrics
	m.PagesReviewed = len(review.Pages)

	for _, group := range review.Findings {
		m.TotalFindings += group.OccurrenceCount

		f := group.Finding
		if f.Confidence == model.ConfidenceHigh {
			m.HighConfidenceFindings += group.OccurrenceCount
		}
		if hasMeasurement(f) {
			m.FindingsWithMeasurements += group.OccurrenceCount
		}
		if hasCitation(f) {
			m.FindingsWithCitations += group.OccurrenceCount
		}
	}

	if m.PagesReviewed > 0 {
		m.AvgFindingsPerPage = float64(m.TotalFindings) / float64(m.PagesReviewed)
	}
	if m.TotalFindings > 0 {
		m.ConfidenceScore = float64(m.HighConfidenceFindings) / float64(m.TotalFindings) * 100
	}

	expected := 0
	for _, page := range review.Pages {
		if n, ok := expectedFindingsPerPage[page.PageType]; ok {
			expected += n
		} else {
			expected += defaultExpectedPerPage
		}
	}
	if expected > 0 {
		score := float64(m.TotalFindings) / float64(expected) * 100
		if score > 100 {
			score = 100
		}
		m.CompletenessScore = score
	}

	return m
}

// Warnings lists conditions under which a reviewer should not trust the
// review as-is.
func Warnings(m model.QualityMetrics) []string {
	var warnings []string

	if m.AvgFindingsPerPage < 3 {
		warnings = append(warnings, fmt.Sprintf(
			"low finding count: %.1f findings per page, review may be incomplete", m.AvgFindingsPerPage))
	}

	if m.ConfidenceScore < 30 {
		warnings = append(warnings, fmt.Sprintf(
			"low confidence: only %.0f%% of findings are high confidence, consider manual verification", m.ConfidenceScore))
	}

	if float64(m.FindingsWithCitations) < float64(m.TotalFindings)*0.5 {
		warnings = append(warnings, fmt.Sprintf(
			"missing citations: only %d of %d findings reference a code section", m.FindingsWithCitations, m.TotalFindings))
	}

	if m.CompletenessScore < 60 {
		warnings = append(warnings, fmt.Sprintf(
			"review may be incomplete: completeness score is %.0f%%, consider re-running or a manual pass", m.CompletenessScore))
	}

	return warnings
}

// Suggestions proposes follow-ups that tend to raise review quality.
func Suggestions(m model.QualityMetrics) []string {
	var suggestions []string

	if float64(m.FindingsWithMeasurements) < float64(m.TotalFindings)*0.3 {
		suggestions = append(suggestions,
			"request specific measurements: concrete dimensions make findings actionable")
	}

	if m.ConfidenceScore < 50 {
		suggestions = append(suggestions,
			"render pages at higher DPI so details resolve with more confidence")
	}

	if float64(m.FindingsWithCitations) < float64(m.TotalFindings)*0.5 {
		suggestions = append(suggestions,
			"ask for code section references per finding to strengthen the review")
	}

	suggestions = append(suggestions,
		"run a second pass focused on medium and low confidence findings")

	return suggestions
}

func hasMeasurement(f model.Finding) bool {
	return digitPattern.MatchString(f.ElementDescription) || digitPattern.MatchString(f.Rationale)
}

func hasCitation(f model.Finding) bool {
	return citationPattern.MatchString(f.Rationale) ||
		strings.Contains(f.Rationale, f.RuleCode)
}
