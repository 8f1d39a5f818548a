// Package report turns a finished review into its output forms. The engine
// only depends on the Formatter interface; JSON and Markdown are the built-in
// implementations and the terminal summary covers interactive runs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/planproof/planproof/internal/model"
)

// Formatter renders a review into one output representation.
type Formatter interface {
	Format(review *model.Review) ([]byte, error)
}

// JSONFormatter emits the review as indented JSON, the archival format.
type JSONFormatter struct{}

func (JSONFormatter) Format(review *model.Review) ([]byte, error) {
	data, err := json.MarshalIndent(review, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	return data, nil
}

// MarkdownFormatter emits a human-readable report.
type MarkdownFormatter struct {
	IncludeFooter bool
	Warnings      []string // quality warnings to surface in the report
}

func (m MarkdownFormatter) Format(review *model.Review) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Accessibility Review: %s\n\n", review.ProjectName)
	fmt.Fprintf(&b, "- **Ruleset:** %s\n", review.Ruleset)
	if review.ScaleNote != "" {
		fmt.Fprintf(&b, "- **Scale:** %s\n", review.ScaleNote)
	}
	if review.Reviewer != "" {
		fmt.Fprintf(&b, "- **Reviewer:** %s\n", review.Reviewer)
	}
	fmt.Fprintf(&b, "- **Reviewed:** %s\n", review.ReviewedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Pages reviewed:** %d\n", len(review.Pages))
	fmt.Fprintf(&b, "- **Findings:** %d\n\n", len(review.Findings))

	if len(m.Warnings) > 0 {
		b.WriteString("## Quality Warnings\n\n")
		for _, w := range m.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	if len(review.Findings) == 0 {
		b.WriteString("No findings.\n\n")
	}

	currentCategory := ""
	for _, group := range review.Findings {
		f := group.Finding
		if f.Category != currentCategory {
			fmt.Fprintf(&b, "### %s\n\n", f.Category)
			currentCategory = f.Category
		}

		fmt.Fprintf(&b, "**[%s] %s: %s**\n\n", f.Severity, f.RuleCode, f.ElementDescription)
		if f.SheetLabel != "" {
			fmt.Fprintf(&b, "- Sheet: %s\n", f.SheetLabel)
		}
		fmt.Fprintf(&b, "- Pages: %s (%d occurrence%s)\n",
			joinInts(group.PageIndices), group.OccurrenceCount, plural(group.OccurrenceCount))
		if f.LocationHint != "" {
			fmt.Fprintf(&b, "- Location: %s\n", f.LocationHint)
		}
		fmt.Fprintf(&b, "- Confidence: %s\n", f.Confidence)
		fmt.Fprintf(&b, "- Rationale: %s\n", f.Rationale)
		if group.ReviewerNote != "" {
			fmt.Fprintf(&b, "- Reviewer note: %s\n", group.ReviewerNote)
		}
		b.WriteString("\n")
	}

	if len(review.Errors) > 0 {
		b.WriteString("## Pages Not Reviewed\n\n")
		for _, pe := range review.Errors {
			fmt.Fprintf(&b, "- Page %d: %s\n", pe.PageIndex, pe.Message)
		}
		b.WriteString("\n")
	}

	if q := review.Quality; q != nil {
		b.WriteString("## Review Quality\n\n")
		fmt.Fprintf(&b, "- Total findings: %d\n", q.TotalFindings)
		fmt.Fprintf(&b, "- High confidence: %d\n", q.HighConfidenceFindings)
		fmt.Fprintf(&b, "- With measurements: %d\n", q.FindingsWithMeasurements)
		fmt.Fprintf(&b, "- With citations: %d\n", q.FindingsWithCitations)
		fmt.Fprintf(&b, "- Confidence score: %.0f%%\n", q.ConfidenceScore)
		fmt.Fprintf(&b, "- Completeness score: %.0f%%\n\n", q.CompletenessScore)
	}

	if m.IncludeFooter {
		fmt.Fprintf(&b, "---\n\n*Automated pre-check against %s. Findings require verification by a qualified reviewer; this is not a code compliance determination.*\n", review.Ruleset)
	}

	return []byte(b.String()), nil
}

// WriteFile formats the review and writes it to path.
func WriteFile(f Formatter, review *model.Review, path string) error {
	data, err := f.Format(review)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Summary prints a short per-severity digest, used after interactive runs.
func Summary(w io.Writer, review *model.Review) {
	counts := map[model.Severity]int{}
	for _, group := range review.Findings {
		counts[group.Finding.Severity]++
	}

	fmt.Fprintf(w, "Reviewed %d page(s) against %s\n", len(review.Pages), review.Ruleset)
	fmt.Fprintf(w, "  %d issue(s), %d to verify, %d informational\n",
		counts[model.SeverityIssue],
		counts[model.SeverityNeedsVerification],
		counts[model.SeverityInfo])
	if len(review.Errors) > 0 {
		fmt.Fprintf(w, "  %d page(s) could not be reviewed\n", len(review.Errors))
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
