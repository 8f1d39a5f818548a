// Package annotate applies reviewer decisions to a finished review:
// dismissing findings, overriding severities, and attaching notes. The
// automated review stays untouched; annotation always produces a new copy.
package annotate

import (
	"github.com/planproof/planproof/internal/model"
)

// Annotations collects one reviewer's decisions, keyed by finding ID.
type Annotations struct {
	Dismissed         []string                  `json:"dismissed,omitempty"`
	SeverityOverrides map[string]model.Severity `json:"severity_overrides,omitempty"`
	Notes             map[string]string         `json:"notes,omitempty"`
}

// Apply returns a copy of the review with the annotations applied. Dismissed
// findings are removed, severity overrides replace the automated severity
// when valid, and notes are attached. Unknown finding IDs are ignored.
func Apply(review *model.Review, ann Annotations) *model.Review {
	out := *review

	dismissed := make(map[string]struct{}, len(ann.Dismissed))
	for _, id := range ann.Dismissed {
		dismissed[id] = struct{}{}
	}

	out.Findings = make([]model.GroupedFinding, 0, len(review.Findings))
	for _, group := range review.Findings {
		id := group.Finding.ID
		if _, drop := dismissed[id]; drop {
			continue
		}

		kept := group
		kept.PageIndices = append([]int(nil), group.PageIndices...)

		if override, ok := ann.SeverityOverrides[id]; ok && override.Valid() {
			kept.Finding.Severity = override
		}
		if note, ok := ann.Notes[id]; ok && note != "" {
			kept.ReviewerNote = note
		}

		out.Findings = append(out.Findings, kept)
	}

	return &out
}
