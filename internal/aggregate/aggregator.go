package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/planproof/planproof/internal/model"
)

// ErrBadInput marks a caller-side defect in the aggregation input
// (duplicate page index or empty input). Fatal to the aggregation call.
var ErrBadInput = errors.New("invalid aggregation input")

// PageFindings pairs one reviewed page with its extracted findings
type PageFindings struct {
	PageIndex int
	Findings  []model.Finding
}

// similarityKey identifies near-identical findings across pages.
// Baseline policy is exact match on normalized fields; fuzzier matching
// would need an explicit, tested threshold.
type similarityKey struct {
	RuleCode    string
	Category    string
	Description string // normalized
	SheetLabel  string
}

// Aggregate merges findings from all reviewed pages of a submission,
// deduplicates near-identical findings, and orders the result for
// presentation. Deterministic and idempotent: identical input always yields
// an identical ordered sequence.
//
// Output order is a contract the report layer depends on:
// category priority, then severity, then sheet label, then rule code.
func Aggregate(pages []PageFindings) ([]model.GroupedFinding, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrBadInput)
	}

	seen := make(map[int]struct{}, len(pages))
	for _, page := range pages {
		if _, dup := seen[page.PageIndex]; dup {
			return nil, fmt.Errorf("%w: duplicate page index %d", ErrBadInput, page.PageIndex)
		}
		seen[page.PageIndex] = struct{}{}
	}

	groups := make(map[similarityKey]*model.GroupedFinding)
	var order []similarityKey // first-seen order, stable pre-sort baseline

	for _, page := range pages {
		for _, f := range page.Findings {
			key := similarityKey{
				RuleCode:    f.RuleCode,
				Category:    f.Category,
				Description: model.NormalizeDescription(f.ElementDescription),
				SheetLabel:  f.SheetLabel,
			}

			group, ok := groups[key]
			if !ok {
				groups[key] = &model.GroupedFinding{
					Finding:         f,
					PageIndices:     []int{f.PageIndex},
					OccurrenceCount: 1,
				}
				order = append(order, key)
				continue
			}

			group.OccurrenceCount++
			group.PageIndices = appendPageIndex(group.PageIndices, f.PageIndex)
			if moreRepresentative(f, group.Finding) {
				group.Finding = f
			}
		}
	}

	result := make([]model.GroupedFinding, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.Ints(group.PageIndices)
		result = append(result, *group)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Finding, result[j].Finding
		if pa, pb := model.CategoryPriority(a.Category), model.CategoryPriority(b.Category); pa != pb {
			return pa < pb
		}
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra < rb
		}
		if a.SheetLabel != b.SheetLabel {
			return a.SheetLabel < b.SheetLabel
		}
		return a.RuleCode < b.RuleCode
	})

	return result, nil
}

// moreRepresentative reports whether candidate should replace current as the
// group representative: highest confidence wins, earliest page breaks ties.
func moreRepresentative(candidate, current model.Finding) bool {
	if candidate.Confidence.Rank() != current.Confidence.Rank() {
		return candidate.Confidence.Rank() > current.Confidence.Rank()
	}
	return candidate.PageIndex < current.PageIndex
}

// appendPageIndex adds an index to a sorted-on-output set, skipping duplicates
func appendPageIndex(indices []int, idx int) []int {
	for _, existing := range indices {
		if existing == idx {
			return indices
		}
	}
	return append(indices, idx)
}
