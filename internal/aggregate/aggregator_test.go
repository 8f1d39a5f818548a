package aggregate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/planproof/planproof/internal/model"
)

func finding(ruleCode, category, description, sheet string, pageIndex int, severity model.Severity, confidence model.Confidence) model.Finding {
	return model.Finding{
		ID:                 model.FindingID(model.RulesetANSITypeA, ruleCode, description, pageIndex),
		Ruleset:            model.RulesetANSITypeA,
		RuleCode:           ruleCode,
		Category:           category,
		Severity:           severity,
		ElementDescription: description,
		LocationHint:       "somewhere",
		SheetLabel:         sheet,
		PageIndex:          pageIndex,
		Rationale:          "because",
		Confidence:         confidence,
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	_, err := Aggregate(nil)
	if !errors.Is(err, ErrBadInput) {
		t.Errorf("expected ErrBadInput for empty input, got %v", err)
	}
}

func TestAggregate_DuplicatePageIndex(t *testing.T) {
	_, err := Aggregate([]PageFindings{
		{PageIndex: 1},
		{PageIndex: 1},
	})
	if !errors.Is(err, ErrBadInput) {
		t.Errorf("expected ErrBadInput for duplicate page index, got %v", err)
	}
}

func TestAggregate_DedupAcrossPages(t *testing.T) {
	// Same rule, category, sheet; descriptions differ only in case,
	// punctuation, and whitespace, so they must collapse.
	pages := []PageFindings{
		{PageIndex: 1, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "Bathroom: clear floor space!", "A-101", 1, model.SeverityIssue, model.ConfidenceMedium),
		}},
		{PageIndex: 2, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "bathroom   clear floor space", "A-101", 2, model.SeverityIssue, model.ConfidenceMedium),
		}},
	}

	groups, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].OccurrenceCount != 2 {
		t.Errorf("expected occurrence count 2, got %d", groups[0].OccurrenceCount)
	}
	if !reflect.DeepEqual(groups[0].PageIndices, []int{1, 2}) {
		t.Errorf("expected pages [1 2], got %v", groups[0].PageIndices)
	}
}

func TestAggregate_DifferentSheetsDoNotCollapse(t *testing.T) {
	pages := []PageFindings{
		{PageIndex: 1, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "clear floor space", "A-101", 1, model.SeverityIssue, model.ConfidenceMedium),
		}},
		{PageIndex: 2, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "clear floor space", "A-102", 2, model.SeverityIssue, model.ConfidenceMedium),
		}},
	}

	groups, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("expected 2 groups for distinct sheets, got %d", len(groups))
	}
}

func TestAggregate_RepresentativeSelection(t *testing.T) {
	// Spec scenario: page 1 finds ISSUE, page 2 finds the same observation
	// as NEEDS_VERIFICATION. Equal confidence: earliest page wins, so the
	// representative keeps severity ISSUE.
	pages := []PageFindings{
		{PageIndex: 1, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "bathroom clear floor space", "A-101", 1, model.SeverityIssue, model.ConfidenceMedium),
		}},
		{PageIndex: 2, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "bathroom clear floor space", "A-101", 2, model.SeverityNeedsVerification, model.ConfidenceMedium),
		}},
	}

	groups, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Finding.Severity != model.SeverityIssue {
		t.Errorf("expected representative severity ISSUE, got %s", g.Finding.Severity)
	}
	if g.Finding.PageIndex != 1 {
		t.Errorf("expected earliest occurrence as representative, got page %d", g.Finding.PageIndex)
	}
	if g.OccurrenceCount != 2 || !reflect.DeepEqual(g.PageIndices, []int{1, 2}) {
		t.Errorf("expected count 2 over pages [1 2], got %d over %v", g.OccurrenceCount, g.PageIndices)
	}
}

func TestAggregate_HigherConfidenceWinsOverEarlierPage(t *testing.T) {
	pages := []PageFindings{
		{PageIndex: 1, Findings: []model.Finding{
			finding("DOOR-404", model.CategoryDoor, "unit entry door", "A-101", 1, model.SeverityNeedsVerification, model.ConfidenceLow),
		}},
		{PageIndex: 3, Findings: []model.Finding{
			finding("DOOR-404", model.CategoryDoor, "unit entry door", "A-101", 3, model.SeverityIssue, model.ConfidenceHigh),
		}},
	}

	groups, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if groups[0].Finding.PageIndex != 3 || groups[0].Finding.Confidence != model.ConfidenceHigh {
		t.Errorf("expected high-confidence page 3 representative, got page %d (%s)",
			groups[0].Finding.PageIndex, groups[0].Finding.Confidence)
	}
}

func TestAggregate_OrderingContract(t *testing.T) {
	pages := []PageFindings{
		{PageIndex: 0, Findings: []model.Finding{
			finding("SGN-703", model.CategorySignage, "entry signage", "A-101", 0, model.SeverityIssue, model.ConfidenceHigh),
			finding("CLR-302", model.CategoryClearance, "kitchen clearance", "A-102", 0, model.SeverityIssue, model.ConfidenceHigh),
			finding("CLR-302", model.CategoryClearance, "bath clearance", "A-101", 0, model.SeverityIssue, model.ConfidenceHigh),
		}},
		{PageIndex: 1, Findings: []model.Finding{
			finding("TRN-304", model.CategoryManeuveringSpace, "turning space", "A-101", 1, model.SeverityInfo, model.ConfidenceLow),
			finding("DOOR-404", model.CategoryDoor, "bedroom door", "A-101", 1, model.SeverityNeedsVerification, model.ConfidenceMedium),
			finding("DOOR-404", model.CategoryDoor, "entry door", "A-101", 1, model.SeverityIssue, model.ConfidenceMedium),
			finding("UNVERIFIED_PAGE", model.CategoryOther, "page 1", "A-101", 1, model.SeverityNeedsVerification, model.ConfidenceLow),
		}},
	}

	groups, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	type slot struct {
		category string
		severity model.Severity
		sheet    string
	}
	want := []slot{
		{model.CategoryDoor, model.SeverityIssue, "A-101"},
		{model.CategoryDoor, model.SeverityNeedsVerification, "A-101"},
		{model.CategoryClearance, model.SeverityIssue, "A-101"},
		{model.CategoryClearance, model.SeverityIssue, "A-102"},
		{model.CategoryManeuveringSpace, model.SeverityInfo, "A-101"},
		{model.CategorySignage, model.SeverityIssue, "A-101"},
		{model.CategoryOther, model.SeverityNeedsVerification, "A-101"},
	}

	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, w := range want {
		g := groups[i].Finding
		if g.Category != w.category || g.Severity != w.severity || g.SheetLabel != w.sheet {
			t.Errorf("position %d: expected (%s, %s, %s), got (%s, %s, %s)",
				i, w.category, w.severity, w.sheet, g.Category, g.Severity, g.SheetLabel)
		}
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	pages := []PageFindings{
		{PageIndex: 2, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "bath clearance", "A-101", 2, model.SeverityIssue, model.ConfidenceLow),
			finding("DOOR-404", model.CategoryDoor, "entry door", "A-101", 2, model.SeverityNeedsVerification, model.ConfidenceHigh),
		}},
		{PageIndex: 5, Findings: []model.Finding{
			finding("CLR-302", model.CategoryClearance, "bath clearance", "A-101", 5, model.SeverityIssue, model.ConfidenceHigh),
		}},
	}

	first, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("first Aggregate failed: %v", err)
	}
	second, err := Aggregate(pages)
	if err != nil {
		t.Fatalf("second Aggregate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("aggregation must be idempotent for identical input")
	}
}
