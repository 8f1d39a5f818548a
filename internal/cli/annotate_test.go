package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/planproof/planproof/internal/annotate"
	"github.com/planproof/planproof/internal/model"
)

func writeReviewFixture(t *testing.T, dir string) (string, *model.Review) {
	t.Helper()

	review := &model.Review{
		ID:          "rev-1",
		ProjectName: "Maple Court",
		Ruleset:     model.RulesetANSITypeA,
		ReviewedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Findings: []model.GroupedFinding{
			{
				Finding: model.Finding{
					ID:                 "f-door",
					Ruleset:            model.RulesetANSITypeA,
					RuleCode:           "DOOR-404",
					Category:           model.CategoryDoor,
					Severity:           model.SeverityIssue,
					ElementDescription: "unit entry door",
					PageIndex:          1,
					Confidence:         model.ConfidenceHigh,
				},
				PageIndices:     []int{1},
				OccurrenceCount: 1,
			},
			{
				Finding: model.Finding{
					ID:                 "f-clearance",
					Ruleset:            model.RulesetANSITypeA,
					RuleCode:           "CLR-302",
					Category:           model.CategoryClearance,
					Severity:           model.SeverityNeedsVerification,
					ElementDescription: "bathroom clear floor space",
					PageIndex:          2,
					Confidence:         model.ConfidenceMedium,
				},
				PageIndices:     []int{2},
				OccurrenceCount: 1,
			},
		},
	}

	data, err := json.Marshal(review)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "review.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path, review
}

func TestResolveReview_FromFile(t *testing.T) {
	path, want := writeReviewFixture(t, t.TempDir())

	got, err := resolveReview(path)
	if err != nil {
		t.Fatalf("resolveReview failed: %v", err)
	}
	if got.ID != want.ID || len(got.Findings) != len(want.Findings) {
		t.Errorf("loaded review does not match fixture: id %q, %d findings", got.ID, len(got.Findings))
	}
}

func TestLoadReviewFile_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadReviewFile(path); err == nil {
		t.Error("expected error for malformed review file")
	}
}

func TestLoadAnnotations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decisions.json")
	content := `{
		"dismissed": ["f-door"],
		"severity_overrides": {"f-clearance": "INFO"},
		"notes": {"f-clearance": "verified against the enlarged plan"}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ann, err := loadAnnotations(path)
	if err != nil {
		t.Fatalf("loadAnnotations failed: %v", err)
	}
	if len(ann.Dismissed) != 1 || ann.Dismissed[0] != "f-door" {
		t.Errorf("unexpected dismissals: %v", ann.Dismissed)
	}
	if ann.SeverityOverrides["f-clearance"] != model.SeverityInfo {
		t.Errorf("unexpected override: %v", ann.SeverityOverrides)
	}
}

func TestLoadAnnotations_MissingFile(t *testing.T) {
	if _, err := loadAnnotations(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing annotations file")
	}
}

func TestAnnotateReviewFromFile(t *testing.T) {
	dir := t.TempDir()
	reviewPath, _ := writeReviewFixture(t, dir)

	annPath := filepath.Join(dir, "decisions.json")
	content := `{"dismissed": ["f-door"], "notes": {"f-clearance": "checked on site"}}`
	if err := os.WriteFile(annPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	review, err := resolveReview(reviewPath)
	if err != nil {
		t.Fatal(err)
	}
	ann, err := loadAnnotations(annPath)
	if err != nil {
		t.Fatal(err)
	}

	annotated := annotate.Apply(review, ann)
	if len(annotated.Findings) != 1 {
		t.Fatalf("expected 1 finding after dismissal, got %d", len(annotated.Findings))
	}
	if annotated.Findings[0].Finding.ID != "f-clearance" {
		t.Errorf("wrong finding survived: %s", annotated.Findings[0].Finding.ID)
	}
	if annotated.Findings[0].ReviewerNote != "checked on site" {
		t.Errorf("note not attached: %q", annotated.Findings[0].ReviewerNote)
	}
}
