package catalog

import (
	"errors"
	"testing"

	"github.com/planproof/planproof/internal/model"
)

func TestLoad_EmbeddedRulesets(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, ruleset := range model.Rulesets() {
		if _, err := c.Lookup(ruleset, model.RuleCodeUnverifiedPage); err != nil {
			t.Errorf("ruleset %s: expected reserved code to resolve, got %v", ruleset, err)
		}
	}
}

func TestApplicableRules_NonEmptyForAllPageTypes(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, ruleset := range model.Rulesets() {
		for _, pageType := range model.ReviewablePageTypes() {
			rules, err := c.ApplicableRules(ruleset, pageType)
			if err != nil {
				t.Errorf("ApplicableRules(%s, %s) error: %v", ruleset, pageType, err)
				continue
			}
			if len(rules) == 0 {
				t.Errorf("ApplicableRules(%s, %s) returned no rules", ruleset, pageType)
			}
			for _, rule := range rules {
				if !rule.AppliesTo(pageType) {
					t.Errorf("rule %s returned for %s but page_types=%v", rule.Code, pageType, rule.PageTypes)
				}
				if rule.Code == model.RuleCodeUnverifiedPage {
					t.Errorf("reserved code %s leaked into applicable rules for (%s, %s)", rule.Code, ruleset, pageType)
				}
			}
		}
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rule, err := c.Lookup(model.RulesetANSITypeA, "clr-302")
	if err != nil {
		t.Fatalf("expected lowercase code to resolve, got %v", err)
	}
	if rule.Code != "CLR-302" {
		t.Errorf("expected canonical code CLR-302, got %s", rule.Code)
	}
	if rule.Category != model.CategoryClearance {
		t.Errorf("expected category Clearance, got %s", rule.Category)
	}
	if rule.Thresholds["width_in"] != 30 {
		t.Errorf("expected width_in threshold 30, got %v", rule.Thresholds["width_in"])
	}
}

func TestLookup_NotFound(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	_, err = c.Lookup(model.RulesetFHA, "NOPE-000")
	if !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestParse_MissingPageTypeCoverageIsConfigurationError(t *testing.T) {
	// A ruleset whose only reviewable coverage is FLOOR_PLAN must fail fast.
	doc := []byte(`
ruleset: FHA
rules:
  - code: DOOR-R3
    title: Usable doors
    category: Door
    page_types: [FLOOR_PLAN]
  - code: UNVERIFIED_PAGE
    title: Page could not be reviewed
    category: Other
    page_types: [FLOOR_PLAN, INTERIOR_ELEVATION, DOOR_SCHEDULE]
`)

	_, err := Parse([][]byte{doc})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for missing coverage, got %v", err)
	}
}

func TestParse_MissingReservedCodeIsConfigurationError(t *testing.T) {
	doc := []byte(`
ruleset: FHA
rules:
  - code: DOOR-R3
    title: Usable doors
    category: Door
    page_types: [FLOOR_PLAN, INTERIOR_ELEVATION, DOOR_SCHEDULE]
`)

	_, err := Parse([][]byte{doc})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for missing reserved code, got %v", err)
	}
}

func TestParse_DuplicateRuleCode(t *testing.T) {
	doc := []byte(`
ruleset: FHA
rules:
  - code: DOOR-R3
    title: Usable doors
    category: Door
    page_types: [FLOOR_PLAN]
  - code: door-r3
    title: Duplicate under different casing
    category: Door
    page_types: [FLOOR_PLAN]
`)

	_, err := Parse([][]byte{doc})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for duplicate code, got %v", err)
	}
}
