package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/planproof/planproof/internal/catalog"
	"github.com/planproof/planproof/internal/llm"
	"github.com/planproof/planproof/internal/model"
)

// scriptedProvider returns canned responses in order, then repeats the last one
type scriptedProvider struct {
	responses []string
	err       error
	delay     time.Duration
	calls     int
	prompts   []string
}

func (p *scriptedProvider) Name() string                       { return "scripted" }
func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return true }

func (p *scriptedProvider) Infer(ctx context.Context, req llm.InferRequest) (*llm.InferResponse, error) {
	p.calls++
	p.prompts = append(p.prompts, req.Prompt)

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}

	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return &llm.InferResponse{Content: p.responses[idx], Model: "scripted"}, nil
}

func floorPlanContext(t *testing.T) model.PageContext {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	rules, err := cat.ApplicableRules(model.RulesetANSITypeA, model.PageTypeFloorPlan)
	if err != nil {
		t.Fatalf("applicable rules: %v", err)
	}
	applied := make([]model.AppliedRule, len(rules))
	for i, r := range rules {
		applied[i] = r.Applied()
	}
	return model.PageContext{
		PageIndex: 1,
		PageType:  model.PageTypeFloorPlan,
		Ruleset:   model.RulesetANSITypeA,
		ImageRef:  "pages/page-1.pdf",
		Rules:     applied,
	}
}

func doorScheduleContext(t *testing.T, extractedText string) model.PageContext {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	rules, err := cat.ApplicableRules(model.RulesetANSITypeA, model.PageTypeDoorSchedule)
	if err != nil {
		t.Fatalf("applicable rules: %v", err)
	}
	applied := make([]model.AppliedRule, len(rules))
	for i, r := range rules {
		applied[i] = r.Applied()
	}
	return model.PageContext{
		PageIndex:     4,
		PageType:      model.PageTypeDoorSchedule,
		Ruleset:       model.RulesetANSITypeA,
		ImageRef:      "pages/page-4.pdf",
		ExtractedText: extractedText,
		Rules:         applied,
	}
}

const validResponse = `{
  "sheet_label": "A-101",
  "findings": [
    {
      "rule_code": "clr-302",
      "severity": "ISSUE",
      "element_description": "  Bathroom clear floor space  ",
      "location_hint": "Bathroom 101",
      "rationale": "Plan shows 28 inch clearance at lavatory; 30x48 required.",
      "confidence": "High"
    }
  ]
}`

func TestExtract_ValidResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validResponse}}
	e, err := NewExtractor(provider, Options{ProjectName: "Maple Court", ScaleNote: `1/8" = 1'-0"`})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	findings, err := e.Extract(context.Background(), floorPlanContext(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}

	f := findings[0]
	if f.RuleCode != "CLR-302" {
		t.Errorf("expected canonical rule code CLR-302, got %s", f.RuleCode)
	}
	if f.Category != model.CategoryClearance {
		t.Errorf("expected catalog category Clearance, got %s", f.Category)
	}
	if f.ElementDescription != "Bathroom clear floor space" {
		t.Errorf("expected trimmed description, got %q", f.ElementDescription)
	}
	if f.SheetLabel != "A-101" {
		t.Errorf("expected sheet label from response, got %q", f.SheetLabel)
	}
	if f.Confidence != model.ConfidenceHigh {
		t.Errorf("expected confidence high, got %s", f.Confidence)
	}
	if f.ID == "" || f.ID != model.FindingID(f.Ruleset, f.RuleCode, f.ElementDescription, f.PageIndex) {
		t.Errorf("expected stable hash ID, got %q", f.ID)
	}
}

func TestExtract_FencedResponseRecovered(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"```json\n" + validResponse + "\n```"}}
	e, _ := NewExtractor(provider, Options{})

	findings, err := e.Extract(context.Background(), floorPlanContext(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(findings) != 1 || provider.calls != 1 {
		t.Errorf("expected fence recovery without a retry, got %d findings after %d calls", len(findings), provider.calls)
	}
}

func TestExtract_RetryWithCorrectiveInstruction(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json at all", validResponse}}
	e, _ := NewExtractor(provider, Options{})

	findings, err := e.Extract(context.Background(), floorPlanContext(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected exactly 2 inference calls, got %d", provider.calls)
	}
	if len(findings) != 1 || findings[0].RuleCode != "CLR-302" {
		t.Fatalf("expected the retried valid finding, got %+v", findings)
	}
	if !strings.Contains(provider.prompts[1], "PREVIOUS RESPONSE WAS REJECTED") {
		t.Error("expected corrective instruction in the retry prompt")
	}
	if strings.Contains(provider.prompts[0], "PREVIOUS RESPONSE WAS REJECTED") {
		t.Error("first attempt must not carry the corrective instruction")
	}
}

func TestExtract_DegradesToSyntheticFinding(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"garbage"}}
	e, _ := NewExtractor(provider, Options{SchemaRetries: 2})

	findings, err := e.Extract(context.Background(), floorPlanContext(t))
	if err != nil {
		t.Fatalf("degraded path must not error, got %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("expected initial attempt plus 2 retries, got %d calls", provider.calls)
	}
	if len(findings) != 1 {
		t.Fatalf("expected exactly one synthetic finding, got %d", len(findings))
	}
	f := findings[0]
	if f.RuleCode != model.RuleCodeUnverifiedPage {
		t.Errorf("expected UNVERIFIED_PAGE, got %s", f.RuleCode)
	}
	if f.Severity != model.SeverityNeedsVerification {
		t.Errorf("expected NEEDS_VERIFICATION, got %s", f.Severity)
	}
	if !strings.Contains(f.Rationale, "failed") {
		t.Errorf("expected rationale to note extraction failure, got %q", f.Rationale)
	}
}

func TestExtract_InapplicableRuleCodeRejected(t *testing.T) {
	// SGN-703 exists in the catalog but does not apply to door schedules.
	resp := `{"findings": [{"rule_code": "SGN-703", "severity": "ISSUE", "element_description": "entry sign", "location_hint": "Entry", "rationale": "x", "confidence": "low"}]}`
	provider := &scriptedProvider{responses: []string{resp}}
	e, _ := NewExtractor(provider, Options{SchemaRetries: 1})

	findings, err := e.Extract(context.Background(), doorScheduleContext(t, "DOOR SCHEDULE"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if findings[0].RuleCode != model.RuleCodeUnverifiedPage {
		t.Errorf("expected degrade after repeated out-of-scope rule code, got %s", findings[0].RuleCode)
	}
}

func TestExtract_DoorScheduleWithoutTextDowngraded(t *testing.T) {
	resp := `{"findings": [
      {"rule_code": "DOOR-404", "severity": "ISSUE", "element_description": "unit entry door", "location_hint": "Unit entry", "rationale": "Schedule lists 2'-6\" door.", "confidence": "high"},
      {"rule_code": "HDW-404", "severity": "INFO", "element_description": "lever hardware", "location_hint": "All doors", "rationale": "Noted.", "confidence": "low"}
    ]}`
	provider := &scriptedProvider{responses: []string{resp}}
	e, _ := NewExtractor(provider, Options{})

	findings, err := e.Extract(context.Background(), doorScheduleContext(t, ""))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, f := range findings {
		if f.Severity == model.SeverityIssue {
			t.Errorf("door schedule without text must never yield ISSUE, got %s for %s", f.Severity, f.RuleCode)
		}
	}
	// INFO stays INFO: the downgrade caps at NEEDS_VERIFICATION, it does not raise.
	if findings[1].Severity != model.SeverityInfo {
		t.Errorf("INFO finding must not be raised, got %s", findings[1].Severity)
	}
}

func TestExtract_MissingLocationNeverIssue(t *testing.T) {
	resp := `{"findings": [{"rule_code": "CLR-302", "severity": "ISSUE", "element_description": "clear floor space", "rationale": "x", "confidence": "medium"}]}`
	provider := &scriptedProvider{responses: []string{resp}}
	e, _ := NewExtractor(provider, Options{})

	findings, err := e.Extract(context.Background(), floorPlanContext(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if findings[0].Severity != model.SeverityNeedsVerification {
		t.Errorf("finding without location must be NEEDS_VERIFICATION, got %s", findings[0].Severity)
	}
}

func TestExtract_UnavailableSurfacedAsError(t *testing.T) {
	provider := &scriptedProvider{err: fmt.Errorf("%w: connection refused", llm.ErrUnavailable)}
	e, _ := NewExtractor(provider, Options{})

	_, err := e.Extract(context.Background(), floorPlanContext(t))
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("expected llm.ErrUnavailable, got %v", err)
	}
}

func TestExtract_PageTimeoutDegrades(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validResponse}, delay: 200 * time.Millisecond}
	e, _ := NewExtractor(provider, Options{PageTimeout: 20 * time.Millisecond})

	findings, err := e.Extract(context.Background(), doorScheduleContext(t, ""))
	if err != nil {
		t.Fatalf("timeout must degrade, not error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected exactly one synthetic finding, got %d", len(findings))
	}
	if findings[0].RuleCode != model.RuleCodeUnverifiedPage || findings[0].Severity != model.SeverityNeedsVerification {
		t.Errorf("expected UNVERIFIED_PAGE / NEEDS_VERIFICATION, got %s / %s", findings[0].RuleCode, findings[0].Severity)
	}
}

func TestExtract_SessionCancellationAbandonsPage(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validResponse}, delay: time.Second}
	e, _ := NewExtractor(provider, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	findings, err := e.Extract(ctx, floorPlanContext(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if findings != nil {
		t.Errorf("abandoned page must emit no findings, got %d", len(findings))
	}
}

// fakeCache is a map-backed ResponseCache
type fakeCache struct {
	entries map[string][]byte
	sets    int
}

func (c *fakeCache) Get(key string) ([]byte, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value []byte, _ time.Duration) error {
	c.entries[key] = value
	c.sets++
	return nil
}

func TestExtract_CacheHitSkipsInference(t *testing.T) {
	cache := &fakeCache{entries: make(map[string][]byte)}
	provider := &scriptedProvider{responses: []string{validResponse}}
	e, _ := NewExtractor(provider, Options{Cache: cache})

	pc := floorPlanContext(t)
	first, err := e.Extract(context.Background(), pc)
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	second, err := e.Extract(context.Background(), pc)
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("expected a single inference call, got %d", provider.calls)
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache write, got %d", cache.sets)
	}
	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Error("cached findings must match the original extraction")
	}
}
