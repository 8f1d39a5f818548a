package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/planproof/planproof/internal/catalog"
	"github.com/planproof/planproof/internal/llm"
	"github.com/planproof/planproof/internal/model"
)

// ResponseCache stores validated finding sets keyed by page content so a
// re-run does not re-spend inference. Optional; nil disables caching.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

// Options tunes the extractor. Zero values fall back to defaults.
type Options struct {
	ProjectName   string
	ScaleNote     string
	SchemaRetries int           // corrective retries after invalid output (default 2)
	PageTimeout   time.Duration // per-page inference ceiling (default 90s)
	Cache         ResponseCache
	CacheTTL      time.Duration
}

// Extractor turns one PageContext into a validated finding sequence.
// Reads only its own context and the read-only catalog, so concurrent
// per-page extraction needs no locking.
type Extractor struct {
	provider llm.Provider
	schema   *jsonschema.Schema
	opts     Options
}

// NewExtractor creates a finding extractor backed by the given provider
func NewExtractor(provider llm.Provider, opts Options) (*Extractor, error) {
	if provider == nil {
		return nil, fmt.Errorf("extractor requires an inference provider")
	}
	if opts.SchemaRetries <= 0 {
		opts.SchemaRetries = 2
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 90 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}

	schema, err := compileResponseSchema()
	if err != nil {
		return nil, err
	}

	return &Extractor{provider: provider, schema: schema, opts: opts}, nil
}

// Extract reviews one page and returns its findings.
//
// Invalid responses are retried with a corrective instruction up to the
// configured bound, then degraded to exactly one synthetic
// NEEDS_VERIFICATION finding: a page is never silently dropped. A per-page
// timeout takes the same degraded path. Provider unavailability is returned
// as an error wrapping llm.ErrUnavailable so the session can decide to skip
// the page or abort. Session cancellation aborts with no findings.
func (e *Extractor) Extract(ctx context.Context, pc model.PageContext) ([]model.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheKey := contextKey(pc)
	if e.opts.Cache != nil {
		if data, ok := e.opts.Cache.Get(cacheKey); ok {
			var cached []model.Finding
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	pageCtx, cancel := context.WithTimeout(ctx, e.opts.PageTimeout)
	defer cancel()

	prompt := buildPrompt(pc, e.opts.ProjectName, e.opts.ScaleNote)
	var lastIssue error

	for attempt := 0; attempt <= e.opts.SchemaRetries; attempt++ {
		req := llm.InferRequest{
			System:    systemInstructions,
			Prompt:    prompt,
			ImageRefs: []string{pc.ImageRef},
		}
		if attempt > 0 {
			req.Prompt = prompt + fmt.Sprintf(correctiveTemplate, lastIssue)
		}

		resp, err := e.provider.Infer(pageCtx, req)
		if err != nil {
			if ctx.Err() != nil {
				// Session cancelled or expired: abandon the page, no findings.
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// Per-page ceiling hit: same degraded path as exhausted
				// retries, never fatal for the session.
				return []model.Finding{e.synthetic(pc, fmt.Sprintf("inference timed out after %s", e.opts.PageTimeout))}, nil
			}
			return nil, fmt.Errorf("page %d: %w", pc.PageIndex, err)
		}

		findings, verr := e.decode(resp.Content, pc)
		if verr != nil {
			lastIssue = verr
			continue
		}

		if e.opts.Cache != nil {
			if data, err := json.Marshal(findings); err == nil {
				_ = e.opts.Cache.Set(cacheKey, data, e.opts.CacheTTL)
			}
		}
		return findings, nil
	}

	return []model.Finding{e.synthetic(pc, fmt.Sprintf("response failed validation after %d attempts: %v", e.opts.SchemaRetries+1, lastIssue))}, nil
}

// decode parses, schema-validates, and semantically validates one raw
// response, then normalizes the result. Returns a validation error suitable
// for the corrective retry prompt.
func (e *Extractor) decode(content string, pc model.PageContext) ([]model.Finding, error) {
	raw, err := parseStructuredJSON(content)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match schema: %v", err)
	}

	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	allowed := make(map[string]model.AppliedRule, len(pc.Rules))
	for _, rule := range pc.Rules {
		allowed[rule.Code] = rule
	}

	sheetLabel := pc.SheetLabel
	if sheetLabel == "" {
		sheetLabel = strings.TrimSpace(resp.SheetLabel)
	}

	findings := make([]model.Finding, 0, len(resp.Findings))
	for i, rf := range resp.Findings {
		code := catalog.CanonicalCode(rf.RuleCode)
		rule, ok := allowed[code]
		if !ok {
			return nil, fmt.Errorf("finding %d cites rule %q which is not applicable to this page", i, rf.RuleCode)
		}

		severity := model.Severity(strings.TrimSpace(rf.Severity))
		if !severity.Valid() {
			return nil, fmt.Errorf("finding %d has invalid severity %q", i, rf.Severity)
		}
		confidence := model.Confidence(strings.ToLower(strings.TrimSpace(rf.Confidence)))
		if !confidence.Valid() {
			return nil, fmt.Errorf("finding %d has invalid confidence %q", i, rf.Confidence)
		}

		description := strings.TrimSpace(rf.ElementDescription)
		if description == "" {
			return nil, fmt.Errorf("finding %d has empty element description", i)
		}

		f := model.Finding{
			ID:                 model.FindingID(pc.Ruleset, code, description, pc.PageIndex),
			Ruleset:            pc.Ruleset,
			RuleCode:           code,
			Category:           rule.Category, // catalog is authoritative for categories
			Severity:           severity,
			ElementDescription: description,
			LocationHint:       strings.TrimSpace(rf.LocationHint),
			SheetLabel:         sheetLabel,
			PageIndex:          pc.PageIndex,
			Rationale:          strings.TrimSpace(rf.Rationale),
			Confidence:         confidence,
		}

		findings = append(findings, applyPolicies(f, pc))
	}

	return findings, nil
}

// applyPolicies enforces the mandatory business rules on a validated finding:
//   - an undetermined location can never be a confirmed issue
//   - dimensional determinations from a door schedule without extracted text
//     are inherently unverifiable
func applyPolicies(f model.Finding, pc model.PageContext) model.Finding {
	if f.LocationHint == "" && f.Severity == model.SeverityIssue {
		f.Severity = model.SeverityNeedsVerification
	}
	if pc.PageType == model.PageTypeDoorSchedule && pc.ExtractedText == "" && f.Severity == model.SeverityIssue {
		f.Severity = model.SeverityNeedsVerification
		if f.Confidence == model.ConfidenceHigh {
			f.Confidence = model.ConfidenceMedium
		}
	}
	return f
}

// synthetic builds the single degraded finding for a page that could not be
// reviewed. Carries the reserved UNVERIFIED_PAGE code, which resolves in
// every ruleset's catalog.
func (e *Extractor) synthetic(pc model.PageContext, reason string) model.Finding {
	description := fmt.Sprintf("page %d (%s)", pc.PageIndex, pc.PageType)
	return model.Finding{
		ID:                 model.FindingID(pc.Ruleset, model.RuleCodeUnverifiedPage, description, pc.PageIndex),
		Ruleset:            pc.Ruleset,
		RuleCode:           model.RuleCodeUnverifiedPage,
		Category:           model.CategoryOther,
		Severity:           model.SeverityNeedsVerification,
		ElementDescription: description,
		SheetLabel:         pc.SheetLabel,
		PageIndex:          pc.PageIndex,
		Rationale:          "Automated extraction failed; review this page manually. " + reason,
		Confidence:         model.ConfidenceLow,
	}
}
