package catalog

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planproof/planproof/internal/model"
)

//go:embed rules/*.yaml
var rulesFS embed.FS

// ErrRuleNotFound is returned by Lookup when a rule code does not resolve
// in the requested ruleset.
var ErrRuleNotFound = errors.New("rule not found")

// ErrConfiguration marks a catalog authoring defect (e.g. a ruleset with no
// rules for a reviewable page type). Fatal, surfaced immediately, not retried.
var ErrConfiguration = errors.New("catalog configuration error")

// RuleDefinition holds one accessibility requirement
type RuleDefinition struct {
	Code       string             `yaml:"code"`
	Title      string             `yaml:"title"`
	Category   string             `yaml:"category"`
	PageTypes  []model.PageType   `yaml:"page_types"`
	Thresholds map[string]float64 `yaml:"thresholds,omitempty"` // parameter name -> value, inches
	Citation   string             `yaml:"citation,omitempty"`
}

// AppliesTo reports whether the rule applies to the given page type
func (r RuleDefinition) AppliesTo(pageType model.PageType) bool {
	for _, pt := range r.PageTypes {
		if pt == pageType {
			return true
		}
	}
	return false
}

// Applied converts the definition to the context projection carried in a PageContext
func (r RuleDefinition) Applied() model.AppliedRule {
	return model.AppliedRule{
		Code:       r.Code,
		Title:      r.Title,
		Category:   r.Category,
		Thresholds: r.Thresholds,
		Citation:   r.Citation,
	}
}

// rulesetFile is the YAML document layout of one embedded ruleset table
type rulesetFile struct {
	Ruleset model.Ruleset    `yaml:"ruleset"`
	Rules   []RuleDefinition `yaml:"rules"`
}

// Catalog is the static, versioned table of accessibility requirements.
// Loaded once at process start, read-only for the process lifetime.
// Injected explicitly into every component, never ambient global state.
type Catalog struct {
	rules map[model.Ruleset][]RuleDefinition
	index map[model.Ruleset]map[string]RuleDefinition
}

// Load reads the embedded ruleset tables and validates them.
// Fails fast on authoring defects.
func Load() (*Catalog, error) {
	entries, err := rulesFS.ReadDir("rules")
	if err != nil {
		return nil, fmt.Errorf("read embedded rules: %w", err)
	}

	var docs [][]byte
	for _, entry := range entries {
		data, err := rulesFS.ReadFile("rules/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read ruleset %s: %w", entry.Name(), err)
		}
		docs = append(docs, data)
	}

	return Parse(docs)
}

// Parse builds a catalog from raw YAML ruleset documents.
// Exposed so tests can exercise authoring-defect handling with fixtures.
func Parse(docs [][]byte) (*Catalog, error) {
	c := &Catalog{
		rules: make(map[model.Ruleset][]RuleDefinition),
		index: make(map[model.Ruleset]map[string]RuleDefinition),
	}

	for _, doc := range docs {
		var file rulesetFile
		if err := yaml.Unmarshal(doc, &file); err != nil {
			return nil, fmt.Errorf("parse ruleset document: %w", err)
		}
		if _, ok := model.ParseRuleset(string(file.Ruleset)); !ok {
			return nil, fmt.Errorf("%w: unknown ruleset %q", ErrConfiguration, file.Ruleset)
		}
		if _, dup := c.rules[file.Ruleset]; dup {
			return nil, fmt.Errorf("%w: duplicate ruleset document %s", ErrConfiguration, file.Ruleset)
		}

		idx := make(map[string]RuleDefinition, len(file.Rules))
		for _, rule := range file.Rules {
			code := CanonicalCode(rule.Code)
			if code == "" {
				return nil, fmt.Errorf("%w: ruleset %s has a rule with empty code", ErrConfiguration, file.Ruleset)
			}
			if _, dup := idx[code]; dup {
				return nil, fmt.Errorf("%w: ruleset %s has duplicate rule code %s", ErrConfiguration, file.Ruleset, code)
			}
			rule.Code = code
			idx[code] = rule
			c.rules[file.Ruleset] = append(c.rules[file.Ruleset], rule)
		}
		c.index[file.Ruleset] = idx
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate enforces catalog invariants: every ruleset covers every reviewable
// page type with at least one rule, and carries the reserved fallback code.
func (c *Catalog) validate() error {
	for _, ruleset := range model.Rulesets() {
		idx, ok := c.index[ruleset]
		if !ok {
			return fmt.Errorf("%w: missing ruleset %s", ErrConfiguration, ruleset)
		}
		if _, ok := idx[model.RuleCodeUnverifiedPage]; !ok {
			return fmt.Errorf("%w: ruleset %s missing reserved code %s", ErrConfiguration, ruleset, model.RuleCodeUnverifiedPage)
		}
		for _, pageType := range model.ReviewablePageTypes() {
			if _, err := c.ApplicableRules(ruleset, pageType); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup resolves a rule code within a ruleset. Codes are case-insensitive.
func (c *Catalog) Lookup(ruleset model.Ruleset, code string) (RuleDefinition, error) {
	idx, ok := c.index[ruleset]
	if !ok {
		return RuleDefinition{}, fmt.Errorf("%w: unknown ruleset %s", ErrRuleNotFound, ruleset)
	}
	rule, ok := idx[CanonicalCode(code)]
	if !ok {
		return RuleDefinition{}, fmt.Errorf("%w: %s in ruleset %s", ErrRuleNotFound, code, ruleset)
	}
	return rule, nil
}

// ApplicableRules returns the ordered rule subset for (ruleset, pageType).
// The reserved UNVERIFIED_PAGE code is excluded: it is a degraded-path
// marker, never offered to the extraction prompt. An empty result for a
// reviewable page type is a configuration error, not a runtime condition.
func (c *Catalog) ApplicableRules(ruleset model.Ruleset, pageType model.PageType) ([]RuleDefinition, error) {
	all, ok := c.rules[ruleset]
	if !ok {
		return nil, fmt.Errorf("%w: unknown ruleset %s", ErrConfiguration, ruleset)
	}

	var applicable []RuleDefinition
	for _, rule := range all {
		if rule.Code == model.RuleCodeUnverifiedPage {
			continue
		}
		if rule.AppliesTo(pageType) {
			applicable = append(applicable, rule)
		}
	}

	if len(applicable) == 0 {
		return nil, fmt.Errorf("%w: ruleset %s has no rules for page type %s", ErrConfiguration, ruleset, pageType)
	}
	return applicable, nil
}

// CanonicalCode normalizes a rule code for lookup and comparison
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
