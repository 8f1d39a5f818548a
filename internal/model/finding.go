package model

// Ruleset identifies the accessibility code variant selected for a review session
type Ruleset string

const (
	RulesetFHA       Ruleset = "FHA"              // Fair Housing Act design guidelines
	RulesetANSITypeA Ruleset = "ANSI_A117_TYPE_A" // ICC/ANSI A117.1 Type A units
	RulesetANSITypeB Ruleset = "ANSI_A117_TYPE_B" // ICC/ANSI A117.1 Type B units
)

// Rulesets lists all supported rulesets
func Rulesets() []Ruleset {
	return []Ruleset{RulesetFHA, RulesetANSITypeA, RulesetANSITypeB}
}

// ParseRuleset converts a string to a Ruleset
func ParseRuleset(s string) (Ruleset, bool) {
	for _, r := range Rulesets() {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// PageType categorizes an architectural sheet; it drives which rule subset applies
type PageType string

const (
	PageTypeFloorPlan         PageType = "FLOOR_PLAN"
	PageTypeInteriorElevation PageType = "INTERIOR_ELEVATION"
	PageTypeDoorSchedule      PageType = "DOOR_SCHEDULE"
	PageTypeOther             PageType = "OTHER" // skipped upstream, never reviewed
)

// ReviewablePageTypes lists the page types the engine accepts for review
func ReviewablePageTypes() []PageType {
	return []PageType{PageTypeFloorPlan, PageTypeInteriorElevation, PageTypeDoorSchedule}
}

// ParsePageType converts a string to a PageType
func ParsePageType(s string) (PageType, bool) {
	switch PageType(s) {
	case PageTypeFloorPlan, PageTypeInteriorElevation, PageTypeDoorSchedule, PageTypeOther:
		return PageType(s), true
	}
	return "", false
}

// Severity classifies how a finding should be treated by the reviewer
type Severity string

const (
	SeverityIssue             Severity = "ISSUE"              // likely non-compliance
	SeverityNeedsVerification Severity = "NEEDS_VERIFICATION" // could not be confirmed from page data
	SeverityInfo              Severity = "INFO"               // informational only
)

// severityRank orders severities for presentation (lower = more urgent)
var severityRank = map[Severity]int{
	SeverityIssue:             0,
	SeverityNeedsVerification: 1,
	SeverityInfo:              2,
}

// Rank returns the presentation priority of the severity (lower sorts first).
// Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Valid reports whether the severity is one of the allowed values
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Confidence indicates how the determination was made: explicit schedule text
// yields high confidence, inference from plan geometry yields lower
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// confidenceRank orders confidences (higher = more confident)
var confidenceRank = map[Confidence]int{
	ConfidenceLow:    0,
	ConfidenceMedium: 1,
	ConfidenceHigh:   2,
}

// Rank returns the confidence ordering value (higher wins)
func (c Confidence) Rank() int {
	return confidenceRank[c]
}

// Valid reports whether the confidence is one of the allowed values
func (c Confidence) Valid() bool {
	_, ok := confidenceRank[c]
	return ok
}

// Category names for findings. The aggregator sorts output by this fixed
// priority; unknown categories fall in with CategoryOther.
const (
	CategoryDoor             = "Door"
	CategoryClearance        = "Clearance"
	CategoryManeuveringSpace = "Maneuvering Space"
	CategoryReachRange       = "Reach Range"
	CategorySignage          = "Signage"
	CategoryOther            = "Other"
)

// CategoryPriority returns the fixed presentation order for a category.
// Matches how the rulesets are typically reviewed.
func CategoryPriority(category string) int {
	switch category {
	case CategoryDoor:
		return 0
	case CategoryClearance:
		return 1
	case CategoryManeuveringSpace:
		return 2
	case CategoryReachRange:
		return 3
	case CategorySignage:
		return 4
	default:
		return 5
	}
}

// RuleCodeUnverifiedPage is the reserved rule code carried by the synthetic
// finding emitted when a page could not be reviewed. It resolves in every
// ruleset's catalog but is never offered to the extraction prompt.
const RuleCodeUnverifiedPage = "UNVERIFIED_PAGE"

// Finding is one discrete, validated accessibility observation tied to a
// specific rule and page. Immutable once created; the aggregator merges
// findings into GroupedFindings without mutating them.
type Finding struct {
	ID                 string     `json:"id"`                      // stable hash of normalized fields
	Ruleset            Ruleset    `json:"ruleset"`                 //
	RuleCode           string     `json:"rule_code"`               // resolvable in the catalog for Ruleset
	Category           string     `json:"category"`                // e.g. "Clearance", "Door"
	Severity           Severity   `json:"severity"`                //
	ElementDescription string     `json:"element_description"`     // the element under review
	LocationHint       string     `json:"location_hint,omitempty"` // e.g. "Bathroom 101"
	SheetLabel         string     `json:"sheet_label,omitempty"`   // e.g. "A-101"
	PageIndex          int        `json:"page_index"`              // source page (0-based)
	Rationale          string     `json:"rationale"`               // citation/explanation
	Confidence         Confidence `json:"confidence"`              //
}

// GroupedFinding is the deduplicated, cross-page-merged presentation unit
// derived from one or more findings with the same similarity key.
type GroupedFinding struct {
	Finding         Finding  `json:"finding"`         // representative finding
	PageIndices     []int    `json:"page_indices"`    // sorted source pages
	OccurrenceCount int      `json:"occurrence_count"`
	ReviewerNote    string   `json:"reviewer_note,omitempty"` // set by annotations, never by the engine
}

// PageContext bundles the per-page inputs fed to the extraction step.
// Built once per page at review time, consumed exactly once.
type PageContext struct {
	PageIndex     int      `json:"page_index"`
	PageType      PageType `json:"page_type"`
	Ruleset       Ruleset  `json:"ruleset"`
	ImageRef      string   `json:"image_ref"`                // opaque handle owned by the rendering collaborator
	ExtractedText string   `json:"extracted_text,omitempty"` // may be empty (rendering-only review)
	SheetLabel    string   `json:"sheet_label,omitempty"`    // parsed from text or user input

	// Rules is the catalog subset applicable to (Ruleset, PageType),
	// injected at build time to scope the extraction prompt and schema.
	Rules []AppliedRule `json:"rules"`
}

// AppliedRule is the catalog projection carried inside a PageContext.
// Mirrors catalog.RuleDefinition without importing the catalog package.
type AppliedRule struct {
	Code       string             `json:"code"`
	Title      string             `json:"title"`
	Category   string             `json:"category"`
	Thresholds map[string]float64 `json:"thresholds,omitempty"`
	Citation   string             `json:"citation,omitempty"`
}
