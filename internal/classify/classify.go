// Package classify suggests a page type from extracted sheet text. The
// suggestion helps operators pre-label pages; the review pipeline still
// requires an explicit page type per page.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/planproof/planproof/internal/model"
)

// Tag names a candidate sheet category with its keyword score.
type Tag struct {
	Name       string           `json:"tag"`
	Score      int              `json:"score"`
	Confidence model.Confidence `json:"confidence"`
}

// Suggestion is the ranked outcome of classifying one page's text.
type Suggestion struct {
	Tags      []Tag          `json:"tags"`
	RawScores map[string]int `json:"raw_scores"`
}

const (
	TagFloorPlan          = "Floor Plan"
	TagInteriorElevations = "Interior Elevations"
	TagCeiling            = "RCP / Ceiling"
	TagDoorSchedule       = "Door Schedule"
	TagNotes              = "Notes / Code"
	TagDetails            = "Details / Sections"
)

// tagOrder fixes iteration order so ties resolve the same way every run.
var tagOrder = []string{
	TagFloorPlan,
	TagInteriorElevations,
	TagCeiling,
	TagDoorSchedule,
	TagNotes,
	TagDetails,
}

var keywords = map[string][]string{
	TagFloorPlan:          {"FLOOR PLAN", "UNIT PLAN", "PLAN", "DIMENSION", "ROOM", "DWG SCALE"},
	TagInteriorElevations: {"INTERIOR ELEVATION", "ELEVATION", "CABINET ELEV", "TILE ELEV", "A", "B", "C", "D"},
	TagCeiling:            {"RCP", "REFLECTED CEILING", "CEILING PLAN", "LIGHTING", "SMOKE", "SPRINKLER", "DIFFUSER"},
	TagDoorSchedule:       {"DOOR SCHEDULE", "DOOR", "MARK", "WIDTH", "HEIGHT", "FRAME", "HARDWARE", "HINGE", "SET"},
	TagNotes:              {"GENERAL NOTES", "ACCESSIBILITY", "ADA", "ANSI", "FHA", "CODE", "SPEC"},
	TagDetails:            {"DETAIL", "SECTION", "CALLOUT", "TYP.", "ENLARGED"},
}

var (
	columnGapPattern = regexp.MustCompile(`\S+\s{2,}\S+`)
	wordPatterns     = map[string]*regexp.Regexp{}
)

func init() {
	for _, words := range keywords {
		for _, kw := range words {
			if len(kw) == 1 {
				wordPatterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
}

// Suggest scores the page text against each sheet category. Tags scoring at
// least 3 are returned ranked by score; when nothing clears the bar, the
// single best-scoring tag is returned so every page gets a suggestion.
func Suggest(text string) Suggestion {
	combined := strings.ToUpper(text)

	scores := make(map[string]int, len(tagOrder))
	for _, tag := range tagOrder {
		total := 0
		for _, kw := range keywords[tag] {
			total += keywordScore(combined, kw)
		}
		scores[tag] = total
	}
	scores[TagDoorSchedule] += tableBonus(combined)

	var tags []Tag
	for _, tag := range tagOrder {
		if scores[tag] >= 3 {
			tags = append(tags, Tag{Name: tag, Score: scores[tag], Confidence: confidenceForScore(scores[tag])})
		}
	}

	if len(tags) == 0 {
		best := tagOrder[0]
		for _, tag := range tagOrder[1:] {
			if scores[tag] > scores[best] {
				best = tag
			}
		}
		tags = []Tag{{Name: best, Score: scores[best], Confidence: confidenceForScore(scores[best])}}
	}

	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Score > tags[j].Score })

	return Suggestion{Tags: tags, RawScores: scores}
}

// PageTypeFor maps a suggestion tag to the pipeline's page type. Categories
// the review pipeline does not handle map to OTHER.
func PageTypeFor(tag string) model.PageType {
	switch tag {
	case TagFloorPlan:
		return model.PageTypeFloorPlan
	case TagInteriorElevations:
		return model.PageTypeInteriorElevation
	case TagDoorSchedule:
		return model.PageTypeDoorSchedule
	default:
		return model.PageTypeOther
	}
}

// keywordScore weighs phrases above bare words: a multi-word hit is a strong
// signal, a single letter only counts as a standalone token.
func keywordScore(text, keyword string) int {
	if strings.Contains(keyword, " ") {
		if strings.Contains(text, keyword) {
			return 3
		}
		return 0
	}
	if len(keyword) == 1 {
		if wordPatterns[keyword].MatchString(text) {
			return 1
		}
		return 0
	}
	if strings.Contains(text, keyword) {
		return 1
	}
	return 0
}

// tableBonus detects schedule-style tabular text: many lines with column gaps
// or multiple schedule header tokens.
func tableBonus(text string) int {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return 0
	}

	spacedLines := 0
	for _, line := range lines {
		if columnGapPattern.MatchString(line) {
			spacedLines++
		}
	}

	headerHits := 0
	for _, token := range []string{"WIDTH", "HEIGHT", "TYPE", "MARK"} {
		if strings.Contains(text, token) {
			headerHits++
		}
	}

	minSpaced := len(lines) / 10
	if minSpaced < 3 {
		minSpaced = 3
	}
	if spacedLines >= minSpaced || headerHits >= 2 {
		return 5
	}
	return 0
}

func confidenceForScore(score int) model.Confidence {
	switch {
	case score >= 8:
		return model.ConfidenceHigh
	case score >= 4:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
