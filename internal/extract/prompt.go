package extract

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/planproof/planproof/internal/model"
)

// maxExtractedTextChars bounds schedule text injected into the prompt
const maxExtractedTextChars = 4000

const systemInstructions = `You are an accessibility plan reviewer for residential unit plans.
You review one rendered sheet at a time against the rule subset provided.
Flag likely issues when uncertain and assign confidence levels.
Do not invent measurements: if a required dimension is not legible on the sheet, report the finding with severity NEEDS_VERIFICATION.
Only use rule codes from the provided list.
Return STRICT JSON matching this shape, with no markdown and no commentary:
{"sheet_label": "A-101", "findings": [{"rule_code": "...", "severity": "ISSUE|NEEDS_VERIFICATION|INFO", "element_description": "...", "location_hint": "...", "rationale": "...", "confidence": "low|medium|high"}]}`

// correctiveInstruction is appended when a previous response failed validation
const correctiveTemplate = `

YOUR PREVIOUS RESPONSE WAS REJECTED: %s
Return ONLY valid JSON matching the required shape. No markdown fences, no prose, rule codes only from the provided list.`

// buildPrompt assembles the page-scoped user content. The rule list bounds
// the output space: the model can only cite rules that apply to this page.
func buildPrompt(pc model.PageContext, projectName, scaleNote string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\nRuleset: %s\nScale: %s\n", projectName, pc.Ruleset, scaleNote)
	fmt.Fprintf(&b, "PAGE %d (%s)", pc.PageIndex, pc.PageType)
	if pc.SheetLabel != "" {
		fmt.Fprintf(&b, " (sheet %s)", pc.SheetLabel)
	}
	b.WriteString("\n\nAPPLICABLE RULES:\n")

	for _, rule := range pc.Rules {
		fmt.Fprintf(&b, "- %s (%s): %s", rule.Code, rule.Category, rule.Title)
		if len(rule.Thresholds) > 0 {
			b.WriteString(" [")
			b.WriteString(formatThresholds(rule.Thresholds))
			b.WriteString("]")
		}
		if rule.Citation != "" {
			fmt.Fprintf(&b, ": %s", rule.Citation)
		}
		b.WriteString("\n")
	}

	if pc.ExtractedText != "" {
		text := truncateRunes(pc.ExtractedText, maxExtractedTextChars)
		b.WriteString("\nEXTRACTED SHEET TEXT:\n")
		b.WriteString(text)
		b.WriteString("\n")
	} else {
		b.WriteString("\nNo extracted text is available for this page; review the rendered sheet only.\n")
	}

	return b.String()
}

// truncateRunes bounds s to max bytes without splitting a rune
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// formatThresholds renders threshold parameters in stable order
func formatThresholds(thresholds map[string]float64) string {
	keys := make([]string, 0, len(thresholds))
	for k := range thresholds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, thresholds[k]))
	}
	return strings.Join(parts, ", ")
}
