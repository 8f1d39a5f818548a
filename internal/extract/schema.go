package extract

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchemaJSON is the contract the inference response must satisfy.
// Severity, confidence, and rule_code membership are checked semantically on
// top of this; the schema catches structural garbage early with a precise
// validation message for the corrective retry prompt.
const responseSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["findings"],
  "properties": {
    "sheet_label": {"type": "string"},
    "findings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["rule_code", "severity", "element_description", "rationale", "confidence"],
        "properties": {
          "rule_code": {"type": "string", "minLength": 1},
          "severity": {"type": "string", "enum": ["ISSUE", "NEEDS_VERIFICATION", "INFO"]},
          "element_description": {"type": "string", "minLength": 1},
          "location_hint": {"type": "string"},
          "rationale": {"type": "string", "minLength": 1},
          "confidence": {"type": "string", "enum": ["low", "medium", "high"]}
        }
      }
    }
  }
}`

// compileResponseSchema compiles the embedded response schema once per extractor
func compileResponseSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("findings.json", strings.NewReader(responseSchemaJSON)); err != nil {
		return nil, fmt.Errorf("load response schema: %w", err)
	}
	schema, err := compiler.Compile("findings.json")
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return schema, nil
}

// rawResponse mirrors responseSchemaJSON for decoding after validation
type rawResponse struct {
	SheetLabel string       `json:"sheet_label"`
	Findings   []rawFinding `json:"findings"`
}

type rawFinding struct {
	RuleCode           string `json:"rule_code"`
	Severity           string `json:"severity"`
	ElementDescription string `json:"element_description"`
	LocationHint       string `json:"location_hint"`
	Rationale          string `json:"rationale"`
	Confidence         string `json:"confidence"`
}
