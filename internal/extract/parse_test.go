package extract

import "testing"

func TestParseStructuredJSON(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain object", `{"findings": []}`, false},
		{"fenced json", "```json\n{\"findings\": []}\n```", false},
		{"fence without language", "```\n{\"findings\": []}\n```", false},
		{"prose around object", `Here is the review: {"findings": []} and nothing else.`, false},
		{"empty", "", true},
		{"no json", "I could not review this page.", true},
		{"truncated object", `{"findings": [`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseStructuredJSON(tc.input)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %q", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tc.input, err)
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	got := stripCodeFences("```json\n{\"a\": 1}\n```")
	if got != `{"a": 1}` {
		t.Errorf("unexpected fence strip result: %q", got)
	}
	if stripCodeFences(`{"a": 1}`) != "" {
		t.Error("unfenced content should return empty")
	}
}

func TestExtractJSONCandidate(t *testing.T) {
	got := extractJSONCandidate(`The answer is [1, 2, 3], hope that helps.`)
	if got != "[1, 2, 3]" {
		t.Errorf("unexpected candidate: %q", got)
	}
	if extractJSONCandidate("nothing here") != "" {
		t.Error("expected empty candidate for plain prose")
	}
}
