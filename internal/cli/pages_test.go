package cli

import (
	"testing"

	"github.com/planproof/planproof/internal/model"
)

func TestParsePagesSpec(t *testing.T) {
	specs, err := ParsePagesSpec("4=door_schedule, 1=floor_plan,2=elevation")
	if err != nil {
		t.Fatalf("ParsePagesSpec failed: %v", err)
	}

	want := []PageSpec{
		{Page: 1, Type: model.PageTypeFloorPlan},
		{Page: 2, Type: model.PageTypeInteriorElevation},
		{Page: 4, Type: model.PageTypeDoorSchedule},
	}
	if len(specs) != len(want) {
		t.Fatalf("expected %d specs, got %d", len(want), len(specs))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("spec %d: expected %+v, got %+v", i, want[i], specs[i])
		}
	}
}

func TestParsePagesSpec_Errors(t *testing.T) {
	cases := []struct {
		name string
		spec string
	}{
		{"empty", ""},
		{"only commas", ",,"},
		{"missing type", "1"},
		{"bad page number", "x=floor_plan"},
		{"zero page", "0=floor_plan"},
		{"unknown type", "1=site_plan"},
		{"other not reviewable", "1=other"},
		{"duplicate page", "1=floor_plan,1=door_schedule"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePagesSpec(tc.spec); err == nil {
				t.Errorf("expected error for %q", tc.spec)
			}
		})
	}
}
