package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/planproof/planproof/internal/model"
)

// PageSpec is one parsed entry of the --pages flag.
type PageSpec struct {
	Page int
	Type model.PageType
}

// pageTypeAliases maps user-facing names to page types. Keys are lowercase.
var pageTypeAliases = map[string]model.PageType{
	"floor_plan":         model.PageTypeFloorPlan,
	"plan":               model.PageTypeFloorPlan,
	"interior_elevation": model.PageTypeInteriorElevation,
	"elevation":          model.PageTypeInteriorElevation,
	"door_schedule":      model.PageTypeDoorSchedule,
	"schedule":           model.PageTypeDoorSchedule,
}

// ParsePagesSpec parses a page selection like "1=floor_plan,4=door_schedule".
// Page numbers are 1-based. Types must be reviewable; OTHER is not accepted
// because such pages are skipped, not reviewed.
func ParsePagesSpec(spec string) ([]PageSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty pages spec")
	}

	seen := make(map[int]struct{})
	var specs []PageSpec

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		pageStr, typeStr, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("invalid page entry %q (expected PAGE=TYPE)", part)
		}

		page, err := strconv.Atoi(strings.TrimSpace(pageStr))
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid page number %q (pages are 1-based)", pageStr)
		}
		if _, dup := seen[page]; dup {
			return nil, fmt.Errorf("page %d listed twice", page)
		}
		seen[page] = struct{}{}

		name := strings.ToLower(strings.TrimSpace(typeStr))
		pageType, ok := pageTypeAliases[name]
		if !ok {
			return nil, fmt.Errorf("unknown page type %q (supported: floor_plan, interior_elevation, door_schedule)", typeStr)
		}

		specs = append(specs, PageSpec{Page: page, Type: pageType})
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("empty pages spec")
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Page < specs[j].Page })
	return specs, nil
}
