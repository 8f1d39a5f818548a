package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/planproof/planproof/internal/catalog"
	"github.com/planproof/planproof/internal/model"
)

// ErrValidation marks an invalid page context construction request.
// Policy: OTHER pages are skipped upstream and never reach the builder,
// but the builder still defends against them.
var ErrValidation = errors.New("invalid page context")

// PageInput is the caller-supplied description of one page to review
type PageInput struct {
	PageIndex     int
	PageType      model.PageType
	ImageRef      string // opaque handle from the rendering collaborator
	ExtractedText string // optional, may be empty
	SheetLabel    string // optional, parsed from text or user input
}

// BuildContext assembles the immutable input bundle for one page.
// Pure construction, no I/O. The catalog's applicable rules are injected so
// the extraction prompt and schema are scoped to only relevant rules.
func BuildContext(cat *catalog.Catalog, ruleset model.Ruleset, in PageInput) (model.PageContext, error) {
	if in.PageIndex < 0 {
		return model.PageContext{}, fmt.Errorf("%w: negative page index %d", ErrValidation, in.PageIndex)
	}
	if in.PageType == model.PageTypeOther {
		return model.PageContext{}, fmt.Errorf("%w: page %d has type OTHER and cannot be reviewed", ErrValidation, in.PageIndex)
	}
	if _, ok := model.ParsePageType(string(in.PageType)); !ok {
		return model.PageContext{}, fmt.Errorf("%w: page %d has unknown type %q", ErrValidation, in.PageIndex, in.PageType)
	}
	if in.ImageRef == "" {
		return model.PageContext{}, fmt.Errorf("%w: page %d has no rendered image reference", ErrValidation, in.PageIndex)
	}

	rules, err := cat.ApplicableRules(ruleset, in.PageType)
	if err != nil {
		return model.PageContext{}, err
	}

	applied := make([]model.AppliedRule, 0, len(rules))
	for _, rule := range rules {
		applied = append(applied, rule.Applied())
	}

	return model.PageContext{
		PageIndex:     in.PageIndex,
		PageType:      in.PageType,
		Ruleset:       ruleset,
		ImageRef:      in.ImageRef,
		ExtractedText: strings.TrimSpace(in.ExtractedText),
		SheetLabel:    strings.TrimSpace(in.SheetLabel),
		Rules:         applied,
	}, nil
}
