package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planproof/planproof/internal/classify"
	"github.com/planproof/planproof/internal/model"
	"github.com/planproof/planproof/internal/render"
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <text-dir>",
	Short: "Suggest page types from extracted sheet text",
	Long: `Classify scans a directory of sidecar text files (page-N.txt) and
suggests a page type per page, with a confidence label. The suggestions
help build the --pages selection for the review command; they are never
applied automatically.

Example:
  planproof classify extracted/`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	textDir := args[0]

	pages, err := render.SidecarPages(textDir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no sidecar text files (page-N.txt) found in %s", textDir)
	}

	for _, page := range pages {
		text, err := render.SidecarText(textDir, page)
		if err != nil {
			return err
		}

		suggestion := classify.Suggest(text)
		top := suggestion.Tags[0]
		pageType := classify.PageTypeFor(top.Name)

		fmt.Printf("page %d: %s (%s confidence, score %d)", page, top.Name, top.Confidence, top.Score)
		if pageType != model.PageTypeOther {
			fmt.Printf(" -> %d=%s", page, flagName(pageType))
		} else {
			fmt.Printf(" -> not reviewable")
		}
		fmt.Println()

		if verbose {
			for _, tag := range suggestion.Tags[1:] {
				fmt.Printf("        also: %s (score %d)\n", tag.Name, tag.Score)
			}
		}
	}

	return nil
}

// flagName renders a page type the way the --pages flag expects it.
func flagName(pt model.PageType) string {
	switch pt {
	case model.PageTypeFloorPlan:
		return "floor_plan"
	case model.PageTypeInteriorElevation:
		return "interior_elevation"
	case model.PageTypeDoorSchedule:
		return "door_schedule"
	default:
		return "other"
	}
}
