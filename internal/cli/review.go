package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planproof/planproof/internal/model"
	"github.com/planproof/planproof/internal/pipeline"
	"github.com/planproof/planproof/internal/quality"
	"github.com/planproof/planproof/internal/render"
	"github.com/planproof/planproof/internal/report"
	"github.com/planproof/planproof/internal/review"
	"github.com/planproof/planproof/internal/store"
)

var (
	reviewRuleset  string
	reviewPages    string
	reviewProject  string
	reviewScale    string
	reviewReviewer string
	reviewTextDir  string
	reviewOutJSON  string
	reviewOutMD    string
	reviewWorkers  int
	reviewNoCache  bool
	reviewNoSave   bool
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <pdf>",
	Short: "Review exported PDF sheets against an accessibility ruleset",
	Long: `Review runs the selected pages of an exported PDF set through LLM
inference scoped to the chosen ruleset, validates the output, and
produces deduplicated findings.

Each selected page needs an explicit type; pages of other types are not
reviewable and should be left out of the selection.

Example:
  planproof review drawings.pdf --ruleset FHA --pages "1=floor_plan,4=door_schedule"
  planproof review drawings.pdf --ruleset ANSI_A117_TYPE_A --pages "2=floor_plan" --text-dir extracted/ --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewRuleset, "ruleset", "", "ruleset: FHA, ANSI_A117_TYPE_A, ANSI_A117_TYPE_B (required)")
	reviewCmd.Flags().StringVar(&reviewPages, "pages", "", `page selection, e.g. "1=floor_plan,4=door_schedule" (required)`)
	reviewCmd.Flags().StringVar(&reviewProject, "project", "", "project name for the report")
	reviewCmd.Flags().StringVar(&reviewScale, "scale", "", `drawing scale note, e.g. 1/4" = 1'-0"`)
	reviewCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "reviewer name recorded on the report")
	reviewCmd.Flags().StringVar(&reviewTextDir, "text-dir", "", "directory with sidecar extracted text (page-N.txt)")
	reviewCmd.Flags().StringVar(&reviewOutJSON, "json", "review.json", "output JSON path")
	reviewCmd.Flags().StringVar(&reviewOutMD, "md", "", "output Markdown path (optional)")
	reviewCmd.Flags().IntVar(&reviewWorkers, "workers", 0, "concurrent page reviews (default from config)")
	reviewCmd.Flags().BoolVar(&reviewNoCache, "no-cache", false, "disable the inference response cache")
	reviewCmd.Flags().BoolVar(&reviewNoSave, "no-save", false, "do not record the review in history")

	_ = reviewCmd.MarkFlagRequired("ruleset")
	_ = reviewCmd.MarkFlagRequired("pages")
}

func runReview(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	ruleset, ok := model.ParseRuleset(reviewRuleset)
	if !ok {
		return fmt.Errorf("unknown ruleset %q (supported: FHA, ANSI_A117_TYPE_A, ANSI_A117_TYPE_B)", reviewRuleset)
	}

	specs, err := ParsePagesSpec(reviewPages)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	if reviewNoCache {
		cfg.Cache.Enabled = false
	}
	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		cfg.Cache.Dir = defaultCacheDir()
	}
	if reviewWorkers > 0 {
		cfg.Concurrency.ExtractWorkers = reviewWorkers
	}
	if reviewTextDir != "" {
		cfg.Render.TextDir = reviewTextDir
	}

	doc, err := render.Open(pdfPath)
	if err != nil {
		return err
	}

	pageNumbers := make([]int, len(specs))
	for i, spec := range specs {
		pageNumbers[i] = spec.Page
	}
	if err := render.ValidateSelection(pageNumbers, doc.PageCount); err != nil {
		return fmt.Errorf("%s: %w", pdfPath, err)
	}

	workDir := cfg.Render.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "planproof-pages-")
		if err != nil {
			return fmt.Errorf("create work dir: %w", err)
		}
		defer os.RemoveAll(workDir)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Reviewing %d page(s) of %s against %s\n", len(specs), pdfPath, ruleset)
	}

	inputs := make([]review.PageInput, 0, len(specs))
	for _, spec := range specs {
		ref, err := doc.PageRef(workDir, spec.Page)
		if err != nil {
			return err
		}
		text, err := render.SidecarText(cfg.Render.TextDir, spec.Page)
		if err != nil {
			return err
		}
		inputs = append(inputs, review.PageInput{
			PageIndex:     spec.Page,
			PageType:      spec.Type,
			ImageRef:      ref,
			ExtractedText: text,
		})
	}

	session, err := pipeline.NewSession(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout(cfg, len(specs)))
	defer cancel()

	result, err := session.Run(ctx, pipeline.ReviewRequest{
		ProjectName: reviewProject,
		Ruleset:     ruleset,
		ScaleNote:   reviewScale,
		Reviewer:    reviewReviewer,
		Pages:       inputs,
	})
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	var warnings []string
	if result.Quality != nil {
		warnings = quality.Warnings(*result.Quality)
	}

	if reviewOutJSON != "" {
		if err := report.WriteFile(report.JSONFormatter{}, result, reviewOutJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", reviewOutJSON)
		}
	}
	if reviewOutMD != "" {
		md := report.MarkdownFormatter{IncludeFooter: cfg.Output.IncludeFooter, Warnings: warnings}
		if err := report.WriteFile(md, result, reviewOutMD); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote Markdown: %s\n", reviewOutMD)
		}
	}

	if !reviewNoSave {
		if err := saveToHistory(ctx, cfg, result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record review in history: %v\n", err)
		}
	}

	report.Summary(os.Stdout, result)
	for _, w := range warnings {
		fmt.Fprintf(os.Stdout, "  warning: %s\n", w)
	}
	if verbose && result.Quality != nil {
		for _, s := range quality.Suggestions(*result.Quality) {
			fmt.Fprintf(os.Stderr, "  suggestion: %s\n", s)
		}
	}
	return nil
}

func saveToHistory(ctx context.Context, cfg *model.Config, result *model.Review) error {
	path, err := historyPath(cfg)
	if err != nil {
		return err
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, result)
}
