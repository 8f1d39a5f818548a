package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planproof/planproof/internal/annotate"
	"github.com/planproof/planproof/internal/model"
	"github.com/planproof/planproof/internal/report"
)

var (
	annotateFile    string
	annotateOutJSON string
	annotateOutMD   string
	annotateSave    bool
)

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate <review-id|review.json>",
	Short: "Apply reviewer decisions to a finished review",
	Long: `Annotate loads a review from history (by ID) or from a JSON report
file and applies reviewer decisions from an annotations file: dismissals,
severity overrides, and notes, keyed by finding ID.

The annotations file is JSON:
  {"dismissed": ["<finding-id>"],
   "severity_overrides": {"<finding-id>": "INFO"},
   "notes": {"<finding-id>": "verified on site"}}

With --save the annotated review replaces the stored one.

Example:
  planproof annotate 2f6c... --file decisions.json --md annotated.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVar(&annotateFile, "file", "", "annotations JSON file (required)")
	annotateCmd.Flags().StringVar(&annotateOutJSON, "json", "", "write the annotated review as JSON")
	annotateCmd.Flags().StringVar(&annotateOutMD, "md", "", "write the annotated review as Markdown")
	annotateCmd.Flags().BoolVar(&annotateSave, "save", false, "replace the stored review with the annotated one")

	_ = annotateCmd.MarkFlagRequired("file")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	result, err := resolveReview(args[0])
	if err != nil {
		return err
	}

	ann, err := loadAnnotations(annotateFile)
	if err != nil {
		return err
	}

	annotated := annotate.Apply(result, ann)

	cfg := loadConfig()
	if annotateOutJSON != "" {
		if err := report.WriteFile(report.JSONFormatter{}, annotated, annotateOutJSON); err != nil {
			return err
		}
	}
	if annotateOutMD != "" {
		md := report.MarkdownFormatter{IncludeFooter: cfg.Output.IncludeFooter}
		if err := report.WriteFile(md, annotated, annotateOutMD); err != nil {
			return err
		}
	}
	if annotateSave {
		if err := saveToHistory(context.Background(), cfg, annotated); err != nil {
			return err
		}
	}

	report.Summary(os.Stdout, annotated)
	return nil
}

// resolveReview loads the review named by ref: a JSON report file when one
// exists at that path, otherwise a history ID.
func resolveReview(ref string) (*model.Review, error) {
	if _, err := os.Stat(ref); err == nil {
		return loadReviewFile(ref)
	}

	s, err := openHistory()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Get(context.Background(), ref)
}

func loadReviewFile(path string) (*model.Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read review: %w", err)
	}
	var r model.Review
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse review %s: %w", path, err)
	}
	return &r, nil
}

func loadAnnotations(path string) (annotate.Annotations, error) {
	var ann annotate.Annotations
	data, err := os.ReadFile(path)
	if err != nil {
		return ann, fmt.Errorf("read annotations: %w", err)
	}
	if err := json.Unmarshal(data, &ann); err != nil {
		return ann, fmt.Errorf("parse annotations %s: %w", path, err)
	}
	return ann, nil
}
