package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planproof/planproof/internal/report"
	"github.com/planproof/planproof/internal/store"
)

var (
	historyLimit  int
	historyAsJSON bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past reviews",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reviews, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openHistory()
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.List(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No stored reviews.")
			return nil
		}

		for _, e := range entries {
			name := e.ProjectName
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%s  %s  %-18s %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Ruleset, name)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openHistory()
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		if historyAsJSON {
			data, err := (report.JSONFormatter{}).Format(result)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		report.Summary(os.Stdout, result)
		for _, group := range result.Findings {
			f := group.Finding
			fmt.Printf("  [%s] %s %s (pages %v)\n", f.Severity, f.RuleCode, f.ElementDescription, group.PageIndices)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one stored review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openHistory()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "max entries to list (0 = all)")
	historyShowCmd.Flags().BoolVar(&historyAsJSON, "json", false, "print the full review as JSON")
}

func openHistory() (*store.HistoryStore, error) {
	cfg := loadConfig()
	path, err := historyPath(cfg)
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}
