package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/planproof/planproof/internal/catalog"
	"github.com/planproof/planproof/internal/model"
)

var rulesRuleset string

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalog",
	Long: `List the rules the review applies, per ruleset and page type.

Example:
  planproof rules
  planproof rules --ruleset ANSI_A117_TYPE_A`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesRuleset, "ruleset", "", "limit to one ruleset")
}

func runRules(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	rulesets := model.Rulesets()
	if rulesRuleset != "" {
		rs, ok := model.ParseRuleset(rulesRuleset)
		if !ok {
			return fmt.Errorf("unknown ruleset %q", rulesRuleset)
		}
		rulesets = []model.Ruleset{rs}
	}

	for _, rs := range rulesets {
		fmt.Printf("%s\n", rs)

		printed := make(map[string]struct{})
		for _, pageType := range model.ReviewablePageTypes() {
			rules, err := cat.ApplicableRules(rs, pageType)
			if err != nil {
				return err
			}

			var codes []string
			for _, rule := range rules {
				if _, done := printed[rule.Code]; done {
					continue
				}
				printed[rule.Code] = struct{}{}
				codes = append(codes, rule.Code)
			}
			sort.Strings(codes)

			for _, code := range codes {
				rule, err := cat.Lookup(rs, code)
				if err != nil {
					return err
				}
				fmt.Printf("  %-12s %-18s %s", rule.Code, rule.Category, rule.Title)
				if rule.Citation != "" {
					fmt.Printf(" (%s)", rule.Citation)
				}
				fmt.Println()
			}
		}
		fmt.Println()
	}

	return nil
}
