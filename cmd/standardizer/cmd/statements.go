package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/statements"
)

var showRules bool

// statementsCmd describes the supported statement types
var statementsCmd = &cobra.Command{
	Use:   "statements [code]",
	Short: "List the supported statement types and their final tags",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codes := statements.Codes()
		if len(args) == 1 {
			codes = []string{args[0]}
		}
		for _, code := range codes {
			if err := describeStatement(code, showRules, cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statementsCmd)
	statementsCmd.Flags().BoolVar(&showRules, "rules", false, "also list the rule ids of every pass")
}

func describeStatement(code string, withRules bool, w io.Writer) error {
	definition, err := statements.Lookup(code)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s)\n", definition.Name, strings.ToLower(code))
	fmt.Fprintf(w, "  Final tags: %s\n", strings.Join(definition.FinalTags, ", "))
	fmt.Fprintf(w, "  Main tags:  %s\n", strings.Join(definition.MainTags, ", "))
	ids := make([]string, 0, len(definition.ValidationRules))
	for _, rule := range definition.ValidationRules {
		ids = append(ids, rule.ID())
	}
	fmt.Fprintf(w, "  Checks:     %s\n", strings.Join(ids, ", "))

	if withRules {
		passes := []struct {
			prefix string
			tree   rules.Entity
		}{
			{"PRE", definition.PreTree},
			{"MAIN_0", definition.MainTree},
			{"POST", definition.PostTree},
		}
		for _, pass := range passes {
			if pass.tree == nil {
				continue
			}
			fmt.Fprintf(w, "  %s:\n", pass.prefix)
			for _, id := range rules.RuleIDs(pass.tree, pass.prefix) {
				fmt.Fprintf(w, "    %s\n", id)
			}
		}
	}
	fmt.Fprintf(w, "\n")
	return nil
}
