package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"golang-fact-standardizer/internal/store"
)

var (
	runsDatabase  string
	runsStatement string
	runsLimit     int
)

// runsCmd lists stored runs
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored standardization runs or show one of them",
	Long: `Runs reads the SQLite database written by 'standardize --sqlite'.
Without arguments it lists the most recent runs; with a run id it shows the
rule contributions and discrepancies of that run.

Examples:
  standardizer runs --sqlite runs.db
  standardizer runs --sqlite runs.db --statement BS --limit 5
  standardizer runs --sqlite runs.db 6f1c2a9e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFileExists(runsDatabase, "database"); err != nil {
			return err
		}
		st, err := store.NewSQLite(runsDatabase)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if len(args) == 1 {
			return showRun(ctx, st, args[0], cmd.OutOrStdout())
		}
		return listRuns(ctx, st, store.RunFilter{Statement: strings.ToUpper(runsStatement), Limit: runsLimit}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDatabase, "sqlite", "", "SQLite database path (required)")
	runsCmd.Flags().StringVar(&runsStatement, "statement", "", "only runs of this statement type")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list (0 = all)")
	runsCmd.MarkFlagRequired("sqlite")
}

func listRuns(ctx context.Context, st store.Store, filter store.RunFilter, w io.Writer) error {
	runs, err := st.ListRuns(ctx, filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs stored\n")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-4s  %-20s  %8s  %10s  %13s\n", "RUN", "STMT", "STARTED", "ROWS", "ITERATIONS", "DISCREPANCIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%-36s  %-4s  %-20s  %8d  %10d  %13d\n",
			run.ID, run.Statement, run.StartedAt.Format(time.RFC3339), run.Rows, run.Iterations, run.Discrepancies)
	}
	return nil
}

func showRun(ctx context.Context, st store.Store, runID string, w io.Writer) error {
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	contributions, err := st.Contributions(ctx, runID)
	if err != nil {
		return err
	}
	discrepancies, err := st.Discrepancies(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run:            %s\n", run.ID)
	fmt.Fprintf(w, "Statement:      %s\n", run.Statement)
	fmt.Fprintf(w, "Started:        %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:       %v\n", run.Duration)
	fmt.Fprintf(w, "Rows:           %d\n", run.Rows)
	fmt.Fprintf(w, "Iterations:     %d\n", run.Iterations)
	fmt.Fprintf(w, "Shards:         %d\n", run.Shards)

	fmt.Fprintf(w, "\nRule contributions:\n")
	for _, c := range contributions {
		if c.Rows > 0 {
			fmt.Fprintf(w, "  %-80s %6d\n", c.RuleID, c.Rows)
		}
	}

	fmt.Fprintf(w, "\nDiscrepancies: %d\n", len(discrepancies))
	for _, d := range discrepancies {
		fmt.Fprintf(w, "  - %s %s: deviation %s\n", d.RuleID, d.Key, d.Deviation.String())
	}
	return nil
}
