package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-fact-standardizer/cmd/standardizer/config"
	"golang-fact-standardizer/internal/facts"
	"golang-fact-standardizer/internal/reporter"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/statements"
	"golang-fact-standardizer/internal/store"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

// standardizeOptions holds the resolved settings of the standardize command
type standardizeOptions struct {
	FactsFile    string
	Statement    string
	StmtFilter   string
	MaxErrors    int
	OutputFormat string
	OutputFile   string
	SQLitePath   string
	ShowProgress bool
	Run          config.RunOptions
}

// standardizeCmd represents the standardize command
var standardizeCmd = &cobra.Command{
	Use:   "standardize",
	Short: "Standardize the facts of one statement type",
	Long: `Standardize reads a joined fact file, reshapes it into one row per statement
table and applies the rule set of the chosen statement type (bs, is or cf).

The fact file needs the columns adsh, report, tag, ddate and value; coreg,
version, uom, line, negating and stmt are optional. Files ending in .tsv or
.txt are read tab separated, everything else comma separated.

Examples:
  # Balance sheet with the default three iterations
  standardizer standardize --facts bs_facts.tsv --statement bs

  # Only rows of a mixed file whose stmt column is IS, written as JSON
  standardizer standardize --facts all.tsv --statement is --stmt-filter is \
    --output-format json --output-file is.json

  # Sharded run, report discrepancies above 1% only, keep the run in SQLite
  standardizer standardize --facts cf.tsv --statement cf --workers 4 \
    --tolerance-rel 0.01 --sqlite runs.db`,

	PreRunE: validateStandardizeFlags,
	RunE:    runStandardize,
}

func init() {
	rootCmd.AddCommand(standardizeCmd)

	flags := standardizeCmd.Flags()
	defaults := config.DefaultRunOptions()

	// Required flags
	flags.StringP("facts", "i", "", "path to the joined fact file (required)")
	flags.StringP("statement", "s", "", "statement type: "+strings.Join(statements.Codes(), ", ")+" (required)")

	// Input flags
	flags.String("stmt-filter", "", "keep only rows whose stmt column matches (e.g. BS)")
	flags.Int("max-errors", 100, "stop after this many invalid rows (0 = unlimited)")

	// Run flags
	flags.IntP("iterations", "n", defaults.Iterations, "passes of the main rule tree")
	flags.IntP("workers", "w", defaults.Workers, "number of shards processed concurrently")
	flags.Bool("filter-main", defaults.FilterMainStatement, "keep one statement table per filing")
	flags.Bool("normalize-sign", defaults.NormalizeSign, "negate facts flagged as negating")
	flags.Bool("group-by-unit", defaults.GroupByUnit, "add the unit of measure to the row key")
	flags.Float64("tolerance-abs", 0, "absolute deviation a validation check tolerates")
	flags.Float64("tolerance-rel", 0, "relative deviation a validation check tolerates (0.0-1.0)")

	// Output flags
	flags.StringP("output-format", "f", "console", "output format: "+strings.Join(config.OutputFormats(), ", "))
	flags.StringP("output-file", "o", "", "output file path (default: stdout)")
	flags.String("sqlite", "", "store the run in this SQLite database")
	flags.Bool("progress", false, "show progress indicators")

	standardizeCmd.MarkFlagRequired("facts")
	standardizeCmd.MarkFlagRequired("statement")

	// Bind flags to viper
	for _, name := range []string{
		"facts", "statement", "stmt-filter", "max-errors",
		"iterations", "workers", "filter-main", "normalize-sign", "group-by-unit",
		"tolerance-abs", "tolerance-rel",
		"output-format", "output-file", "sqlite", "progress",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// optionsFromViper reads the command settings, allowing overrides from a config file
func optionsFromViper() standardizeOptions {
	return standardizeOptions{
		FactsFile:    viper.GetString("facts"),
		Statement:    viper.GetString("statement"),
		StmtFilter:   viper.GetString("stmt-filter"),
		MaxErrors:    viper.GetInt("max-errors"),
		OutputFormat: viper.GetString("output-format"),
		OutputFile:   viper.GetString("output-file"),
		SQLitePath:   viper.GetString("sqlite"),
		ShowProgress: viper.GetBool("progress"),
		Run: config.RunOptions{
			Iterations:          viper.GetInt("iterations"),
			Workers:             viper.GetInt("workers"),
			FilterMainStatement: viper.GetBool("filter-main"),
			NormalizeSign:       viper.GetBool("normalize-sign"),
			GroupByUnit:         viper.GetBool("group-by-unit"),
			ToleranceAbsolute:   viper.GetFloat64("tolerance-abs"),
			ToleranceRelative:   viper.GetFloat64("tolerance-rel"),
		},
	}
}

func validateStandardizeFlags(cmd *cobra.Command, args []string) error {
	return validateOptions(optionsFromViper())
}

func validateOptions(opts standardizeOptions) error {
	if opts.FactsFile == "" {
		return fmt.Errorf("facts is required")
	}
	if opts.Statement == "" {
		return fmt.Errorf("statement is required")
	}
	if _, err := statements.Lookup(opts.Statement); err != nil {
		return err
	}

	if err := validateFileExists(opts.FactsFile, "fact file"); err != nil {
		return err
	}

	validFormat := false
	for _, format := range config.OutputFormats() {
		if opts.OutputFormat == format {
			validFormat = true
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid output format '%s'. Valid formats: %s", opts.OutputFormat, strings.Join(config.OutputFormats(), ", "))
	}

	if opts.MaxErrors < 0 {
		return fmt.Errorf("max errors cannot be negative")
	}

	if _, err := config.CreateStandardizerConfig(opts.Run); err != nil {
		return err
	}

	for _, path := range []string{opts.OutputFile, opts.SQLitePath} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runStandardize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := optionsFromViper()
	log := logger.GetGlobalLogger().WithComponent("cli")

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting standardization...\n")
		fmt.Fprintf(os.Stderr, "Fact file: %s\n", opts.FactsFile)
		fmt.Fprintf(os.Stderr, "Statement: %s\n", strings.ToUpper(opts.Statement))
		fmt.Fprintf(os.Stderr, "Output format: %s\n", opts.OutputFormat)
		if opts.OutputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", opts.OutputFile)
		}
	}

	var output io.Writer = os.Stdout
	if opts.OutputFile != "" {
		file, err := os.Create(opts.OutputFile)
		if err != nil {
			return errors.FileError(errors.CodeDirectoryError, opts.OutputFile, err)
		}
		defer file.Close()
		output = file
	}

	result, err := standardize(ctx, opts, output, log)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nStandardization completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Run %s: %d statements, %d iterations, %d shards.\n",
			result.RunID, result.Table.Len(), result.Statistics.Iterations, result.Shards)
		if n := result.Validation.DiscrepancyCount(); n > 0 {
			fmt.Fprintf(os.Stderr, "Detected %d discrepancies.\n", n)
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}
	return nil
}

// standardize reads the fact file, runs the statement rules, writes the
// report to output and optionally stores the run.
func standardize(ctx context.Context, opts standardizeOptions, output io.Writer, log logger.Logger) (*standardizer.Result, error) {
	definition, err := statements.Lookup(opts.Statement)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidRuleSet, "statement", opts.Statement, err)
	}
	runConfig, err := config.CreateStandardizerConfig(opts.Run)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "run", opts.Run, err)
	}
	factsConfig, err := config.CreateFactsConfig(opts.StmtFilter, opts.MaxErrors)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "facts", opts.StmtFilter, err)
	}

	reader, err := facts.NewReader(factsConfig)
	if err != nil {
		return nil, err
	}
	list, stats, err := reader.WithLogger(log).ReadFile(ctx, opts.FactsFile)
	if err != nil {
		return nil, err
	}
	if stats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d invalid rows of %s\n", stats.Skipped, opts.FactsFile)
	}

	std, err := standardizer.New(definition, runConfig)
	if err != nil {
		return nil, err
	}
	std.WithLogger(log)
	if opts.ShowProgress {
		std.AddProgressCallback(func(p *standardizer.Progress) {
			stage := string(p.Stage)
			if p.Stage == standardizer.StageIterating {
				stage = fmt.Sprintf("%s %d", stage, p.Iteration)
			}
			fmt.Fprintf(os.Stderr, "\r[%d/%d] %-14s (%.1f%% complete)", p.CurrentStep, p.TotalSteps, stage, p.PercentComplete)
			if p.Stage == standardizer.StageDone {
				fmt.Fprintf(os.Stderr, "\n")
			}
		})
	}

	result, err := std.Process(ctx, list)
	if err != nil {
		return nil, err
	}

	generator, err := reporter.NewSafeReportGenerator(config.CreateReportConfig(opts.OutputFormat), log)
	if err != nil {
		return nil, err
	}
	if err := generator.GenerateReportSafely(result, output); err != nil {
		return nil, err
	}

	if opts.SQLitePath != "" {
		if err := saveRun(ctx, opts.SQLitePath, result); err != nil {
			return nil, err
		}
		log.WithFields(logger.Fields{"run_id": result.RunID, "database": opts.SQLitePath}).Info("Stored run")
	}

	return result, nil
}

func saveRun(ctx context.Context, path string, result *standardizer.Result) error {
	st, err := store.NewSQLite(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return st.SaveResult(ctx, result)
}
