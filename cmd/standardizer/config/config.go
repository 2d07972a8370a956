package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"golang-fact-standardizer/internal/facts"
	"golang-fact-standardizer/internal/reporter"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
	"golang-fact-standardizer/pkg/logger"
)

// RunOptions collects the command-line settings of one standardization run
type RunOptions struct {
	Iterations          int     `mapstructure:"iterations"`
	Workers             int     `mapstructure:"workers"`
	FilterMainStatement bool    `mapstructure:"filter-main"`
	NormalizeSign       bool    `mapstructure:"normalize-sign"`
	GroupByUnit         bool    `mapstructure:"group-by-unit"`
	ToleranceAbsolute   float64 `mapstructure:"tolerance-abs"`
	ToleranceRelative   float64 `mapstructure:"tolerance-rel"`
}

// DefaultRunOptions mirrors standardizer.DefaultConfig
func DefaultRunOptions() RunOptions {
	defaults := standardizer.DefaultConfig()
	return RunOptions{
		Iterations:          defaults.Iterations,
		Workers:             defaults.Workers,
		FilterMainStatement: defaults.FilterMainStatement,
		NormalizeSign:       defaults.NormalizeSign,
		GroupByUnit:         defaults.GroupByUnit,
	}
}

// CreateStandardizerConfig creates a validated run configuration
func CreateStandardizerConfig(options RunOptions) (*standardizer.Config, error) {
	config := standardizer.DefaultConfig()

	// Apply CLI overrides
	config.Iterations = options.Iterations
	config.Workers = options.Workers
	config.FilterMainStatement = options.FilterMainStatement
	config.NormalizeSign = options.NormalizeSign
	config.GroupByUnit = options.GroupByUnit
	config.Tolerance = validation.Tolerance{
		Absolute: decimal.NewFromFloat(options.ToleranceAbsolute),
		Relative: decimal.NewFromFloat(options.ToleranceRelative),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid standardizer config: %w", err)
	}
	return config, nil
}

// CreateFactsConfig creates the reader configuration for a fact file
func CreateFactsConfig(statementFilter string, maxErrors int) (*facts.Config, error) {
	config := facts.DefaultConfig()
	config.Statement = strings.ToUpper(strings.TrimSpace(statementFilter))
	config.MaxErrors = maxErrors

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid facts config: %w", err)
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.IncludeRows = false
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeRows = true
	case "yaml":
		config.Format = reporter.FormatYAML
		// keep YAML output to the audit summary
		config.IncludeRows = false
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	case "tsv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = '\t'
	}

	return config
}

// OutputFormats lists the accepted --output-format values
func OutputFormats() []string {
	return []string{"console", "json", "yaml", "csv", "tsv"}
}

// CreateLoggerConfig creates the logger configuration of the CLI
func CreateLoggerConfig(level, format, file string, verbose bool) (*logger.Config, error) {
	config := logger.DefaultConfig()
	if level != "" {
		config.Level = logger.Level(strings.ToLower(level))
	}
	if verbose {
		config.Level = logger.DebugLevel
	}
	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}
	if file != "" {
		config.Output = logger.FileOutput
		config.File = file
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}
	return config, nil
}
