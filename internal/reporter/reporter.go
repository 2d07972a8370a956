// Package reporter renders standardization results.
//
// Supported output formats:
//   - Console: Human-readable summary with statistics and contribution tables
//   - JSON: Structured result including the standardized rows
//   - YAML: The same document as JSON for configuration-style consumers
//   - CSV: The standardized table, one row per statement
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatYAML, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	// Output format
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeStatistics    bool `json:"include_statistics"`
	IncludeContributions bool `json:"include_contributions"`
	IncludeDiscrepancies bool `json:"include_discrepancies"`
	IncludePivotReport   bool `json:"include_pivot_report"`
	IncludeRows          bool `json:"include_rows"`

	// HideUnusedRules drops rules that never filled a value from the contribution table
	HideUnusedRules bool `json:"hide_unused_rules"`

	// MaxItems limits long console lists. Zero means unlimited.
	MaxItems int `json:"max_items"`

	TableMaxWidth int `json:"table_max_width"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:               FormatConsole,
		IncludeStatistics:    true,
		IncludeContributions: true,
		IncludeDiscrepancies: true,
		IncludePivotReport:   true,
		IncludeRows:          true,
		HideUnusedRules:      true,
		MaxItems:             10,
		TableMaxWidth:        120,
		CSVDelimiter:         ',',
		CSVHeaders:           true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}

	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}

	if c.Format == FormatCSV && c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter must be set")
	}

	return nil
}

// ReportGenerator generates standardization reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport writes result to writer in the configured format
func (rg *ReportGenerator) GenerateReport(result *standardizer.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatYAML:
		return rg.generateYAMLReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(result *standardizer.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "STANDARDIZATION REPORT: %s\n", result.Statement)
	fmt.Fprintf(writer, "Run:        %s\n", result.RunID)
	fmt.Fprintf(writer, "Generated:  %s\n", result.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration:   %v\n\n", result.Duration)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummary(result, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeStatistics && result.Statistics != nil {
		fmt.Fprintf(writer, "=== MISSING VALUES PER TAG ===\n")
		rg.printStatistics(result.Statistics, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeContributions && len(result.Contributions) > 0 {
		fmt.Fprintf(writer, "=== RULE CONTRIBUTIONS ===\n")
		rg.printContributions(result.Contributions, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeDiscrepancies && result.Validation != nil {
		fmt.Fprintf(writer, "=== VALIDATION ===\n")
		rg.printValidation(result.Validation, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludePivotReport && result.Pivot != nil {
		fmt.Fprintf(writer, "=== INPUT IRREGULARITIES ===\n")
		rg.printPivotReport(result, writer)
	}

	return nil
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(result *standardizer.Result, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(rg.filterResultForOutput(result))
}

// generateYAMLReport generates the JSON document as YAML
func (rg *ReportGenerator) generateYAMLReport(result *standardizer.Result, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(rg.filterResultForOutput(result)); err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	return encoder.Close()
}

// generateCSVReport writes the standardized table with its identifier columns
func (rg *ReportGenerator) generateCSVReport(result *standardizer.Result, writer io.Writer) error {
	if result.Table == nil {
		return fmt.Errorf("result has no standardized table")
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	columns := result.Table.Columns()
	withUnit := tableHasUnits(result.Table)

	if rg.config.CSVHeaders {
		headers := identifierColumns(withUnit)
		headers = append(headers, columns...)
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, row := range result.Table.Rows {
		record := identifierValues(row.Key, withUnit)
		for _, v := range row.Values {
			record = append(record, models.FormatValue(v))
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.Key, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// Helper methods for console output formatting

func (rg *ReportGenerator) printSummary(result *standardizer.Result, writer io.Writer) {
	rows := 0
	if result.Table != nil {
		rows = result.Table.Len()
	}
	fmt.Fprintf(writer, "Statements:        %d\n", rows)
	if result.Statistics != nil {
		fmt.Fprintf(writer, "Iterations:        %d\n", result.Statistics.Iterations)
	}
	fmt.Fprintf(writer, "Shards:            %d\n", result.Shards)

	if result.Pivot != nil {
		fmt.Fprintf(writer, "Input Facts:       %d\n", result.Pivot.InputFacts)
		fmt.Fprintf(writer, "Relevant Facts:    %d\n", result.Pivot.RelevantFacts)
	}

	filled := 0
	for _, c := range result.Contributions {
		filled += c.Rows
	}
	fmt.Fprintf(writer, "Values Filled:     %d\n", filled)

	if result.Validation != nil {
		fmt.Fprintf(writer, "Discrepancies:     %d\n", result.Validation.DiscrepancyCount())
	}

	for _, effect := range result.PrePivot {
		fmt.Fprintf(writer, "Pre-pivot %-40s %d facts\n", effect.Rule+":", effect.Affected)
	}
}

func (rg *ReportGenerator) printStatistics(stats *standardizer.Statistics, writer io.Writer) {
	width := tagWidth(stats, rg.config.TableMaxWidth)

	fmt.Fprintf(writer, "%-*s %8s", width, "Tag", "Pre")
	for i := 0; i < stats.Iterations; i++ {
		fmt.Fprintf(writer, " %8s", fmt.Sprintf("Post %d", i))
	}
	fmt.Fprintf(writer, " %8s %8s %10s\n", "Cleanup", "Missing", "Reduction")

	for _, ts := range stats.Tags {
		fmt.Fprintf(writer, "%-*s %8d", width, truncate(ts.Tag, width), ts.Pre)
		for _, post := range ts.Post {
			fmt.Fprintf(writer, " %8d", post)
		}
		fmt.Fprintf(writer, " %8d %7.1f%% %9.1f%%\n",
			ts.Cleanup,
			stats.Relative(ts.Cleanup)*100,
			standardizer.Reduction(ts.Pre, ts.Cleanup)*100)
	}
}

func (rg *ReportGenerator) printContributions(contributions []rules.RuleContribution, writer io.Writer) {
	list := make([]rules.RuleContribution, 0, len(contributions))
	for _, c := range contributions {
		if rg.config.HideUnusedRules && c.Rows == 0 {
			continue
		}
		list = append(list, c)
	}
	if len(list) == 0 {
		fmt.Fprintf(writer, "No rule filled a value\n")
		return
	}

	// most productive rules first, ties in execution order
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Rows > list[j].Rows
	})

	width := rg.config.TableMaxWidth - 10
	for i, c := range list {
		fmt.Fprintf(writer, "  %-*s %6d\n", width, truncate(c.RuleID, width), c.Rows)
		if rg.limitReached(i, len(list), writer) {
			break
		}
	}
}

func (rg *ReportGenerator) printValidation(report *validation.Report, writer io.Writer) {
	for _, summary := range report.Rules {
		fmt.Fprintf(writer, "%-24s checked %6d  skipped %6d  discrepancies %6d\n",
			summary.RuleID, summary.Checked, summary.Skipped, summary.Discrepancies)
		categories := make([]int, 0, len(summary.ByCategory))
		for category := range summary.ByCategory {
			categories = append(categories, category)
		}
		sort.Ints(categories)
		parts := make([]string, 0, len(categories))
		for _, category := range categories {
			parts = append(parts, fmt.Sprintf("cat %d: %d", category, summary.ByCategory[category]))
		}
		if len(parts) > 0 {
			fmt.Fprintf(writer, "  %s\n", strings.Join(parts, ", "))
		}
	}

	if len(report.Discrepancies) == 0 {
		return
	}

	fmt.Fprintf(writer, "\nTotal Discrepancies Found: %d\n", len(report.Discrepancies))
	for i, d := range report.Discrepancies {
		fmt.Fprintf(writer, "  - %s %s: total %s, summands %s (deviation %s, %s%%)\n",
			d.RuleID,
			d.Key,
			d.Total.String(),
			d.Summed.String(),
			d.Deviation.String(),
			d.Relative.Shift(2).StringFixed(2))
		if rg.limitReached(i, len(report.Discrepancies), writer) {
			break
		}
	}
}

func (rg *ReportGenerator) printPivotReport(result *standardizer.Result, writer io.Writer) {
	report := result.Pivot
	fmt.Fprintf(writer, "Negated Facts:       %d\n", report.NegatedFacts)
	fmt.Fprintf(writer, "Duplicate Facts:     %d\n", report.DuplicateCount())
	fmt.Fprintf(writer, "Ambiguous Filings:   %d\n", len(report.AmbiguousFilings))
	fmt.Fprintf(writer, "Dropped Statements:  %d\n", len(report.DroppedStatements))

	for i, a := range report.AmbiguousFilings {
		fmt.Fprintf(writer, "  - %s: %s has values %s\n", a.Key, a.Tag, strings.Join(a.Values, ", "))
		if rg.limitReached(i, len(report.AmbiguousFilings), writer) {
			break
		}
	}
	for i, d := range report.DroppedStatements {
		fmt.Fprintf(writer, "  - dropped %s (%d missing), kept %s (%d missing)\n",
			d.Key, d.Missing, d.KeptKey, d.KeptMissing)
		if rg.limitReached(i, len(report.DroppedStatements), writer) {
			break
		}
	}
}

// limitReached prints the overflow notice once i hits the item limit
func (rg *ReportGenerator) limitReached(i, total int, writer io.Writer) bool {
	max := rg.config.MaxItems
	if max == 0 || i < max-1 || total <= max {
		return false
	}
	fmt.Fprintf(writer, "  ... and %d more\n", total-max)
	return true
}

// Helper methods

// tableRow is one standardized statement in JSON and YAML output
type tableRow struct {
	Key    models.GroupKey    `json:"key" yaml:"key"`
	Values map[string]*string `json:"values" yaml:"values"`
}

func (rg *ReportGenerator) filterResultForOutput(result *standardizer.Result) map[string]interface{} {
	output := map[string]interface{}{
		"run_id":     result.RunID,
		"statement":  result.Statement,
		"started_at": result.StartedAt,
		"duration":   result.Duration.String(),
		"shards":     result.Shards,
	}

	if len(result.PrePivot) > 0 {
		output["pre_pivot"] = result.PrePivot
	}

	if rg.config.IncludeStatistics && result.Statistics != nil {
		output["statistics"] = result.Statistics
	}

	if rg.config.IncludeContributions && result.Contributions != nil {
		output["contributions"] = result.Contributions
	}

	if rg.config.IncludeDiscrepancies && result.Validation != nil {
		output["validation"] = result.Validation
	}

	if rg.config.IncludePivotReport && result.Pivot != nil {
		output["pivot"] = result.Pivot
	}

	if rg.config.IncludeRows && result.Table != nil {
		output["rows"] = tableRows(result.Table)
	}

	return output
}

func tableRows(table *models.Table) []tableRow {
	columns := table.Columns()
	rows := make([]tableRow, 0, table.Len())
	for _, row := range table.Rows {
		values := make(map[string]*string, len(columns))
		for i, tag := range columns {
			if row.Values[i].Valid {
				s := row.Values[i].Decimal.String()
				values[tag] = &s
			} else {
				values[tag] = nil
			}
		}
		rows = append(rows, tableRow{Key: row.Key, Values: values})
	}
	return rows
}

func tableHasUnits(table *models.Table) bool {
	for _, row := range table.Rows {
		if row.Key.Unit != "" {
			return true
		}
	}
	return false
}

func identifierColumns(withUnit bool) []string {
	columns := []string{"adsh", "coreg", "report", "ddate"}
	if withUnit {
		columns = append(columns, "uom")
	}
	return columns
}

func identifierValues(key models.GroupKey, withUnit bool) []string {
	values := []string{key.Adsh, key.Coreg, strconv.Itoa(key.Report), strconv.Itoa(key.Date)}
	if withUnit {
		values = append(values, key.Unit)
	}
	return values
}

func tagWidth(stats *standardizer.Statistics, maxWidth int) int {
	width := len("Tag")
	for _, ts := range stats.Tags {
		if len(ts.Tag) > width {
			width = len(ts.Tag)
		}
	}
	// leave room for the numeric columns
	limit := maxWidth - 9*(stats.Iterations+3) - 11
	if limit < 12 {
		limit = 12
	}
	if width > limit {
		width = limit
	}
	return width
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
