package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with input checks, logging and
// two fallbacks: a sibling backup file when the output file cannot be
// written, and the console format when a structured format fails.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a SafeReportGenerator; a nil log means the
// global logger.
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report_config", config, err).
			WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely checks the inputs and writes the report, trying the
// fallbacks before giving up.
func (srg *SafeReportGenerator) GenerateReportSafely(result *standardizer.Result, writer io.Writer) error {
	log := srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": describeWriter(writer),
	})
	log.Debug("Generating report")

	if err := srg.validateInputs(result, writer); err != nil {
		log.WithError(err).Error("Report inputs rejected")
		return err
	}
	if err := srg.generateWithFallback(result, writer); err != nil {
		log.WithError(err).Error("Report generation failed")
		return err
	}

	log.WithField("run_id", result.RunID).Info("Report written")
	return nil
}

func (srg *SafeReportGenerator) validateInputs(result *standardizer.Result, writer io.Writer) error {
	missing := func(field, suggestion string) error {
		return errors.ValidationError(errors.CodeMissingField, field, nil, nil).WithSuggestion(suggestion)
	}

	switch {
	case result == nil:
		return missing("result", "Provide a valid standardization result")
	case writer == nil:
		return missing("writer", "Provide a valid output writer")
	case srg.config.Format == FormatCSV && result.Table == nil:
		return missing("table", "CSV output needs the standardized table")
	}
	return nil
}

func (srg *SafeReportGenerator) generateWithFallback(result *standardizer.Result, writer io.Writer) error {
	primary := srg.GenerateReport(result, writer)
	if primary == nil {
		return nil
	}
	srg.logger.WithError(primary).Warn("Report generation failed, trying fallback")

	if file, ok := writer.(*os.File); ok && isRegularOutput(file) && isFileError(primary) {
		return srg.writeBackup(result, file.Name(), primary)
	}
	if srg.config.Format != FormatConsole {
		return srg.writeConsole(result, writer, primary)
	}
	return wrapGenerationError(primary)
}

// writeConsole renders the report as console text into the same writer
func (srg *SafeReportGenerator) writeConsole(result *standardizer.Result, writer io.Writer, primary error) error {
	config := *srg.config
	config.Format = FormatConsole
	fallback, err := NewReportGenerator(&config)
	if err != nil {
		return wrapGenerationError(primary)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", primary)

	if err := fallback.GenerateReport(result, writer); err != nil {
		return errors.InternalError("report_fallback",
			fmt.Errorf("primary=%v, fallback=%v", primary, err))
	}
	srg.logger.WithField("fallback_format", FormatConsole).Info("Report written in fallback format")
	return nil
}

// writeBackup writes the report in the requested format next to path
func (srg *SafeReportGenerator) writeBackup(result *standardizer.Result, path string, primary error) error {
	backupPath := generateBackupPath(path)
	backup, err := os.Create(backupPath)
	if err != nil {
		return wrapGenerationError(primary)
	}
	defer backup.Close()

	if err := srg.GenerateReport(result, backup); err != nil {
		return errors.InternalError("report_output_fallback",
			fmt.Errorf("primary=%v, backup=%v", primary, err))
	}

	srg.logger.WithFields(logger.Fields{
		"original_file": path,
		"backup_file":   backupPath,
	}).Warn("Report written to backup file")
	fmt.Fprintf(os.Stderr, "Warning: Could not write to %s, report saved to %s\n", path, backupPath)
	return nil
}

func wrapGenerationError(err error) error {
	if stdErr, ok := errors.AsStandardizerError(err); ok {
		return stdErr
	}
	return errors.Wrap(err, errors.CategoryInternal, errors.CodeProcessingError, "report generation failed").
		WithSuggestion("Check the output destination and report format settings")
}

func isRegularOutput(file *os.File) bool {
	return file != os.Stdout && file != os.Stderr && file.Name() != ""
}

func describeWriter(writer io.Writer) string {
	if file, ok := writer.(*os.File); ok {
		return "file:" + file.Name()
	}
	return fmt.Sprintf("writer:%T", writer)
}

// generateBackupPath turns dir/report.json into dir/report_backup.json
func generateBackupPath(originalPath string) string {
	ext := filepath.Ext(originalPath)
	return strings.TrimSuffix(originalPath, ext) + "_backup" + ext
}

func isFileError(err error) bool {
	if os.IsPermission(err) || os.IsNotExist(err) || errors.Is(err, syscall.ENOSPC) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no space left") || strings.Contains(msg, "disk full")
}
