package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile            ErrorCategory = "file"
	CategoryParse           ErrorCategory = "parse"
	CategoryValidation      ErrorCategory = "validation"
	CategoryConfiguration   ErrorCategory = "configuration"
	CategoryStandardization ErrorCategory = "standardization"
	CategoryStorage         ErrorCategory = "storage"
	CategoryInternal        ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeMissingConfig  ErrorCode = "missing_config"
	CodeUnknownTag     ErrorCode = "unknown_tag"
	CodeInvalidRuleSet ErrorCode = "invalid_rule_set"

	// Standardization errors
	CodeProcessingError ErrorCode = "processing_error"
	CodeCancelled       ErrorCode = "cancelled"

	// Storage errors
	CodeStorageFailed ErrorCode = "storage_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// StandardizerError is the base error type for all application errors
type StandardizerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *StandardizerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *StandardizerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *StandardizerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStandardization, CategoryInternal:
		return 5
	case CategoryStorage:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *StandardizerError) WithContext(key string, value interface{}) *StandardizerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *StandardizerError) WithSuggestion(suggestion string) *StandardizerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new StandardizerError
func New(category ErrorCategory, code ErrorCode, message string) *StandardizerError {
	return &StandardizerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with StandardizerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *StandardizerError {
	if err == nil {
		return nil
	}

	return &StandardizerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *StandardizerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// catalog holds the message format and suggestion of each code. Message
// formats take the subject (path, field or setting) and the offending value.
var catalog = map[ErrorCode]struct {
	format     string
	suggestion string
}{
	CodeFileNotFound:   {"file not found: %s", "check if the file path is correct and the file exists"},
	CodeFilePermission: {"permission denied accessing file: %s", "check file permissions and ensure you have read access"},
	CodeDirectoryError: {"cannot access path: %s", "ensure the directory exists and is writable"},

	CodeInvalidAmount: {"invalid amount in field '%s': %v", "values must be plain decimal numbers, e.g. 1234.5"},
	CodeInvalidDate:   {"invalid date in field '%s': %v", "use the integer date format YYYYMMDD"},
	CodeMissingField:  {"required field '%s' is missing or empty", "provide a value for this required field"},

	CodeInvalidConfig:  {"invalid configuration for '%s': %v", "check the flag or config file value"},
	CodeMissingConfig:  {"missing required configuration '%s'", "set it with a flag or in the config file"},
	CodeUnknownTag:     {"%s references tags absent from the table: %v", "add the tags to the statement's final tags or fix the rule definition"},
	CodeInvalidRuleSet: {"invalid rule set '%s': %v", "use one of the supported statement codes"},

	CodeCancelled:       {"standardization cancelled during %s", "increase the timeout or reduce the input size"},
	CodeProcessingError: {"processing error during %s", "check the input facts and try again"},
	CodeStorageFailed:   {"storage failure during %s", "check the database path and that it is writable"},
	CodeUnexpectedError: {"unexpected error during %s", "this is likely a bug, please report it with the error details"},
}

// describe builds the error for code; args fill the catalog format
func describe(err error, category ErrorCategory, code ErrorCode, args ...interface{}) *StandardizerError {
	entry, ok := catalog[code]
	if !ok {
		entry.format, entry.suggestion = string(category)+" error: %v", "check the input and try again"
		args = args[:1]
	}
	n := strings.Count(entry.format, "%")
	if n < len(args) {
		args = args[:n]
	}
	return build(err, category, code, fmt.Sprintf(entry.format, args...)).WithSuggestion(entry.suggestion)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *StandardizerError {
	return describe(err, CategoryFile, code, path).WithContext("file_path", path)
}

// ParseError creates a parsing-related error located at line and column of file
func ParseError(code ErrorCode, file string, line int, column string, value string, err error) *StandardizerError {
	var e *StandardizerError
	switch code {
	case CodeMissingColumn:
		e = build(err, CategoryParse, code, fmt.Sprintf("missing required column '%s' in file %s", column, file)).
			WithSuggestion("the header needs the columns adsh, report, tag, ddate and value")
	case CodeInvalidFormat, CodeInvalidData:
		e = build(err, CategoryParse, code, fmt.Sprintf("invalid %s in file %s at line %d: '%s'", column, file, line, value)).
			WithSuggestion("correct the value or raise --max-errors to skip the row")
	default:
		e = build(err, CategoryParse, code, fmt.Sprintf("parse error in file %s at line %d", file, line)).
			WithSuggestion("check the file format and data integrity")
	}
	return e.WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *StandardizerError {
	return describe(err, CategoryValidation, code, field, value).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error. Rule sets that
// reference tags the reshaped table does not carry end up here.
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *StandardizerError {
	return describe(err, CategoryConfiguration, code, setting, value).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StandardizationError creates an error raised while running a rule pipeline
func StandardizationError(code ErrorCode, operation string, err error) *StandardizerError {
	if code != CodeCancelled {
		code = CodeProcessingError
	}
	return describe(err, CategoryStandardization, code, operation).WithContext("operation", operation)
}

// StorageError creates a persistence-related error
func StorageError(operation string, err error) *StandardizerError {
	return describe(err, CategoryStorage, CodeStorageFailed, operation).WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *StandardizerError {
	return describe(err, CategoryInternal, CodeUnexpectedError, operation).WithContext("operation", operation)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*StandardizerError  `json:"errors"`
	SampleErrors []*StandardizerError  `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*StandardizerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if summary.Errors == nil {
		summary.Errors = []*StandardizerError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}
	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	sort.Strings(categories)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}
	return maxCode
}

// AsStandardizerError extracts a StandardizerError from an error chain
func AsStandardizerError(err error) (*StandardizerError, bool) {
	var stdErr *StandardizerError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries a StandardizerError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	stdErr, ok := AsStandardizerError(err)
	return ok && stdErr.Category == category
}

// WrapIfNeeded wraps an error if it's not already a StandardizerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *StandardizerError {
	if err == nil {
		return nil
	}
	if stdErr, ok := AsStandardizerError(err); ok {
		return stdErr
	}
	return Wrap(err, category, code, message)
}
