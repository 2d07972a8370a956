package errors

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParseContext locates a problem inside an input file
type ParseContext struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// RowError is a recoverable problem with a single input row
type RowError struct {
	*StandardizerError
	Location    *ParseContext `json:"location"`
	Recoverable bool          `json:"recoverable"`
}

// Error implements the error interface with the location appended
func (e *RowError) Error() string {
	msg := e.StandardizerError.Error()
	if e.Location == nil {
		return msg
	}
	location := fmt.Sprintf("at %s", filepath.Base(e.Location.File))
	if e.Location.Line > 0 {
		location += fmt.Sprintf(":%d", e.Location.Line)
	}
	if e.Location.Column != "" {
		location += fmt.Sprintf(" column '%s'", e.Location.Column)
	}
	return msg + " " + location
}

// NewRowError creates a recoverable row error
func NewRowError(code ErrorCode, location *ParseContext, message string, cause error) *RowError {
	base := build(cause, CategoryParse, code, message)
	if location != nil {
		base.WithContext("file", location.File).
			WithContext("line", location.Line).
			WithContext("column", location.Column).
			WithContext("value", location.Value)
	}
	return &RowError{StandardizerError: base, Location: location, Recoverable: true}
}

// InvalidValueError reports a column whose content could not be converted
func InvalidValueError(file string, line int, column, value, expected string) *RowError {
	loc := &ParseContext{File: file, Line: line, Column: column, Value: value}
	err := NewRowError(CodeInvalidData, loc, fmt.Sprintf("cannot parse %q as %s", value, expected), nil)
	err.WithSuggestion(fmt.Sprintf("column '%s' must hold %s", column, expected))
	return err
}

// MissingColumnsError reports a header that lacks required columns
func MissingColumnsError(file string, expected, actual []string) *RowError {
	missing := findMissingColumns(expected, actual)
	loc := &ParseContext{File: file, Line: 1, Column: strings.Join(missing, ",")}
	err := NewRowError(CodeMissingColumn, loc, fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	err.Recoverable = false
	err.WithSuggestion(fmt.Sprintf("header must contain: %s", strings.Join(expected, ", ")))
	return err
}

// RowErrorCollector accumulates row errors up to a limit
type RowErrorCollector struct {
	errors    []*RowError
	maxErrors int
}

// NewRowErrorCollector creates a collector. maxErrors <= 0 means unlimited.
func NewRowErrorCollector(maxErrors int) *RowErrorCollector {
	return &RowErrorCollector{maxErrors: maxErrors}
}

// Add records err and reports whether processing may continue
func (c *RowErrorCollector) Add(err *RowError) bool {
	if err == nil {
		return true
	}
	c.errors = append(c.errors, err)
	if c.maxErrors > 0 && len(c.errors) >= c.maxErrors {
		return false
	}
	return err.Recoverable
}

func (c *RowErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

func (c *RowErrorCollector) Errors() []*RowError {
	return c.errors
}

// Summary returns an error summary for all collected errors
func (c *RowErrorCollector) Summary() *ErrorSummary {
	base := make([]*StandardizerError, len(c.errors))
	for i, err := range c.errors {
		base[i] = err.StandardizerError
	}
	return NewErrorSummary(base)
}

func findMissingColumns(expected, actual []string) []string {
	actualSet := make(map[string]bool)
	for _, col := range actual {
		actualSet[strings.ToLower(strings.TrimSpace(col))] = true
	}

	var missing []string
	for _, col := range expected {
		if !actualSet[strings.ToLower(strings.TrimSpace(col))] {
			missing = append(missing, col)
		}
	}
	return missing
}
