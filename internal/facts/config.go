package facts

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Column names of a joined fact file
const (
	ColumnAdsh     = "adsh"
	ColumnCoreg    = "coreg"
	ColumnReport   = "report"
	ColumnTag      = "tag"
	ColumnVersion  = "version"
	ColumnDate     = "ddate"
	ColumnUnit     = "uom"
	ColumnValue    = "value"
	ColumnLine     = "line"
	ColumnNegating = "negating"
	ColumnStmt     = "stmt"
)

// RequiredColumns must be present in the header
var RequiredColumns = []string{ColumnAdsh, ColumnReport, ColumnTag, ColumnDate, ColumnValue}

// Columns is the full column order written by Writer
var Columns = []string{
	ColumnAdsh, ColumnCoreg, ColumnReport, ColumnTag, ColumnVersion,
	ColumnDate, ColumnUnit, ColumnValue, ColumnLine, ColumnNegating, ColumnStmt,
}

// Config holds configuration for reading fact files
type Config struct {
	// Delimiter separates fields. Zero picks tab for .tsv and .txt files and
	// comma otherwise.
	Delimiter rune

	// Statement keeps only rows whose stmt column matches, e.g. BS. Empty keeps all.
	Statement string

	// DefaultUnit is used for rows without a uom column or value.
	DefaultUnit string

	// MaxErrors stops reading after this many invalid rows. Zero means unlimited.
	MaxErrors int

	// SkipInvalidRows continues past rows that cannot be parsed.
	SkipInvalidRows bool

	// BatchSize is the number of facts handed to a Stream callback at once.
	BatchSize int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DefaultUnit:     "USD",
		MaxErrors:       100,
		SkipInvalidRows: true,
		BatchSize:       10000,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxErrors < 0 {
		return fmt.Errorf("max errors cannot be negative")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	}
	switch c.Delimiter {
	case 0, ',', '\t', ';', '|':
	default:
		return fmt.Errorf("unsupported delimiter %q", c.Delimiter)
	}
	return nil
}

// delimiterFor resolves the delimiter for a file name
func (c *Config) delimiterFor(name string) rune {
	if c.Delimiter != 0 {
		return c.Delimiter
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}
