package standardizer

import (
	"fmt"

	"golang-fact-standardizer/internal/validation"
)

// DefaultIterations is the number of passes of the main rule tree. Rule
// sets converge within two or three passes in practice.
const DefaultIterations = 3

// Config controls one standardization run
type Config struct {
	// Iterations is the number of passes of the main rule tree.
	Iterations int `json:"iterations" mapstructure:"iterations"`

	// FilterMainStatement keeps one statement row per filing and co-registrant.
	FilterMainStatement bool `json:"filter_main_statement" mapstructure:"filter_main_statement"`

	// NormalizeSign negates facts carrying the negating flag before reshaping.
	NormalizeSign bool `json:"normalize_sign" mapstructure:"normalize_sign"`

	// GroupByUnit adds the unit of measure to the row key.
	GroupByUnit bool `json:"group_by_unit" mapstructure:"group_by_unit"`

	// Workers is the number of shards the rule passes run on concurrently.
	Workers int `json:"workers" mapstructure:"workers"`

	// Tolerance decides which validation deviations are reported.
	Tolerance validation.Tolerance `json:"tolerance" mapstructure:"-"`
}

// DefaultConfig returns the default run configuration
func DefaultConfig() *Config {
	return &Config{
		Iterations:          DefaultIterations,
		FilterMainStatement: true,
		NormalizeSign:       false,
		GroupByUnit:         false,
		Workers:             1,
		Tolerance:           validation.DefaultTolerance(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Iterations > 20 {
		return fmt.Errorf("iterations cannot exceed 20, got %d", c.Iterations)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if err := c.Tolerance.Validate(); err != nil {
		return fmt.Errorf("invalid tolerance: %w", err)
	}
	return nil
}
