// Package pivot turns long-form facts into the wide table the rule engine works on.
//
// Reshaping runs in a fixed order:
//  1. Filter facts to the expected tags
//  2. Drop exact duplicates (reported, never summed)
//  3. Optionally negate facts carrying the negating flag
//  4. Group by (filing, co-registrant, report, date[, unit]) into wide rows
//  5. Optionally keep only the main statement row per filing and co-registrant
//
// Filings with more than one distinct value for the same row and tag are
// dropped as a whole and listed in the Report.
//
// Example usage:
//
//	config := pivot.DefaultConfig()
//	config.MainTags = []string{"Assets", "Liabilities"}
//
//	engine := pivot.NewEngine(config)
//	table, report, err := engine.Reshape(facts, expectedTags)
package pivot

import (
	"fmt"
)

// Config controls the optional reshape steps
type Config struct {
	// NormalizeSign negates the value of every fact with the negating flag set.
	NormalizeSign bool `json:"normalize_sign"`

	// FilterMainStatement keeps one row per filing and co-registrant: the one
	// with the fewest missing MainTags.
	FilterMainStatement bool `json:"filter_main_statement"`

	// MainTags decide which competing statement table is the canonical one.
	MainTags []string `json:"main_tags"`

	// GroupByUnit adds the unit of measure to the grouping key.
	GroupByUnit bool `json:"group_by_unit"`
}

// DefaultConfig returns the configuration used by the statement standardizers
func DefaultConfig() *Config {
	return &Config{
		NormalizeSign:       false,
		FilterMainStatement: true,
		GroupByUnit:         false,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FilterMainStatement && len(c.MainTags) == 0 {
		return fmt.Errorf("main tags are required when filtering for the main statement")
	}
	seen := make(map[string]bool)
	for _, tag := range c.MainTags {
		if tag == "" {
			return fmt.Errorf("main tags must not be empty")
		}
		if seen[tag] {
			return fmt.Errorf("duplicate main tag: %s", tag)
		}
		seen[tag] = true
	}
	return nil
}
