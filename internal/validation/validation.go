// Package validation checks accounting identities on a standardized table.
// Validation never changes the table and never fails on a mismatch: filings
// are often internally inconsistent, so discrepancies are reported, not raised.
package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/pkg/errors"
)

// Deviation categories, in percent of the total
const (
	CategoryExact = 0
	CategoryOne   = 1
	CategoryFive  = 5
	CategoryTen   = 10
	CategoryLarge = 100
)

var (
	onePercent  = decimal.NewFromFloat(0.01)
	fivePercent = decimal.NewFromFloat(0.05)
	tenPercent  = decimal.NewFromFloat(0.10)
)

// Rule is a post-hoc identity check over finished rows
type Rule interface {
	ID() string
	Tags() []string
	Check(v models.RowView) (Check, bool)
}

// Check is the outcome of one rule on one row
type Check struct {
	Total     decimal.Decimal
	Summed    decimal.Decimal
	Deviation decimal.Decimal
	Relative  decimal.Decimal
	Category  int
}

// SumValidationRule checks Sum == Σ Summands. Missing summands count as zero;
// rows without a total are skipped.
type SumValidationRule struct {
	Identifier string
	SumTag     string
	Summands   []string
}

// NewSumValidationRule creates a SumValidationRule
func NewSumValidationRule(identifier, sumTag string, summands ...string) *SumValidationRule {
	return &SumValidationRule{Identifier: identifier, SumTag: sumTag, Summands: summands}
}

func (r *SumValidationRule) ID() string { return r.Identifier }

func (r *SumValidationRule) Tags() []string {
	return append([]string{r.SumTag}, r.Summands...)
}

// Check compares the total with the sum of the summands of one row
func (r *SumValidationRule) Check(v models.RowView) (Check, bool) {
	total := v.Get(r.SumTag)
	if !total.Valid {
		return Check{}, false
	}

	summed := decimal.Zero
	for _, tag := range r.Summands {
		if val := v.Get(tag); val.Valid {
			summed = summed.Add(val.Decimal)
		}
	}

	deviation := total.Decimal.Sub(summed)
	relative := relativeDeviation(deviation, total.Decimal)
	return Check{
		Total:     total.Decimal,
		Summed:    summed,
		Deviation: deviation,
		Relative:  relative,
		Category:  categorize(relative),
	}, true
}

func relativeDeviation(deviation, total decimal.Decimal) decimal.Decimal {
	if deviation.IsZero() {
		return decimal.Zero
	}
	if total.IsZero() {
		return decimal.NewFromInt(1)
	}
	return deviation.Abs().DivRound(total.Abs(), 8)
}

func categorize(relative decimal.Decimal) int {
	switch {
	case relative.IsZero():
		return CategoryExact
	case relative.LessThanOrEqual(onePercent):
		return CategoryOne
	case relative.LessThanOrEqual(fivePercent):
		return CategoryFive
	case relative.LessThanOrEqual(tenPercent):
		return CategoryTen
	default:
		return CategoryLarge
	}
}

// Tolerance decides which deviations are reported. A row is reported when its
// absolute deviation exceeds Absolute and its relative deviation exceeds Relative.
type Tolerance struct {
	Absolute decimal.Decimal `json:"absolute"`
	Relative decimal.Decimal `json:"relative"`
}

// DefaultTolerance reports every inexact row
func DefaultTolerance() Tolerance {
	return Tolerance{Absolute: decimal.Zero, Relative: decimal.Zero}
}

// Validate checks tolerance bounds
func (t Tolerance) Validate() error {
	if t.Absolute.IsNegative() {
		return fmt.Errorf("absolute tolerance cannot be negative")
	}
	if t.Relative.IsNegative() || t.Relative.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("relative tolerance must be between 0 and 1")
	}
	return nil
}

func (t Tolerance) exceeded(c Check) bool {
	return c.Deviation.Abs().GreaterThan(t.Absolute) && c.Relative.GreaterThan(t.Relative)
}

// Discrepancy is a reported row
type Discrepancy struct {
	RuleID    string          `json:"rule_id" yaml:"rule_id"`
	Key       models.GroupKey `json:"key" yaml:"key"`
	Total     decimal.Decimal `json:"total" yaml:"total"`
	Summed    decimal.Decimal `json:"summed" yaml:"summed"`
	Deviation decimal.Decimal `json:"deviation" yaml:"deviation"`
	Relative  decimal.Decimal `json:"relative" yaml:"relative"`
	Category  int             `json:"category" yaml:"category"`
}

// RuleSummary aggregates the checks of one rule
type RuleSummary struct {
	RuleID        string      `json:"rule_id" yaml:"rule_id"`
	Checked       int         `json:"checked" yaml:"checked"`
	Skipped       int         `json:"skipped" yaml:"skipped"`
	Discrepancies int         `json:"discrepancies" yaml:"discrepancies"`
	ByCategory    map[int]int `json:"by_category" yaml:"by_category"`
}

// Report is the discrepancy report of one table
type Report struct {
	Rules         []RuleSummary `json:"rules" yaml:"rules"`
	Discrepancies []Discrepancy `json:"discrepancies" yaml:"discrepancies"`
}

// DiscrepancyCount returns the number of reported rows across all rules
func (r *Report) DiscrepancyCount() int {
	return len(r.Discrepancies)
}

// Validate runs every rule against table. Only a rule naming a tag that is
// not a column of table is an error.
func Validate(table *models.Table, rules []Rule, tolerance Tolerance) (*Report, error) {
	for _, rule := range rules {
		if missing := table.MissingColumns(rule.Tags()); len(missing) > 0 {
			return nil, errors.ConfigurationError(errors.CodeUnknownTag, "validation rule "+rule.ID(), missing, nil)
		}
	}

	report := &Report{Rules: make([]RuleSummary, 0, len(rules))}
	for _, rule := range rules {
		summary := RuleSummary{RuleID: rule.ID(), ByCategory: make(map[int]int)}
		for i := 0; i < table.Len(); i++ {
			view := table.View(i)
			check, ok := rule.Check(view)
			if !ok {
				summary.Skipped++
				continue
			}
			summary.Checked++
			summary.ByCategory[check.Category]++
			if !tolerance.exceeded(check) {
				continue
			}
			summary.Discrepancies++
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				RuleID:    rule.ID(),
				Key:       view.Key(),
				Total:     check.Total,
				Summed:    check.Summed,
				Deviation: check.Deviation,
				Relative:  check.Relative,
				Category:  check.Category,
			})
		}
		report.Rules = append(report.Rules, summary)
	}
	return report, nil
}
