package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/pkg/errors"
)

func buildTable(rows ...map[string]string) *models.Table {
	table := models.NewTable([]string{"Assets", "AssetsCurrent", "AssetsNoncurrent"})
	for i, r := range rows {
		table.AddRow(models.GroupKey{Adsh: "A-1", Report: i + 1, Date: 20231231})
		for tag, v := range r {
			table.Set(i, tag, models.Present(decimal.RequireFromString(v)))
		}
	}
	return table
}

func TestSumValidationRule(t *testing.T) {
	rule := NewSumValidationRule("AssetsCheck", "Assets", "AssetsCurrent", "AssetsNoncurrent")

	tests := []struct {
		name      string
		row       map[string]string
		checked   bool
		deviation string
		category  int
	}{
		{"exact", map[string]string{"Assets": "150", "AssetsCurrent": "100", "AssetsNoncurrent": "50"}, true, "0", CategoryExact},
		{"missing summand counts as zero", map[string]string{"Assets": "150", "AssetsCurrent": "150"}, true, "0", CategoryExact},
		{"within one percent", map[string]string{"Assets": "1000", "AssetsCurrent": "995"}, true, "5", CategoryOne},
		{"within five percent", map[string]string{"Assets": "1000", "AssetsCurrent": "960"}, true, "40", CategoryFive},
		{"within ten percent", map[string]string{"Assets": "1000", "AssetsCurrent": "1100"}, true, "-100", CategoryTen},
		{"large", map[string]string{"Assets": "1000", "AssetsCurrent": "1"}, true, "999", CategoryLarge},
		{"zero total", map[string]string{"Assets": "0", "AssetsCurrent": "3"}, true, "-3", CategoryLarge},
		{"missing total skipped", map[string]string{"AssetsCurrent": "3"}, false, "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := buildTable(tt.row)
			check, ok := rule.Check(table.View(0))
			require.Equal(t, tt.checked, ok)
			if !ok {
				return
			}
			assert.True(t, check.Deviation.Equal(decimal.RequireFromString(tt.deviation)), "deviation %s", check.Deviation)
			assert.Equal(t, tt.category, check.Category)
		})
	}
}

func TestValidateReportsAndDoesNotMutate(t *testing.T) {
	table := buildTable(
		map[string]string{"Assets": "150", "AssetsCurrent": "100", "AssetsNoncurrent": "50"},
		map[string]string{"Assets": "150", "AssetsCurrent": "100", "AssetsNoncurrent": "40"},
		map[string]string{"AssetsCurrent": "100"},
	)
	before := table.Clone()
	rules := []Rule{NewSumValidationRule("AssetsCheck", "Assets", "AssetsCurrent", "AssetsNoncurrent")}

	report, err := Validate(table, rules, DefaultTolerance())
	require.NoError(t, err)

	assert.True(t, before.Equal(table), "validation must not change the table")
	require.Len(t, report.Rules, 1)
	assert.Equal(t, 2, report.Rules[0].Checked)
	assert.Equal(t, 1, report.Rules[0].Skipped)
	assert.Equal(t, 1, report.Rules[0].Discrepancies)
	assert.Equal(t, map[int]int{CategoryExact: 1, CategoryTen: 1}, report.Rules[0].ByCategory)

	require.Equal(t, 1, report.DiscrepancyCount())
	d := report.Discrepancies[0]
	assert.Equal(t, "AssetsCheck", d.RuleID)
	assert.Equal(t, 2, d.Key.Report)
	assert.True(t, d.Deviation.Equal(decimal.NewFromInt(10)))
}

func TestValidateTolerance(t *testing.T) {
	table := buildTable(
		map[string]string{"Assets": "1000", "AssetsCurrent": "995"},
		map[string]string{"Assets": "1000", "AssetsCurrent": "900"},
	)
	rules := []Rule{NewSumValidationRule("AssetsCheck", "Assets", "AssetsCurrent", "AssetsNoncurrent")}

	tolerance := Tolerance{Absolute: decimal.NewFromInt(1), Relative: decimal.NewFromFloat(0.01)}
	require.NoError(t, tolerance.Validate())

	report, err := Validate(table, rules, tolerance)
	require.NoError(t, err)
	require.Equal(t, 1, report.DiscrepancyCount())
	assert.Equal(t, 2, report.Discrepancies[0].Key.Report)
}

func TestValidateUnknownTagIsConfigurationError(t *testing.T) {
	table := buildTable()
	rules := []Rule{NewSumValidationRule("Bad", "Assets", "Goodwill")}

	_, err := Validate(table, rules, DefaultTolerance())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestToleranceValidate(t *testing.T) {
	assert.NoError(t, DefaultTolerance().Validate())
	assert.Error(t, Tolerance{Absolute: decimal.NewFromInt(-1)}.Validate())
	assert.Error(t, Tolerance{Relative: decimal.NewFromInt(2)}.Validate())
}
