package pivot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

var mainTags = []string{"Assets", "AssetsCurrent", "AssetsNoncurrent", "Liabilities", "LiabilitiesCurrent", "LiabilitiesNoncurrent"}

func fact(adsh string, report int, tag string, value int64) *models.Fact {
	return models.NewFact(adsh, "", report, tag, 20231231, decimal.NewFromInt(value))
}

func newEngine(config *Config) *Engine {
	return NewEngine(config).WithLogger(logger.NewNopLogger())
}

func TestReshapeBuildsOneRowPerKey(t *testing.T) {
	facts := []*models.Fact{
		fact("A-1", 2, "AssetsCurrent", 100),
		fact("A-1", 2, "AssetsNoncurrent", 50),
		fact("A-1", 2, "Irrelevant", 1),
		fact("A-0", 4, "Assets", 10),
	}

	engine := newEngine(&Config{})
	table, report, err := engine.Reshape(facts, []string{"AssetsNoncurrent", "Assets", "AssetsCurrent", "Assets"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Assets", "AssetsCurrent", "AssetsNoncurrent"}, table.Columns())
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "A-0", table.Rows[0].Key.Adsh)
	assert.Equal(t, "A-1", table.Rows[1].Key.Adsh)
	assert.False(t, table.Get(1, "Assets").Valid, "absent tags must be missing, not zero")
	assert.True(t, table.Get(1, "AssetsCurrent").Decimal.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, 4, report.InputFacts)
	assert.Equal(t, 3, report.RelevantFacts)
	assert.Equal(t, 2, report.Rows)
}

func TestReshapeDropsExactDuplicates(t *testing.T) {
	facts := []*models.Fact{
		fact("A-1", 2, "Assets", 150),
		fact("A-1", 2, "Assets", 150),
	}

	table, report, err := newEngine(&Config{}).Reshape(facts, []string{"Assets"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.DuplicateCount())
	assert.Empty(t, report.AmbiguousFilings)
	assert.True(t, table.Get(0, "Assets").Decimal.Equal(decimal.NewFromInt(150)), "duplicates must not be summed")
}

func TestReshapeDropsAmbiguousFilings(t *testing.T) {
	facts := []*models.Fact{
		fact("A-1", 2, "Assets", 150),
		fact("A-1", 2, "Liabilities", 70),
		fact("A-1", 3, "Assets", 1),
		fact("A-2", 2, "Assets", 150),
		fact("A-2", 2, "Assets", 151),
	}
	facts[4].Version = "us-gaap/2022"

	table, report, err := newEngine(&Config{}).Reshape(facts, []string{"Assets", "Liabilities"})
	require.NoError(t, err)

	require.Len(t, report.AmbiguousFilings, 1)
	assert.Equal(t, "A-2", report.AmbiguousFilings[0].Adsh)
	assert.Equal(t, "Assets", report.AmbiguousFilings[0].Tag)
	assert.Equal(t, []string{"150", "151"}, report.AmbiguousFilings[0].Values)

	require.Equal(t, 2, table.Len())
	for _, row := range table.Rows {
		assert.Equal(t, "A-1", row.Key.Adsh)
	}
}

func TestReshapeNormalizesSign(t *testing.T) {
	negating := fact("A-1", 2, "PaymentsOfDividends", 40)
	negating.Negating = true
	facts := []*models.Fact{negating, fact("A-1", 2, "Assets", 10)}

	table, report, err := newEngine(&Config{NormalizeSign: true}).Reshape(facts, []string{"PaymentsOfDividends", "Assets"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.NegatedFacts)
	assert.True(t, table.Get(0, "PaymentsOfDividends").Decimal.Equal(decimal.NewFromInt(-40)))
	assert.True(t, negating.Value.Decimal.Equal(decimal.NewFromInt(40)), "input fact must not change")

	table, _, err = newEngine(&Config{}).Reshape(facts, []string{"PaymentsOfDividends", "Assets"})
	require.NoError(t, err)
	assert.True(t, table.Get(0, "PaymentsOfDividends").Decimal.Equal(decimal.NewFromInt(40)))
}

func TestReshapeGroupByUnit(t *testing.T) {
	usd := fact("A-1", 2, "Assets", 10)
	eur := fact("A-1", 2, "Assets", 9)
	eur.Unit = "EUR"

	table, report, err := newEngine(&Config{GroupByUnit: true}).Reshape([]*models.Fact{usd, eur}, []string{"Assets"})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Empty(t, report.AmbiguousFilings)

	_, report, err = newEngine(&Config{}).Reshape([]*models.Fact{usd, eur}, []string{"Assets"})
	require.NoError(t, err)
	assert.Len(t, report.AmbiguousFilings, 1)
}

func TestDisambiguationKeepsMostCompleteStatement(t *testing.T) {
	var facts []*models.Fact
	// report 2 carries 4 of 6 main tags, report 5 all 6
	for _, tag := range mainTags[:4] {
		facts = append(facts, fact("A-2", 2, tag, 1))
	}
	for _, tag := range mainTags {
		facts = append(facts, fact("A-2", 5, tag, 2))
	}

	config := &Config{FilterMainStatement: true, MainTags: mainTags}
	table, report, err := newEngine(config).Reshape(facts, mainTags)
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Equal(t, 5, table.Rows[0].Key.Report)
	require.Len(t, report.DroppedStatements, 1)
	assert.Equal(t, 2, report.DroppedStatements[0].Key.Report)
	assert.Equal(t, 2, report.DroppedStatements[0].Missing)
	assert.Equal(t, 0, report.DroppedStatements[0].KeptMissing)
}

func TestDisambiguationTieBreakIsDeterministic(t *testing.T) {
	facts := []*models.Fact{
		fact("A-3", 7, "Assets", 3),
		fact("A-3", 4, "Assets", 2),
		fact("A-3", 9, "Assets", 4),
		models.NewFact("A-3", "Sub", 1, "Assets", 20231231, decimal.NewFromInt(5)),
	}
	config := &Config{FilterMainStatement: true, MainTags: []string{"Assets"}}

	var previous *models.Table
	for run := 0; run < 5; run++ {
		// feed the facts in a different order on every run
		shuffled := append(append([]*models.Fact(nil), facts[run%len(facts):]...), facts[:run%len(facts)]...)
		table, _, err := newEngine(config).Reshape(shuffled, []string{"Assets"})
		require.NoError(t, err)

		require.Equal(t, 2, table.Len(), "one row per filing and co-registrant")
		assert.Equal(t, 9, table.Rows[0].Key.Report, "ties go to the highest report index")
		assert.Equal(t, "Sub", table.Rows[1].Key.Coreg)
		if previous != nil {
			assert.True(t, previous.Equal(table))
		}
		previous = table
	}
}

func TestReshapeConfigurationErrors(t *testing.T) {
	_, _, err := newEngine(&Config{FilterMainStatement: true}).Reshape(nil, []string{"Assets"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, _, err = newEngine(&Config{FilterMainStatement: true, MainTags: []string{"Equity"}}).Reshape(nil, []string{"Assets"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default without filter", Config{}, false},
		{"filter with tags", Config{FilterMainStatement: true, MainTags: []string{"Assets"}}, false},
		{"filter without tags", Config{FilterMainStatement: true}, true},
		{"duplicate tags", Config{MainTags: []string{"Assets", "Assets"}}, true},
		{"empty tag", Config{MainTags: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
