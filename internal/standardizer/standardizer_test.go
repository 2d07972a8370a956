package standardizer

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/validation"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

func fact(adsh string, report int, tag string, value int64) *models.Fact {
	return models.NewFact(adsh, "", report, tag, 20231231, decimal.NewFromInt(value))
}

// testDefinition completes Assets = AssetsCurrent + AssetsNoncurrent. The
// copy from LiabilitiesAndStockholdersEquity comes after the completion, so
// a row that only has the copy source needs two iterations.
func testDefinition() *Definition {
	return &Definition{
		Name:          "BS",
		PrePivotRules: []rules.FactRule{rules.PrePivotDeduplicate{}},
		MainTree: rules.NewGroup("BS",
			rules.SumCompletion("Ass", "Assets", "AssetsCurrent", "AssetsNoncurrent"),
			rules.CopyTag("LiabilitiesAndStockholdersEquity", "Assets"),
		),
		PostTree: rules.NewGroup("BS", rules.PostSetToZero("InventoryNet")),
		ValidationRules: []validation.Rule{
			validation.NewSumValidationRule("AssetsCheck", "Assets", "AssetsCurrent", "AssetsNoncurrent"),
		},
		FinalTags: []string{"Assets", "AssetsCurrent", "AssetsNoncurrent", "InventoryNet"},
		MainTags:  []string{"Assets", "AssetsCurrent", "AssetsNoncurrent"},
	}
}

func newStandardizer(t *testing.T, config *Config) *Standardizer {
	t.Helper()
	std, err := New(testDefinition(), config)
	require.NoError(t, err)
	return std.WithLogger(logger.NewNopLogger())
}

func configWith(iterations, workers int) *Config {
	config := DefaultConfig()
	config.Iterations = iterations
	config.Workers = workers
	return config
}

func value(t *testing.T, table *models.Table, row int, tag string) string {
	t.Helper()
	return models.FormatValue(table.Get(row, tag))
}

func TestProcessCompletesMissingSum(t *testing.T) {
	std := newStandardizer(t, configWith(1, 1))

	result, err := std.Process(context.Background(), []*models.Fact{
		fact("A-1", 2, "AssetsCurrent", 100),
		fact("A-1", 2, "AssetsNoncurrent", 50),
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, "150", value(t, result.Table, 0, "Assets"))
	assert.Equal(t, []string{"Assets", "AssetsCurrent", "AssetsNoncurrent", "InventoryNet"}, result.Table.Columns())
	assert.Equal(t, "BS", result.Statement)
	assert.NotEmpty(t, result.RunID)
}

func TestProcessCompletesMissingSummand(t *testing.T) {
	std := newStandardizer(t, configWith(1, 1))

	result, err := std.Process(context.Background(), []*models.Fact{
		fact("A-1", 2, "Assets", 150),
		fact("A-1", 2, "AssetsCurrent", 100),
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, "50", value(t, result.Table, 0, "AssetsNoncurrent"))
	assert.Equal(t, 0, result.Validation.DiscrepancyCount())
}

func TestProcessKeepsMainStatement(t *testing.T) {
	std := newStandardizer(t, configWith(1, 1))

	result, err := std.Process(context.Background(), []*models.Fact{
		fact("A-2", 3, "AssetsCurrent", 7),
		fact("A-2", 5, "Assets", 150),
		fact("A-2", 5, "AssetsCurrent", 100),
		fact("A-2", 5, "AssetsNoncurrent", 50),
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.Table.Len())
	assert.Equal(t, 5, result.Table.Rows[0].Key.Report)
	require.Len(t, result.Pivot.DroppedStatements, 1)
	assert.Equal(t, 3, result.Pivot.DroppedStatements[0].Key.Report)
}

func TestIterationsResolveLaterRules(t *testing.T) {
	std := newStandardizer(t, configWith(3, 1))

	result, err := std.Process(context.Background(), []*models.Fact{
		fact("A-1", 2, "LiabilitiesAndStockholdersEquity", 150),
		fact("A-1", 2, "AssetsCurrent", 100),
	})
	require.NoError(t, err)

	assert.Equal(t, "150", value(t, result.Table, 0, "Assets"))
	assert.Equal(t, "50", value(t, result.Table, 0, "AssetsNoncurrent"))

	noncurrent, ok := result.Statistics.Tag("AssetsNoncurrent")
	require.True(t, ok)
	assert.Equal(t, 1, noncurrent.Pre)
	assert.Equal(t, []int{1, 0, 0}, noncurrent.Post)
	assert.Equal(t, 0, noncurrent.Cleanup)

	fired := result.AuditLog.FiredInRow(0)
	assert.Contains(t, fired, "MAIN_0_BS_#1_CopyTag_LiabilitiesAndStockholdersEquity_Assets")
	assert.Contains(t, fired, "MAIN_1_BS_Ass_#2_MissingSummand_AssetsNoncurrent")
}

func TestStatisticsAndCleanup(t *testing.T) {
	std := newStandardizer(t, configWith(2, 1))

	result, err := std.Process(context.Background(), []*models.Fact{
		fact("A-1", 2, "AssetsCurrent", 100),
		fact("A-1", 2, "AssetsNoncurrent", 50),
		fact("A-3", 1, "Assets", 10),
		fact("A-3", 1, "InventoryNet", 4),
	})
	require.NoError(t, err)

	stats := result.Statistics
	require.Equal(t, 2, stats.Rows)

	assets, ok := stats.Tag("Assets")
	require.True(t, ok)
	assert.Equal(t, 1, assets.Pre)
	assert.Equal(t, []int{0, 0}, assets.Post)

	// zero defaults only show up in the cleanup column
	inventory, ok := stats.Tag("InventoryNet")
	require.True(t, ok)
	assert.Equal(t, 1, inventory.Pre)
	assert.Equal(t, []int{1, 1}, inventory.Post)
	assert.Equal(t, 0, inventory.Cleanup)

	for _, ts := range stats.Tags {
		previous := ts.Pre
		for _, post := range ts.Post {
			assert.LessOrEqual(t, post, previous, ts.Tag)
			previous = post
		}
	}

	assert.Equal(t, []string{
		"pre",
		"post_0", "post_0_rel", "post_0_red",
		"post_1", "post_1_rel", "post_1_red",
		"cleanup", "cleanup_rel", "cleanup_red",
	}, stats.Columns())
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0, 1, 0, 0, 1}, stats.Values(assets))
	assert.Equal(t, []float64{1, 1, 0.5, 0, 1, 0.5, 0, 0, 0, 1}, stats.Values(inventory))
}

func TestReduction(t *testing.T) {
	assert.Equal(t, 0.0, Reduction(0, 0))
	assert.Equal(t, 1.0, Reduction(4, 0))
	assert.Equal(t, 0.75, Reduction(4, 1))
}

func TestShardCountDoesNotChangeResult(t *testing.T) {
	var facts []*models.Fact
	for i := 0; i < 40; i++ {
		adsh := fmt.Sprintf("A-%03d", i)
		switch i % 4 {
		case 0:
			facts = append(facts, fact(adsh, 2, "AssetsCurrent", int64(i)), fact(adsh, 2, "AssetsNoncurrent", 5))
		case 1:
			facts = append(facts, fact(adsh, 2, "Assets", int64(i*10)), fact(adsh, 2, "AssetsCurrent", int64(i)))
		case 2:
			facts = append(facts, fact(adsh, 2, "LiabilitiesAndStockholdersEquity", 90), fact(adsh, 2, "AssetsNoncurrent", 30))
			facts = append(facts, fact(adsh, 4, "AssetsCurrent", 1))
		default:
			facts = append(facts, fact(adsh, 1, "Assets", 10), fact(adsh, 1, "AssetsCurrent", 3), fact(adsh, 1, "AssetsNoncurrent", 3))
		}
	}

	single, err := newStandardizer(t, configWith(3, 1)).Process(context.Background(), facts)
	require.NoError(t, err)
	sharded, err := newStandardizer(t, configWith(3, 4)).Process(context.Background(), facts)
	require.NoError(t, err)

	assert.Equal(t, 1, single.Shards)
	assert.Greater(t, sharded.Shards, 1)
	assert.True(t, single.Table.Equal(sharded.Table))
	if diff := cmp.Diff(single.Contributions, sharded.Contributions); diff != "" {
		t.Errorf("contributions differ (-single +sharded):\n%s", diff)
	}
	if diff := cmp.Diff(single.Statistics, sharded.Statistics); diff != "" {
		t.Errorf("statistics differ (-single +sharded):\n%s", diff)
	}
	assert.Equal(t, single.Validation.DiscrepancyCount(), sharded.Validation.DiscrepancyCount())
	assert.Equal(t, 10, single.Validation.DiscrepancyCount())
}

func TestSplitByFilingKeepsFilingsTogether(t *testing.T) {
	table := models.NewTable([]string{"Assets"})
	for _, adsh := range []string{"A", "A", "A", "B", "C", "C"} {
		table.AddRow(models.GroupKey{Adsh: adsh, Report: table.Len(), Date: 20231231})
	}

	shards := splitByFiling(table, 3)
	require.Len(t, shards, 2)
	assert.Equal(t, 3, shards[0].table.Len())
	assert.Equal(t, 3, shards[1].table.Len())

	assert.Equal(t, "A", shards[0].table.Rows[2].Key.Adsh)
	assert.Equal(t, "B", shards[1].table.Rows[0].Key.Adsh)
	assert.Equal(t, 3, shards[1].log.Rows())
	assert.Len(t, splitByFiling(models.NewTable(nil), 4), 1)
}

func TestProgressStages(t *testing.T) {
	std := newStandardizer(t, configWith(2, 1))

	var stages []string
	std.AddProgressCallback(func(p *Progress) {
		if p.Stage == StageIterating {
			stages = append(stages, fmt.Sprintf("%s(%d)", p.Stage, p.Iteration))
			return
		}
		stages = append(stages, string(p.Stage))
	})

	_, err := std.Process(context.Background(), []*models.Fact{fact("A-1", 2, "Assets", 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"idle", "reshaped", "iterating(1)", "iterating(2)", "cleaned_up", "validated", "done"}, stages)
}

func TestProcessHonoursCancellation(t *testing.T) {
	std := newStandardizer(t, configWith(3, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := std.Process(ctx, []*models.Fact{fact("A-1", 2, "Assets", 1)})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStandardization))
}

func TestProcessDoesNotModifyFacts(t *testing.T) {
	std := newStandardizer(t, configWith(3, 1))
	facts := []*models.Fact{
		fact("A-1", 2, "AssetsCurrent", 100),
		fact("A-1", 2, "AssetsCurrent", 100),
	}
	before := []*models.Fact{facts[0].Clone(), facts[1].Clone()}

	result, err := std.Process(context.Background(), facts)
	require.NoError(t, err)
	assert.Equal(t, before, facts)
	require.Len(t, result.PrePivot, 1)
	assert.Equal(t, FactRuleEffect{Rule: "PrePivotDeduplicate", Affected: 1}, result.PrePivot[0])
}

func TestNewRejectsInconsistentDefinition(t *testing.T) {
	definition := testDefinition()
	definition.ValidationRules = append(definition.ValidationRules,
		validation.NewSumValidationRule("Bad", "Liabilities", "LiabilitiesCurrent"))

	_, err := New(definition, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = New(testDefinition(), configWith(0, 1))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestDefinitionExpectedTags(t *testing.T) {
	assert.Equal(t, []string{
		"Assets", "AssetsCurrent", "AssetsNoncurrent", "InventoryNet", "LiabilitiesAndStockholdersEquity",
	}, testDefinition().ExpectedTags())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"no iterations", configWith(0, 1), true},
		{"too many iterations", configWith(21, 1), true},
		{"no workers", configWith(3, 0), true},
		{"bad tolerance", &Config{Iterations: 1, Workers: 1, Tolerance: validation.Tolerance{Absolute: decimal.NewFromInt(-1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
