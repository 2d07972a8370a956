package statements

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/pkg/logger"
)

func fact(tag string, value int64) *models.Fact {
	return models.NewFact("A-1", "", 2, tag, 20231231, decimal.NewFromInt(value))
}

func run(t *testing.T, definition *standardizer.Definition, facts ...*models.Fact) *standardizer.Result {
	t.Helper()
	std, err := standardizer.New(definition, standardizer.DefaultConfig())
	require.NoError(t, err)
	result, err := std.WithLogger(logger.NewNopLogger()).Process(context.Background(), facts)
	require.NoError(t, err)
	require.Equal(t, 1, result.Table.Len())
	return result
}

func get(result *standardizer.Result, tag string) string {
	return models.FormatValue(result.Table.Get(0, tag))
}

func TestDefinitionsAreConsistent(t *testing.T) {
	for _, code := range Codes() {
		t.Run(code, func(t *testing.T) {
			definition, err := Lookup(code)
			require.NoError(t, err)
			require.NoError(t, definition.Validate())

			expected := make(map[string]bool)
			for _, tag := range definition.ExpectedTags() {
				expected[tag] = true
			}
			for _, tag := range definition.MainTags {
				assert.True(t, expected[tag], "main tag %s", tag)
			}

			// rule ids must be unique within every pass
			for _, tree := range []rules.Entity{definition.PreTree, definition.MainTree, definition.PostTree} {
				if tree == nil {
					continue
				}
				seen := make(map[string]bool)
				for _, id := range rules.RuleIDs(tree, "MAIN_0") {
					assert.False(t, seen[id], "duplicate rule id %s", id)
					seen[id] = true
				}
			}
		})
	}
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"bs", "cf", "is"}, Codes())

	definition, err := Lookup(" Cf ")
	require.NoError(t, err)
	assert.Equal(t, "CF", definition.Name)

	_, err = Lookup("xx")
	assert.Error(t, err)

	// every lookup builds an independent definition
	a, _ := Lookup("bs")
	b, _ := Lookup("bs")
	a.FinalTags[0] = "changed"
	assert.Equal(t, Assets, b.FinalTags[0])
}

func TestBalanceSheet(t *testing.T) {
	result := run(t, BalanceSheet(),
		fact("AssetsNet", 150),
		fact(AssetsCurrent, 100),
		fact(Liabilities, 60),
		fact(LiabilitiesCurrent, 40),
		fact("StockholdersEquity", 90),
		fact("CashAndDueFromBanks", 5),
		fact("CashAndCashEquivalentsInForeignCurrencyAtCarryingValue", 2),
	)

	assert.Equal(t, "150", get(result, Assets))
	assert.Equal(t, "50", get(result, AssetsNoncurrent))
	assert.Equal(t, "20", get(result, LiabilitiesNoncurrent))
	assert.Equal(t, "90", get(result, Equity))
	assert.Equal(t, "150", get(result, LiabilitiesAndStockholdersEquity))
	assert.Equal(t, "7", get(result, CashOther))
	assert.Equal(t, "7", get(result, Cash))
	assert.Equal(t, "0", get(result, InventoryNet))
	assert.Equal(t, "", get(result, RetainedEarnings))
	assert.Equal(t, 0, result.Validation.DiscrepancyCount())
}

func TestBalanceSheetCopiesTotalToFirstSummand(t *testing.T) {
	result := run(t, BalanceSheet(), fact(Assets, 80))

	assert.Equal(t, "80", get(result, AssetsCurrent))
	assert.Equal(t, "0", get(result, AssetsNoncurrent))
	assert.Equal(t, "80", get(result, LiabilitiesAndStockholdersEquity))
}

func TestIncomeStatement(t *testing.T) {
	result := run(t, IncomeStatement(),
		fact(Revenues, 40),
		fact(GrossProfit, 100),
		fact(CostOfRevenue, -60),
		fact(OperatingIncomeLoss, 15),
		fact(NetIncomeLoss, 10),
	)

	assert.Equal(t, "100", get(result, Revenues))
	assert.Equal(t, "60", get(result, CostOfRevenue))
	assert.Equal(t, "40", get(result, GrossProfit))
	assert.Equal(t, "25", get(result, OperatingExpenses))
	assert.Equal(t, "10", get(result, ProfitLoss))
	assert.Equal(t, "0", get(result, NetIncomeNoncontrolling))
	assert.Equal(t, 0, result.Validation.DiscrepancyCount())

	assert.Contains(t, result.AuditLog.FiredInRow(0), "PRE_IS_#0_PreSumUpCorrection_Revenues_GrossProfit")
	assert.Equal(t, []standardizer.FactRuleEffect{
		{Rule: "PrePivotDeduplicate", Affected: 0},
		{Rule: "PrePivotCorrectSign_CostOfRevenue_CostOfGoodsAndServicesSold", Affected: 1},
	}, result.PrePivot)
}

func TestCashFlow(t *testing.T) {
	result := run(t, CashFlow(),
		fact(NetCashOperatingContinuing, 100),
		fact(NetCashInvesting, -30),
		fact(NetCashFinancing, -20),
		fact("EffectOfExchangeRateOnCash", 5),
		fact("CashPeriodIncreaseDecrease", 55),
	)

	assert.Equal(t, "100", get(result, NetCashOperating))
	assert.Equal(t, "50", get(result, NetCashContinuing))
	assert.Equal(t, "5", get(result, ExRateFinal))
	assert.Equal(t, "55", get(result, CashIncDecIncludingExRate))
	assert.Equal(t, "0", get(result, NetCashDiscontinued))
	assert.Equal(t, "0", get(result, ExRateContinuing))
	assert.Equal(t, "", get(result, CashIncDecExcludingExRate))
	assert.Equal(t, 0, result.Validation.DiscrepancyCount())
	require.Len(t, result.Validation.Rules, 3)
	assert.Equal(t, "NetCashContOp", result.Validation.Rules[0].RuleID)
}
