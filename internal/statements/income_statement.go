package statements

import (
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
)

// Income statement tags
const (
	Revenues                 = "Revenues"
	CostOfRevenue            = "CostOfRevenue"
	GrossProfit              = "GrossProfit"
	OperatingExpenses        = "OperatingExpenses"
	OperatingIncomeLoss      = "OperatingIncomeLoss"
	NetIncomeLoss            = "NetIncomeLoss"
	NetIncomeNoncontrolling  = "NetIncomeLossAttributableToNoncontrollingInterest"
	ProfitLoss               = "ProfitLoss"
	CostOfGoodsAndServices   = "CostOfGoodsAndServicesSold"
	RevenueFromContracts     = "RevenueFromContractWithCustomerExcludingAssessedTax"
	RevenueFromContractsInTx = "RevenueFromContractWithCustomerIncludingAssessedTax"
)

// IncomeStatement returns the income statement definition.
//
// Costs are expected as positive numbers:
//
//	Revenues = CostOfRevenue + GrossProfit
//	GrossProfit = OperatingExpenses + OperatingIncomeLoss
//	ProfitLoss = NetIncomeLoss + NetIncomeLossAttributableToNoncontrollingInterest
func IncomeStatement() *standardizer.Definition {
	pre := rules.NewGroup("IS",
		rules.PreSumUpCorrection(Revenues, GrossProfit, CostOfRevenue),
	)

	revenues := rules.NewGroup("REV",
		rules.CopyTag(RevenueFromContracts, Revenues),
		rules.CopyTag(RevenueFromContractsInTx, Revenues),
		rules.CopyTag("SalesRevenueNet", Revenues),
		rules.CopyTag(CostOfGoodsAndServices, CostOfRevenue),
		rules.CopyTag("CostOfGoodsSold", CostOfRevenue),
		rules.CopyTag("CostsAndExpenses", OperatingExpenses),
	)

	netIncome := rules.NewGroup("NI",
		rules.CopyTag("NetIncomeLossAvailableToCommonStockholdersBasic", NetIncomeLoss),
		rules.SetSumIfOnlyOneSummand(ProfitLoss, NetIncomeLoss, NetIncomeNoncontrolling),
	)

	completion := rules.NewGroup("SC",
		rules.SumCompletion("GP", Revenues, CostOfRevenue, GrossProfit),
		rules.SumCompletion("OP", GrossProfit, OperatingExpenses, OperatingIncomeLoss),
		rules.SumCompletion("PL", ProfitLoss, NetIncomeLoss, NetIncomeNoncontrolling),
	)

	post := rules.NewGroup("IS",
		rules.PostSetToZero(NetIncomeNoncontrolling),
		rules.MissingSum(ProfitLoss, NetIncomeLoss, NetIncomeNoncontrolling),
		rules.MissingSummand(ProfitLoss, NetIncomeLoss, NetIncomeNoncontrolling),
	)

	return &standardizer.Definition{
		Name: "IS",
		PrePivotRules: []rules.FactRule{
			rules.PrePivotDeduplicate{},
			rules.CorrectSign(true, CostOfRevenue, CostOfGoodsAndServices),
		},
		PreTree:  pre,
		MainTree: rules.NewGroup("IS", revenues, netIncome, completion),
		PostTree: post,
		ValidationRules: []validation.Rule{
			validation.NewSumValidationRule("GrossProfitCheck", Revenues, CostOfRevenue, GrossProfit),
			validation.NewSumValidationRule("OperatingIncomeCheck", GrossProfit, OperatingExpenses, OperatingIncomeLoss),
			validation.NewSumValidationRule("ProfitLossCheck", ProfitLoss, NetIncomeLoss, NetIncomeNoncontrolling),
		},
		FinalTags: []string{
			Revenues, CostOfRevenue, GrossProfit,
			OperatingExpenses, OperatingIncomeLoss,
			NetIncomeLoss, NetIncomeNoncontrolling, ProfitLoss,
		},
		MainTags: []string{
			Revenues, CostOfRevenue, GrossProfit, OperatingIncomeLoss, NetIncomeLoss, ProfitLoss,
		},
	}
}
