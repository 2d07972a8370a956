package statements

import (
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
)

// Balance sheet tags
const (
	Assets                           = "Assets"
	AssetsCurrent                    = "AssetsCurrent"
	AssetsNoncurrent                 = "AssetsNoncurrent"
	Liabilities                      = "Liabilities"
	LiabilitiesCurrent               = "LiabilitiesCurrent"
	LiabilitiesNoncurrent            = "LiabilitiesNoncurrent"
	Equity                           = "Equity"
	LiabilitiesAndStockholdersEquity = "LiabilitiesAndStockholdersEquity"
	InventoryNet                     = "InventoryNet"
	Cash                             = "Cash"
	CashOther                        = "CashOther"
	RetainedEarnings                 = "RetainedEarnings"
)

// BalanceSheet returns the balance sheet definition.
//
// Final tags:
//
//	Assets = AssetsCurrent + AssetsNoncurrent
//	Liabilities = LiabilitiesCurrent + LiabilitiesNoncurrent
//	LiabilitiesAndStockholdersEquity = Liabilities + Equity
//	InventoryNet, Cash, CashOther, RetainedEarnings
//
// The definition is tuned for the main statement of a filing, not for
// co-registrant statements.
func BalanceSheet() *standardizer.Definition {
	renames := rules.NewGroup("BR",
		rules.CopyTag("AssetsNet", Assets),
		rules.CopyTag("StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest", Equity),
		rules.CopyTag("PartnersCapital", Equity),
		rules.CopyTag("StockholdersEquity", Equity),
		rules.CopyTag("CashAndCashEquivalentsAtCarryingValue", Cash),
		rules.CopyTag("RetainedEarningsAppropriated", RetainedEarnings),
		rules.CopyTag("RetainedEarningsAccumulatedDeficit", RetainedEarnings),
	)

	sumUps := rules.NewGroup("SU",
		rules.SumUp(CashOther,
			"CashAndCashEquivalentsAtFairValue",
			"CashAndDueFromBanks",
			"CashCashEquivalentsAndFederalFundsSold",
			"RestrictedCashAndCashEquivalentsAtCarryingValue",
			"CashAndCashEquivalentsInForeignCurrencyAtCarryingValue",
		),
	)

	// total assets and total liabilities and equity are the same number
	// but filers often tag only one of them
	balance := rules.NewGroup("BAL",
		rules.CopyTag(LiabilitiesAndStockholdersEquity, Assets),
		rules.CopyTag(Assets, LiabilitiesAndStockholdersEquity),
	)

	completion := rules.NewGroup("SC",
		rules.SumCompletion("Ass", Assets, AssetsCurrent, AssetsNoncurrent),
		rules.SumCompletion("Lia", Liabilities, LiabilitiesCurrent, LiabilitiesNoncurrent),
		rules.SumCompletion("LaSE", LiabilitiesAndStockholdersEquity, Liabilities, Equity),
	)

	post := rules.NewGroup("BS",
		rules.PostCopyToFirstSummand(Assets, AssetsCurrent, AssetsNoncurrent),
		rules.PostCopyToFirstSummand(Liabilities, LiabilitiesCurrent, LiabilitiesNoncurrent),
		rules.CopyTag(CashOther, Cash),
		rules.PostSetToZero(AssetsNoncurrent, LiabilitiesNoncurrent, InventoryNet),
	)

	return &standardizer.Definition{
		Name:          "BS",
		PrePivotRules: []rules.FactRule{rules.PrePivotDeduplicate{}},
		MainTree:      rules.NewGroup("BS", renames, sumUps, balance, completion),
		PostTree:      post,
		ValidationRules: []validation.Rule{
			validation.NewSumValidationRule("AssetsCheck", Assets, AssetsCurrent, AssetsNoncurrent),
			validation.NewSumValidationRule("LiabilitiesCheck", Liabilities, LiabilitiesCurrent, LiabilitiesNoncurrent),
			validation.NewSumValidationRule("EquityCheck", LiabilitiesAndStockholdersEquity, Liabilities, Equity),
		},
		FinalTags: []string{
			Assets, AssetsCurrent, AssetsNoncurrent,
			Liabilities, LiabilitiesCurrent, LiabilitiesNoncurrent,
			Equity,
			LiabilitiesAndStockholdersEquity,
			InventoryNet,
			Cash,
			CashOther,
			RetainedEarnings,
		},
		MainTags: []string{
			Assets, AssetsCurrent, AssetsNoncurrent,
			Liabilities, LiabilitiesCurrent, LiabilitiesNoncurrent,
		},
	}
}
