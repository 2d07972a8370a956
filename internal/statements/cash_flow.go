package statements

import (
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
)

// Cash flow tags
const (
	NetCashOperating  = "NetCashProvidedByUsedInOperatingActivities"
	NetCashInvesting  = "NetCashProvidedByUsedInInvestingActivities"
	NetCashFinancing  = "NetCashProvidedByUsedInFinancingActivities"
	NetCashContinuing = "NetCashProvidedByUsedInContinuingOperations"

	NetCashOperatingContinuing = "NetCashProvidedByUsedInOperatingActivitiesContinuingOperations"
	NetCashInvestingContinuing = "NetCashProvidedByUsedInInvestingActivitiesContinuingOperations"
	NetCashFinancingContinuing = "NetCashProvidedByUsedInFinancingActivitiesContinuingOperations"

	CashOperatingDiscontinued = "CashProvidedByUsedInOperatingActivitiesDiscontinuedOperations"
	CashInvestingDiscontinued = "CashProvidedByUsedInInvestingActivitiesDiscontinuedOperations"
	CashFinancingDiscontinued = "CashProvidedByUsedInFinancingActivitiesDiscontinuedOperations"
	NetCashDiscontinued       = "NetCashProvidedByUsedInDiscontinuedOperations"

	ExRateContinuing   = "EffectOfExchangeRateOnCashAndCashEquivalentsContinuingOperations"
	ExRateDiscontinued = "EffectOfExchangeRateOnCashAndCashEquivalentsDiscontinuedOperations"
	ExRateFinal        = "EffectOfExchangeRateFinal"

	CashIncDecExcludingExRate = "CashTotalPeriodIncreaseDecreaseExcludingExRateEffect"
	CashIncDecIncludingExRate = "CashTotalPeriodIncreaseDecreaseIncludingExRateEffect"

	exRateCash               = "EffectOfExchangeRateOnCashAndCashEquivalents"
	exRateRestricted         = "EffectOfExchangeRateOnCashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents"
	exRateRestrictedDisposal = "EffectOfExchangeRateOnCashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsDisposalGroupIncludingDiscontinuedOperations"
	exRateRestrictedTotal    = "EffectOfExchangeRateOnCashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsIncludingDisposalGroupAndDiscontinuedOperations"

	cashIncDec                    = "CashAndCashEquivalentsPeriodIncreaseDecrease"
	cashIncDecRestricted          = "CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsPeriodIncreaseDecreaseIncludingExchangeRateEffect"
	cashIncDecExcluding           = "CashAndCashEquivalentsPeriodIncreaseDecreaseExcludingExchangeRateEffect"
	cashIncDecRestrictedExcluding = "CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsPeriodIncreaseDecreaseExcludingExchangeRateEffect"
)

// CashFlow returns the cash flow definition. Net cash of continuing and
// discontinued operations, the exchange-rate effect and the total period
// increase/decrease are derived from the many alternative tags filers use.
func CashFlow() *standardizer.Definition {
	netCash := rules.NewGroup("NETCASH_ExRATE",
		rules.CopyTag(NetCashOperatingContinuing, NetCashOperating),
		rules.CopyTag(NetCashInvestingContinuing, NetCashInvesting),
		rules.CopyTag(NetCashFinancingContinuing, NetCashFinancing),

		rules.CopyTag("EffectOfExchangeRateOnCashContinuingOperations", ExRateContinuing),
		rules.SumUp(NetCashContinuing, NetCashOperating, NetCashInvesting, NetCashFinancing, ExRateContinuing),

		rules.CopyTag("EffectOfExchangeRateOnCashDiscontinuedOperations", ExRateDiscontinued),
		rules.SumUp(NetCashDiscontinued,
			CashOperatingDiscontinued, CashInvestingDiscontinued, CashFinancingDiscontinued, ExRateDiscontinued),

		rules.CopyTag("EffectOfExchangeRateOnCash", exRateCash),
		rules.CopyTag(exRateCash, exRateRestricted),
		rules.SumUp(exRateRestrictedTotal, exRateRestricted, exRateRestrictedDisposal),
		rules.CopyTag(exRateRestrictedTotal, ExRateFinal),
	)

	incDec := rules.NewGroup("INC_DEC",
		rules.CopyTag("CashPeriodIncreaseDecrease", cashIncDec),
		rules.CopyTag(cashIncDec, cashIncDecRestricted),
		rules.CopyTag(cashIncDecRestricted, CashIncDecIncludingExRate),

		rules.CopyTag("CashPeriodIncreaseDecreaseExcludingExchangeRateEffect", cashIncDecExcluding),
		rules.CopyTag(cashIncDecExcluding, cashIncDecRestrictedExcluding),
		rules.CopyTag(cashIncDecRestrictedExcluding, CashIncDecExcludingExRate),
	)

	post := rules.NewGroup("CF",
		rules.PostSetToZero(NetCashOperating),
		rules.PostSetToZero(NetCashInvesting),
		rules.PostSetToZero(NetCashFinancing),
		rules.PostSetToZero(ExRateContinuing),
		rules.PostSetToZero(CashOperatingDiscontinued),
		rules.PostSetToZero(CashInvestingDiscontinued),
		rules.PostSetToZero(CashFinancingDiscontinued),
		rules.PostSetToZero(ExRateDiscontinued),
		rules.PostSetToZero(NetCashDiscontinued),
		rules.PostSetToZero(ExRateFinal),

		rules.MissingSum(NetCashContinuing, NetCashOperating, NetCashInvesting, NetCashFinancing, ExRateContinuing),
		rules.MissingSum(NetCashDiscontinued,
			CashOperatingDiscontinued, CashInvestingDiscontinued, CashFinancingDiscontinued, ExRateDiscontinued),
		rules.MissingSum(CashIncDecIncludingExRate, CashIncDecExcludingExRate, ExRateFinal),
		rules.MissingSum(CashIncDecIncludingExRate, NetCashContinuing, NetCashDiscontinued, ExRateFinal),
	)

	return &standardizer.Definition{
		Name:          "CF",
		PrePivotRules: []rules.FactRule{rules.PrePivotDeduplicate{}},
		MainTree:      rules.NewGroup("CF", netCash, incDec),
		PostTree:      post,
		ValidationRules: []validation.Rule{
			validation.NewSumValidationRule("NetCashContOp", NetCashContinuing,
				NetCashOperating, NetCashFinancing, NetCashInvesting, ExRateContinuing),
			validation.NewSumValidationRule("NetCashDiscontOp", NetCashDiscontinued,
				CashOperatingDiscontinued, CashInvestingDiscontinued, CashFinancingDiscontinued, ExRateDiscontinued),
			validation.NewSumValidationRule("CashIncDecTotal", CashIncDecIncludingExRate,
				NetCashContinuing, NetCashDiscontinued, ExRateFinal),
		},
		FinalTags: []string{
			NetCashOperating,
			NetCashFinancing,
			NetCashInvesting,
			ExRateContinuing,
			NetCashContinuing,
			CashOperatingDiscontinued,
			CashInvestingDiscontinued,
			CashFinancingDiscontinued,
			ExRateDiscontinued,
			NetCashDiscontinued,
			CashIncDecExcludingExRate,
			ExRateFinal,
			CashIncDecIncludingExRate,
		},
		MainTags: []string{
			NetCashOperating,
			NetCashFinancing,
			NetCashInvesting,
			NetCashOperatingContinuing,
			NetCashInvestingContinuing,
			NetCashFinancingContinuing,
			NetCashContinuing,
			NetCashDiscontinued,
			cashIncDecRestricted,
			cashIncDec,
			"CashPeriodIncreaseDecrease",
		},
	}
}
