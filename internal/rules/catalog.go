package rules

import (
	"github.com/shopspring/decimal"

	"golang-fact-standardizer/internal/models"
)

// CopyTagRule copies Original into TargetTag where TargetTag is missing.
type CopyTagRule struct {
	Original  string
	TargetTag string
}

// CopyTag creates a CopyTagRule
func CopyTag(original, target string) *CopyTagRule {
	return &CopyTagRule{Original: original, TargetTag: target}
}

func (r *CopyTagRule) isEntity()      {}
func (r *CopyTagRule) Target() string { return r.TargetTag }
func (r *CopyTagRule) Name() string   { return describe("CopyTag", r.Original, r.TargetTag) }

func (r *CopyTagRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Original, r.TargetTag}))
}

func (r *CopyTagRule) Eligible(v models.RowView) bool {
	return !v.Has(r.TargetTag) && v.Has(r.Original)
}

func (r *CopyTagRule) Apply(v models.RowView) {
	v.Set(r.TargetTag, v.Get(r.Original))
}

// SumUpRule sets Sum to the total of whichever summands are present.
type SumUpRule struct {
	Sum      string
	Summands []string
}

// SumUp creates a SumUpRule
func SumUp(sum string, summands ...string) *SumUpRule {
	return &SumUpRule{Sum: sum, Summands: summands}
}

func (r *SumUpRule) isEntity()      {}
func (r *SumUpRule) Target() string { return r.Sum }
func (r *SumUpRule) Name() string   { return describe("SumUp", r.Sum) }

func (r *SumUpRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Sum}, r.Summands))
}

func (r *SumUpRule) Eligible(v models.RowView) bool {
	return !v.Has(r.Sum) && anyPresent(v, r.Summands)
}

func (r *SumUpRule) Apply(v models.RowView) {
	total := decimal.Zero
	for _, tag := range r.Summands {
		if val := v.Get(tag); val.Valid {
			total = total.Add(val.Decimal)
		}
	}
	v.Set(r.Sum, models.Present(total))
}

// MissingSumRule sets Sum when all summands are present.
type MissingSumRule struct {
	Sum      string
	Summands []string
}

// MissingSum creates a MissingSumRule
func MissingSum(sum string, summands ...string) *MissingSumRule {
	return &MissingSumRule{Sum: sum, Summands: summands}
}

func (r *MissingSumRule) isEntity()      {}
func (r *MissingSumRule) Target() string { return r.Sum }
func (r *MissingSumRule) Name() string   { return describe("MissingSum", r.Sum) }

func (r *MissingSumRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Sum}, r.Summands))
}

func (r *MissingSumRule) Eligible(v models.RowView) bool {
	return !v.Has(r.Sum) && len(r.Summands) > 0 && allPresent(v, r.Summands)
}

func (r *MissingSumRule) Apply(v models.RowView) {
	v.Set(r.Sum, models.Present(sum(v, r.Summands)))
}

// MissingSummandRule back-solves one summand from the sum and the other summands.
type MissingSummandRule struct {
	Sum            string
	MissingSummand string
	OtherSummands  []string
}

// MissingSummand creates a MissingSummandRule
func MissingSummand(sum, missing string, others ...string) *MissingSummandRule {
	return &MissingSummandRule{Sum: sum, MissingSummand: missing, OtherSummands: others}
}

func (r *MissingSummandRule) isEntity()      {}
func (r *MissingSummandRule) Target() string { return r.MissingSummand }
func (r *MissingSummandRule) Name() string   { return describe("MissingSummand", r.MissingSummand) }

func (r *MissingSummandRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Sum, r.MissingSummand}, r.OtherSummands))
}

func (r *MissingSummandRule) Eligible(v models.RowView) bool {
	return v.Has(r.Sum) && allPresent(v, r.OtherSummands) && !v.Has(r.MissingSummand)
}

func (r *MissingSummandRule) Apply(v models.RowView) {
	v.Set(r.MissingSummand, models.Present(v.Get(r.Sum).Decimal.Sub(sum(v, r.OtherSummands))))
}

// SetSumIfOnlyOneSummandRule copies SummandSet into Sum when the other
// summands are all missing, treating them as zero.
type SetSumIfOnlyOneSummandRule struct {
	Sum         string
	SummandSet  string
	SummandsNaN []string
}

// SetSumIfOnlyOneSummand creates a SetSumIfOnlyOneSummandRule
func SetSumIfOnlyOneSummand(sum, set string, nan ...string) *SetSumIfOnlyOneSummandRule {
	return &SetSumIfOnlyOneSummandRule{Sum: sum, SummandSet: set, SummandsNaN: nan}
}

func (r *SetSumIfOnlyOneSummandRule) isEntity()      {}
func (r *SetSumIfOnlyOneSummandRule) Target() string { return r.Sum }
func (r *SetSumIfOnlyOneSummandRule) Name() string {
	return describe("SetSumIfOnlyOneSummand", r.Sum, r.SummandSet)
}

func (r *SetSumIfOnlyOneSummandRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Sum, r.SummandSet}, r.SummandsNaN))
}

func (r *SetSumIfOnlyOneSummandRule) Eligible(v models.RowView) bool {
	return !v.Has(r.Sum) && v.Has(r.SummandSet) && !anyPresent(v, r.SummandsNaN)
}

func (r *SetSumIfOnlyOneSummandRule) Apply(v models.RowView) {
	v.Set(r.Sum, v.Get(r.SummandSet))
}

// PostCopyToFirstSummandRule is a cleanup fallback: when the other summands
// are zero or missing the whole sum belongs to the first summand.
type PostCopyToFirstSummandRule struct {
	Sum           string
	FirstSummand  string
	OtherSummands []string
}

// PostCopyToFirstSummand creates a PostCopyToFirstSummandRule
func PostCopyToFirstSummand(sum, first string, others ...string) *PostCopyToFirstSummandRule {
	return &PostCopyToFirstSummandRule{Sum: sum, FirstSummand: first, OtherSummands: others}
}

func (r *PostCopyToFirstSummandRule) isEntity()      {}
func (r *PostCopyToFirstSummandRule) Target() string { return r.FirstSummand }
func (r *PostCopyToFirstSummandRule) Name() string {
	return describe("PostCopyToFirstSummand", r.Sum, r.FirstSummand)
}

func (r *PostCopyToFirstSummandRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Sum, r.FirstSummand}, r.OtherSummands))
}

func (r *PostCopyToFirstSummandRule) Eligible(v models.RowView) bool {
	if v.Has(r.FirstSummand) || !v.Has(r.Sum) {
		return false
	}
	for _, tag := range r.OtherSummands {
		if val := v.Get(tag); val.Valid && !val.Decimal.IsZero() {
			return false
		}
	}
	return true
}

func (r *PostCopyToFirstSummandRule) Apply(v models.RowView) {
	v.Set(r.FirstSummand, v.Get(r.Sum))
}

// PostSetToZeroRule sets a still missing tag to zero.
type PostSetToZeroRule struct {
	Tag string
}

// PostSetToZero creates one zero default per tag. A single tag yields the
// rule itself, several tags a group of rules.
func PostSetToZero(tags ...string) Entity {
	if len(tags) == 1 {
		return &PostSetToZeroRule{Tag: tags[0]}
	}
	group := &Group{}
	for _, tag := range tags {
		group.Rules = append(group.Rules, &PostSetToZeroRule{Tag: tag})
	}
	return group
}

func (r *PostSetToZeroRule) isEntity()           {}
func (r *PostSetToZeroRule) Target() string      { return r.Tag }
func (r *PostSetToZeroRule) Name() string        { return describe("PostSetToZero", r.Tag) }
func (r *PostSetToZeroRule) InputTags() []string { return []string{r.Tag} }

func (r *PostSetToZeroRule) Eligible(v models.RowView) bool {
	return !v.Has(r.Tag)
}

func (r *PostSetToZeroRule) Apply(v models.RowView) {
	v.Set(r.Tag, models.Present(decimal.Zero))
}

// PreSumUpCorrectionRule repairs filings that tagged a total as one of its
// summands and that summand as the total. The pattern is recognised when
// MixedUp == Sum + Other; the values of Sum and MixedUp are then swapped.
// This rule overwrites present values and belongs in pre trees only.
type PreSumUpCorrectionRule struct {
	Sum     string
	MixedUp string
	Other   string
}

// PreSumUpCorrection creates a PreSumUpCorrectionRule
func PreSumUpCorrection(sum, mixedUp, other string) *PreSumUpCorrectionRule {
	return &PreSumUpCorrectionRule{Sum: sum, MixedUp: mixedUp, Other: other}
}

func (r *PreSumUpCorrectionRule) isEntity()      {}
func (r *PreSumUpCorrectionRule) Target() string { return r.Sum }
func (r *PreSumUpCorrectionRule) Name() string {
	return describe("PreSumUpCorrection", r.Sum, r.MixedUp)
}

func (r *PreSumUpCorrectionRule) InputTags() []string {
	return sortedTags(tagSet([]string{r.Sum, r.MixedUp, r.Other}))
}

func (r *PreSumUpCorrectionRule) Eligible(v models.RowView) bool {
	if !allPresent(v, []string{r.Sum, r.MixedUp, r.Other}) {
		return false
	}
	// a zero Other makes both orderings satisfy the pattern
	if v.Get(r.Other).Decimal.IsZero() {
		return false
	}
	return v.Get(r.MixedUp).Decimal.Equal(v.Get(r.Sum).Decimal.Add(v.Get(r.Other).Decimal))
}

func (r *PreSumUpCorrectionRule) Apply(v models.RowView) {
	total := v.Get(r.MixedUp)
	v.Set(r.MixedUp, v.Get(r.Sum))
	v.Set(r.Sum, total)
}

// SumCompletion builds the group that completes sum = summand_1 + ... + summand_n
// whenever all but one of the quantities are known.
func SumCompletion(prefix, sum string, summands ...string) *Group {
	group := NewGroup(prefix, MissingSum(sum, summands...))
	for i, missing := range summands {
		others := make([]string, 0, len(summands)-1)
		others = append(others, summands[:i]...)
		others = append(others, summands[i+1:]...)
		group.Rules = append(group.Rules, MissingSummand(sum, missing, others...))
	}
	return group
}

func allPresent(v models.RowView, tags []string) bool {
	for _, tag := range tags {
		if !v.Has(tag) {
			return false
		}
	}
	return true
}

func anyPresent(v models.RowView, tags []string) bool {
	for _, tag := range tags {
		if v.Has(tag) {
			return true
		}
	}
	return false
}

func sum(v models.RowView, tags []string) decimal.Decimal {
	total := decimal.Zero
	for _, tag := range tags {
		total = total.Add(v.Get(tag).Decimal)
	}
	return total
}
