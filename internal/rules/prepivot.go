package rules

import (
	"golang-fact-standardizer/internal/models"
)

// FactRule works on long-form facts before they are reshaped.
// Implementations never modify the facts they receive; changed facts are copies.
type FactRule interface {
	Name() string
	Apply(facts []*models.Fact) (out []*models.Fact, affected int)
}

// PrePivotDeduplicate drops exact duplicate facts.
type PrePivotDeduplicate struct{}

func (PrePivotDeduplicate) Name() string { return "PrePivotDeduplicate" }

func (PrePivotDeduplicate) Apply(facts []*models.Fact) ([]*models.Fact, int) {
	kept, dropped := models.DeduplicateFacts(facts)
	return kept, len(dropped)
}

// PrePivotCorrectSign flips the sign of facts of the listed tags whose sign
// contradicts the expected one.
type PrePivotCorrectSign struct {
	Tags           []string
	ExpectPositive bool
}

// CorrectSign creates a PrePivotCorrectSign rule
func CorrectSign(expectPositive bool, tags ...string) *PrePivotCorrectSign {
	return &PrePivotCorrectSign{Tags: tags, ExpectPositive: expectPositive}
}

func (r *PrePivotCorrectSign) Name() string {
	return describe("PrePivotCorrectSign", r.Tags...)
}

func (r *PrePivotCorrectSign) Apply(facts []*models.Fact) ([]*models.Fact, int) {
	targets := tagSet(r.Tags)
	out := make([]*models.Fact, len(facts))
	affected := 0
	for i, f := range facts {
		out[i] = f
		if !targets[f.Tag] || !f.Value.Valid || f.Value.Decimal.IsZero() {
			continue
		}
		if f.Value.Decimal.IsPositive() == r.ExpectPositive {
			continue
		}
		c := f.Clone()
		c.Value = models.Present(f.Value.Decimal.Neg())
		out[i] = c
		affected++
	}
	return out, affected
}
