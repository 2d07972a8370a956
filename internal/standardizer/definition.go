package standardizer

import (
	"fmt"
	"sort"

	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/validation"
)

// Definition describes how one statement type is standardized. Definitions
// are immutable once built and can be shared between runs.
type Definition struct {
	// Name is the statement code, e.g. BS, IS or CF.
	Name string

	// PrePivotRules run on the long-form facts before reshaping.
	PrePivotRules []rules.FactRule

	// PreTree runs once before the main iterations. It may correct values.
	PreTree rules.Entity

	// MainTree runs once per iteration.
	MainTree rules.Entity

	// PostTree runs once after the iterations, typically zero defaults.
	PostTree rules.Entity

	// ValidationRules are checked against the projected table.
	ValidationRules []validation.Rule

	// FinalTags are the columns of the standardized table, in order.
	FinalTags []string

	// MainTags decide which competing statement row is kept.
	MainTags []string
}

func (d *Definition) trees() []namedTree {
	return []namedTree{
		{"pre rule tree", d.PreTree},
		{"main rule tree", d.MainTree},
		{"post rule tree", d.PostTree},
	}
}

type namedTree struct {
	name string
	tree rules.Entity
}

// ExpectedTags returns every tag the reshape has to produce: the tags of all
// rule trees, the final tags and the main tags.
func (d *Definition) ExpectedTags() []string {
	set := make(map[string]bool)
	for _, t := range d.trees() {
		if t.tree == nil {
			continue
		}
		for _, tag := range t.tree.InputTags() {
			set[tag] = true
		}
	}
	for _, tag := range d.FinalTags {
		set[tag] = true
	}
	for _, tag := range d.MainTags {
		set[tag] = true
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Validate checks the internal consistency of the definition
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("definition name cannot be empty")
	}
	if d.MainTree == nil {
		return fmt.Errorf("definition %s has no main rule tree", d.Name)
	}
	if len(d.FinalTags) == 0 {
		return fmt.Errorf("definition %s has no final tags", d.Name)
	}

	final := make(map[string]bool, len(d.FinalTags))
	for _, tag := range d.FinalTags {
		if final[tag] {
			return fmt.Errorf("definition %s lists final tag %s twice", d.Name, tag)
		}
		final[tag] = true
	}

	ids := make(map[string]bool)
	for _, rule := range d.ValidationRules {
		if ids[rule.ID()] {
			return fmt.Errorf("definition %s has duplicate validation rule %s", d.Name, rule.ID())
		}
		ids[rule.ID()] = true
		for _, tag := range rule.Tags() {
			if !final[tag] {
				return fmt.Errorf("validation rule %s uses %s which is not a final tag", rule.ID(), tag)
			}
		}
	}
	return nil
}
