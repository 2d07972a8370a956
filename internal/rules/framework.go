// Package rules provides the declarative rule tree used to fill missing values
// of standardized statements.
//
// A rule tree is built from a closed set of rule kinds (see catalog.go) nested
// in prefixed groups:
//
//	tree := rules.NewGroup("BS",
//		rules.CopyTag("AssetsNet", "Assets"),
//		rules.SumCompletion("ASSETS", "Assets", "AssetsCurrent", "AssetsNoncurrent"),
//	)
//
//	log := rules.NewAuditLog(table.Len())
//	if err := tree.Process(table, log, "MAIN_1"); err != nil {
//		return err
//	}
//
// Trees are immutable values: rule identifiers used in the audit log are derived
// while walking the tree, so one tree can be shared by concurrent runs.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/pkg/errors"
)

// Entity is a node of a rule tree: either a Rule or a Group.
type Entity interface {
	// InputTags returns every tag the entity reads or writes, sorted.
	InputTags() []string
	isEntity()
}

// Rule fills one target tag in the rows where it is eligible.
//
// Eligible must be false whenever the target already holds a value, so that
// applying a rule twice has the same effect as applying it once. The only
// exception is PreSumUpCorrectionRule, which is meant for pre trees.
type Rule interface {
	Entity
	Target() string
	Name() string
	Eligible(v models.RowView) bool
	Apply(v models.RowView)
}

// Group is an ordered, prefixed composition of rules and groups.
// Children are applied in declaration order and every child observes the
// writes of its earlier siblings.
type Group struct {
	Prefix string
	Rules  []Entity
}

// NewGroup creates a group
func NewGroup(prefix string, rules ...Entity) *Group {
	return &Group{Prefix: prefix, Rules: rules}
}

func (g *Group) isEntity() {}

// InputTags returns the union of the children's tags
func (g *Group) InputTags() []string {
	set := make(map[string]bool)
	for _, child := range g.Rules {
		for _, tag := range child.InputTags() {
			set[tag] = true
		}
	}
	return sortedTags(set)
}

// Process applies the group to table, see Process
func (g *Group) Process(table *models.Table, log *AuditLog, idPrefix string) error {
	return Process(table, g, log, idPrefix)
}

// Walk visits every rule of e in application order together with its
// path-qualified identifier, e.g. MAIN_2_BS_ASSETS_#1_MissingSummand_AssetsCurrent.
func Walk(e Entity, idPrefix string, fn func(id string, r Rule)) {
	switch n := e.(type) {
	case *Group:
		path := joinID(idPrefix, n.Prefix)
		for i, child := range n.Rules {
			if r, ok := child.(Rule); ok {
				fn(joinID(path, fmt.Sprintf("#%d_%s", i, r.Name())), r)
				continue
			}
			Walk(child, path, fn)
		}
	case Rule:
		fn(joinID(idPrefix, n.Name()), n)
	}
}

// RuleIDs lists the identifiers Walk assigns below idPrefix
func RuleIDs(e Entity, idPrefix string) []string {
	var ids []string
	Walk(e, idPrefix, func(id string, _ Rule) {
		ids = append(ids, id)
	})
	return ids
}

// CheckColumns fails with a configuration error when e references tags that
// are not columns of table.
func CheckColumns(table *models.Table, e Entity, name string) error {
	if missing := table.MissingColumns(e.InputTags()); len(missing) > 0 {
		return errors.ConfigurationError(errors.CodeUnknownTag, name, missing, nil)
	}
	return nil
}

// Process applies e to every row of table. For each rule the eligibility mask
// is computed over all rows before any write, then the write is applied to
// the masked rows and recorded in log under the rule's identifier.
//
// Nothing is written if e references a tag absent from table.
func Process(table *models.Table, e Entity, log *AuditLog, idPrefix string) error {
	if err := CheckColumns(table, e, "rule tree "+idPrefix); err != nil {
		return err
	}

	Walk(e, idPrefix, func(id string, r Rule) {
		mask := make([]bool, table.Len())
		for i := range mask {
			mask[i] = r.Eligible(table.View(i))
		}
		for i, eligible := range mask {
			if eligible {
				r.Apply(table.View(i))
			}
		}
		if log != nil {
			log.Record(id, mask)
		}
	})
	return nil
}

func joinID(prefix, part string) string {
	switch {
	case prefix == "":
		return part
	case part == "":
		return prefix
	default:
		return prefix + "_" + part
	}
}

func tagSet(tags ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, group := range tags {
		for _, tag := range group {
			set[tag] = true
		}
	}
	return set
}

func sortedTags(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func describe(kind string, tags ...string) string {
	return kind + "_" + strings.Join(tags, "_")
}
