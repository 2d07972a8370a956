package pivot

import (
	"golang-fact-standardizer/internal/models"
)

// Report lists the data irregularities found while reshaping. None of them
// stops processing.
type Report struct {
	InputFacts        int                `json:"input_facts" yaml:"input_facts"`
	RelevantFacts     int                `json:"relevant_facts" yaml:"relevant_facts"`
	NegatedFacts      int                `json:"negated_facts" yaml:"negated_facts"`
	Duplicates        []*models.Fact     `json:"duplicates,omitempty" yaml:"-"`
	AmbiguousFilings  []AmbiguousFiling  `json:"ambiguous_filings,omitempty" yaml:"ambiguous_filings,omitempty"`
	DroppedStatements []DroppedStatement `json:"dropped_statements,omitempty" yaml:"dropped_statements,omitempty"`
	Rows              int                `json:"rows" yaml:"rows"`
}

// AmbiguousFiling is a filing removed because one of its rows held several
// distinct values for the same tag.
type AmbiguousFiling struct {
	Adsh   string          `json:"adsh" yaml:"adsh"`
	Key    models.GroupKey `json:"key" yaml:"key"`
	Tag    string          `json:"tag" yaml:"tag"`
	Values []string        `json:"values" yaml:"values"`
}

// DroppedStatement is a competing statement row that lost disambiguation
type DroppedStatement struct {
	Key         models.GroupKey `json:"key" yaml:"key"`
	Missing     int             `json:"missing" yaml:"missing"`
	KeptKey     models.GroupKey `json:"kept_key" yaml:"kept_key"`
	KeptMissing int             `json:"kept_missing" yaml:"kept_missing"`
}

// DuplicateCount returns the number of dropped exact duplicates
func (r *Report) DuplicateCount() int {
	return len(r.Duplicates)
}
