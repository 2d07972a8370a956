package rules

import "fmt"

// AuditLog records, per rule identifier, in which rows the rule fired.
// Columns keep the order in which rules were applied.
type AuditLog struct {
	rows  int
	ids   []string
	marks map[string][]bool
}

// RuleContribution is the number of rows a rule filled
type RuleContribution struct {
	RuleID string `json:"rule_id" yaml:"rule_id"`
	Rows   int    `json:"rows" yaml:"rows"`
}

// NewAuditLog creates a log for a table with the given number of rows
func NewAuditLog(rows int) *AuditLog {
	return &AuditLog{rows: rows, marks: make(map[string][]bool)}
}

// Record stores the mask of one rule pass. Recording the same id twice
// combines both masks.
func (l *AuditLog) Record(id string, mask []bool) {
	if len(mask) != l.rows {
		panic(fmt.Sprintf("rules: mask for %s has %d rows, log has %d", id, len(mask), l.rows))
	}
	existing, ok := l.marks[id]
	if !ok {
		l.ids = append(l.ids, id)
		l.marks[id] = append([]bool(nil), mask...)
		return
	}
	for i, fired := range mask {
		existing[i] = existing[i] || fired
	}
}

// Rows returns the number of rows the log is aligned with
func (l *AuditLog) Rows() int {
	return l.rows
}

// RuleIDs returns the recorded rule identifiers in application order
func (l *AuditLog) RuleIDs() []string {
	return append([]string(nil), l.ids...)
}

// Fired returns the per-row mask of id, or nil if id was never recorded
func (l *AuditLog) Fired(id string) []bool {
	return l.marks[id]
}

// FiredInRow returns the rules that wrote to row i
func (l *AuditLog) FiredInRow(i int) []string {
	var ids []string
	for _, id := range l.ids {
		if l.marks[id][i] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Summary counts the rows each rule filled
func (l *AuditLog) Summary() []RuleContribution {
	summary := make([]RuleContribution, 0, len(l.ids))
	for _, id := range l.ids {
		count := 0
		for _, fired := range l.marks[id] {
			if fired {
				count++
			}
		}
		summary = append(summary, RuleContribution{RuleID: id, Rows: count})
	}
	return summary
}

// ConcatAuditLogs stacks the rows of several logs in the given order.
// Rule ids are merged by first appearance; rows of a log that lacks an id read false.
func ConcatAuditLogs(logs ...*AuditLog) *AuditLog {
	total := 0
	for _, l := range logs {
		total += l.rows
	}
	merged := NewAuditLog(total)

	for _, l := range logs {
		for _, id := range l.ids {
			if _, ok := merged.marks[id]; !ok {
				merged.ids = append(merged.ids, id)
				merged.marks[id] = make([]bool, total)
			}
		}
	}

	offset := 0
	for _, l := range logs {
		for _, id := range l.ids {
			copy(merged.marks[id][offset:], l.marks[id])
		}
		offset += l.rows
	}
	return merged
}
