package pivot

import (
	"sort"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

// Engine reshapes long-form facts into a wide table
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates a new pivot engine
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("pivot"),
	}
}

// WithLogger replaces the engine's logger
func (e *Engine) WithLogger(l logger.Logger) *Engine {
	e.logger = l.WithComponent("pivot")
	return e
}

// Reshape turns facts into one row per grouping key with one column per
// expected tag. The input facts are never modified.
func (e *Engine) Reshape(facts []*models.Fact, expectedTags []string) (*models.Table, *Report, error) {
	if err := e.config.Validate(); err != nil {
		return nil, nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pivot", err.Error(), err)
	}

	columns := uniqueSorted(expectedTags)
	table := models.NewTable(columns)
	if missing := table.MissingColumns(e.config.MainTags); len(missing) > 0 {
		return nil, nil, errors.ConfigurationError(errors.CodeUnknownTag, "main tags", missing, nil)
	}

	report := &Report{InputFacts: len(facts)}

	// Step 1: keep only the tags the rule trees and the final projection use
	relevant := make([]*models.Fact, 0, len(facts))
	for _, f := range facts {
		if table.HasColumn(f.Tag) {
			relevant = append(relevant, f)
		}
	}
	report.RelevantFacts = len(relevant)

	// Step 2: exact duplicates
	relevant, report.Duplicates = models.DeduplicateFacts(relevant)
	for _, dup := range report.Duplicates {
		e.logger.WithField("fact", dup.String()).Debug("Dropped duplicate fact")
	}

	// Step 3: economic sign
	if e.config.NormalizeSign {
		relevant, report.NegatedFacts = negate(relevant)
	}

	// Step 4: reshape
	e.fill(table, relevant, report)

	// Step 5: main statement selection
	if e.config.FilterMainStatement {
		e.disambiguate(table, report)
	}

	report.Rows = table.Len()
	e.logger.WithFields(logger.Fields{
		"input_facts":        report.InputFacts,
		"relevant_facts":     report.RelevantFacts,
		"duplicates":         report.DuplicateCount(),
		"negated":            report.NegatedFacts,
		"ambiguous_filings":  len(report.AmbiguousFilings),
		"dropped_statements": len(report.DroppedStatements),
		"rows":               report.Rows,
	}).Info("Reshaped facts")

	return table, report, nil
}

func (e *Engine) fill(table *models.Table, facts []*models.Fact, report *Report) {
	rows := make(map[models.GroupKey]int)
	ambiguous := make(map[string]bool)

	for _, f := range facts {
		key := f.GroupKey(e.config.GroupByUnit)
		if ambiguous[key.Adsh] {
			continue
		}
		idx, ok := rows[key]
		if !ok {
			idx = table.Len()
			table.AddRow(key)
			rows[key] = idx
		}

		current := table.Get(idx, f.Tag)
		switch {
		case !current.Valid:
			table.Set(idx, f.Tag, f.Value)
		case f.Value.Valid && !current.Decimal.Equal(f.Value.Decimal):
			ambiguous[key.Adsh] = true
			report.AmbiguousFilings = append(report.AmbiguousFilings, AmbiguousFiling{
				Adsh:   key.Adsh,
				Key:    key,
				Tag:    f.Tag,
				Values: []string{current.Decimal.String(), f.Value.Decimal.String()},
			})
			e.logger.WithFields(logger.Fields{
				"adsh": key.Adsh,
				"row":  key.String(),
				"tag":  f.Tag,
			}).Warn("Several values for one tag, dropping filing")
		}
	}

	if len(ambiguous) > 0 {
		kept := table.Rows[:0]
		for _, row := range table.Rows {
			if !ambiguous[row.Key.Adsh] {
				kept = append(kept, row)
			}
		}
		table.Rows = kept
	}
	table.SortRows()
}

// disambiguate keeps one row per (filing, co-registrant): the one with the
// fewest missing main tags. Ties go to the last row in canonical order, that
// is the highest report index, then the latest date.
func (e *Engine) disambiguate(table *models.Table, report *Report) {
	type candidate struct {
		row     *models.Row
		missing int
	}
	best := make(map[models.FilingKey]candidate)
	var order []models.FilingKey

	for i, row := range table.Rows {
		c := candidate{row: row, missing: table.MissingInRow(i, e.config.MainTags)}
		filing := row.Key.Filing()
		current, ok := best[filing]
		if !ok {
			best[filing] = c
			order = append(order, filing)
			continue
		}
		// rows arrive in canonical order, so ties favour the later row
		if c.missing <= current.missing {
			best[filing] = c
		}
	}

	if len(best) == table.Len() {
		return
	}

	for i, row := range table.Rows {
		winner := best[row.Key.Filing()]
		if winner.row == row {
			continue
		}
		report.DroppedStatements = append(report.DroppedStatements, DroppedStatement{
			Key:         row.Key,
			Missing:     table.MissingInRow(i, e.config.MainTags),
			KeptKey:     winner.row.Key,
			KeptMissing: winner.missing,
		})
	}

	kept := make([]*models.Row, 0, len(order))
	for _, filing := range order {
		kept = append(kept, best[filing].row)
	}
	table.Rows = kept

	e.logger.WithField("dropped", len(report.DroppedStatements)).Debug("Disambiguated competing statements")
}

func negate(facts []*models.Fact) ([]*models.Fact, int) {
	out := make([]*models.Fact, len(facts))
	count := 0
	for i, f := range facts {
		out[i] = f
		if !f.Negating || !f.Value.Valid {
			continue
		}
		c := f.Clone()
		c.Value = models.Present(f.Value.Decimal.Neg())
		out[i] = c
		count++
	}
	return out, count
}

func uniqueSorted(tags []string) []string {
	set := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" && !set[tag] {
			set[tag] = true
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
