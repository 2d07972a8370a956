// Package standardizer runs the full standardization pipeline for one
// statement type: pre-pivot fact rules, reshape, the pre rule tree, the main
// rule tree iterations, the cleanup tree, projection to the final tags and
// validation.
//
// Example usage:
//
//	std, err := standardizer.New(statements.BalanceSheet(), standardizer.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	std.AddProgressCallback(func(p *standardizer.Progress) {
//		fmt.Printf("%s: %.1f%%\n", p.Stage, p.PercentComplete)
//	})
//
//	result, err := std.Process(ctx, facts)
package standardizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/pivot"
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/validation"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

// Rule identifier prefixes of the three tree passes
const (
	PrePrefix     = "PRE"
	MainPrefix    = "MAIN"
	CleanupPrefix = "POST"
)

// Stage is the lifecycle state of a run
type Stage string

const (
	StageIdle      Stage = "idle"
	StageReshaped  Stage = "reshaped"
	StageIterating Stage = "iterating"
	StageCleanedUp Stage = "cleaned_up"
	StageValidated Stage = "validated"
	StageDone      Stage = "done"
)

// Progress reports how far a run got
type Progress struct {
	Stage           Stage         `json:"stage"`
	Iteration       int           `json:"iteration,omitempty"`
	CurrentStep     int           `json:"current_step"`
	TotalSteps      int           `json:"total_steps"`
	PercentComplete float64       `json:"percent_complete"`
	ElapsedTime     time.Duration `json:"elapsed_time"`
}

// ProgressCallback is called after every stage transition
type ProgressCallback func(*Progress)

// FactRuleEffect is the number of facts one pre-pivot rule changed or removed
type FactRuleEffect struct {
	Rule     string `json:"rule" yaml:"rule"`
	Affected int    `json:"affected" yaml:"affected"`
}

// Result is everything a run produced
type Result struct {
	RunID         string                   `json:"run_id" yaml:"run_id"`
	Statement     string                   `json:"statement" yaml:"statement"`
	Table         *models.Table            `json:"-" yaml:"-"`
	Statistics    *Statistics              `json:"statistics" yaml:"statistics"`
	AuditLog      *rules.AuditLog          `json:"-" yaml:"-"`
	Contributions []rules.RuleContribution `json:"contributions" yaml:"contributions"`
	Validation    *validation.Report       `json:"validation" yaml:"validation"`
	Pivot         *pivot.Report            `json:"pivot" yaml:"pivot"`
	PrePivot      []FactRuleEffect         `json:"pre_pivot,omitempty" yaml:"pre_pivot,omitempty"`
	Shards        int                      `json:"shards" yaml:"shards"`
	StartedAt     time.Time                `json:"started_at" yaml:"started_at"`
	Duration      time.Duration            `json:"duration" yaml:"duration"`
}

// Standardizer runs one statement definition with one configuration.
// A Standardizer can serve several sequential or concurrent Process calls;
// every call works on its own table.
type Standardizer struct {
	definition *Definition
	config     *Config
	logger     logger.Logger

	mu                sync.Mutex
	progressCallbacks []ProgressCallback
}

// New creates a standardizer after checking definition and config
func New(definition *Definition, config *Config) (*Standardizer, error) {
	if definition == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "definition", nil, nil)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := definition.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidRuleSet, "definition", definition.Name, err).
			WithSuggestion("Check that validation rules only use final tags")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "standardizer", config, err)
	}

	return &Standardizer{
		definition: definition,
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("standardizer").WithField("statement", definition.Name),
	}, nil
}

// WithLogger replaces the component logger
func (s *Standardizer) WithLogger(l logger.Logger) *Standardizer {
	s.logger = l.WithComponent("standardizer").WithField("statement", s.definition.Name)
	return s
}

// Definition returns the statement definition
func (s *Standardizer) Definition() *Definition {
	return s.definition
}

// AddProgressCallback adds a progress callback
func (s *Standardizer) AddProgressCallback(callback ProgressCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressCallbacks = append(s.progressCallbacks, callback)
}

// Process standardizes facts. The input facts are not modified.
func (s *Standardizer) Process(ctx context.Context, facts []*models.Fact) (*Result, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	log := s.logger.WithField("run_id", runID)
	op := logger.NewOperationLogger("standardize", log)
	totalSteps := s.config.Iterations + 4

	log.WithFields(logger.Fields{
		"facts":      len(facts),
		"iterations": s.config.Iterations,
		"workers":    s.config.Workers,
	}).Info("Starting standardization")
	s.updateProgress(StageIdle, 0, 0, totalSteps, startTime)

	if err := ctx.Err(); err != nil {
		return nil, cancelled("start", err)
	}

	// Step 1: pre-pivot fact rules
	working := facts
	effects := make([]FactRuleEffect, 0, len(s.definition.PrePivotRules))
	for _, rule := range s.definition.PrePivotRules {
		var affected int
		working, affected = rule.Apply(working)
		effects = append(effects, FactRuleEffect{Rule: rule.Name(), Affected: affected})
		op.Step("pre-pivot", logger.Fields{"rule": rule.Name(), "affected": affected})
	}

	// Step 2: reshape
	engine := pivot.NewEngine(&pivot.Config{
		NormalizeSign:       s.config.NormalizeSign,
		FilterMainStatement: s.config.FilterMainStatement,
		MainTags:            s.definition.MainTags,
		GroupByUnit:         s.config.GroupByUnit,
	}).WithLogger(log)

	table, pivotReport, err := engine.Reshape(working, s.definition.ExpectedTags())
	if err != nil {
		op.Error(err, "Reshape failed")
		return nil, err
	}
	s.updateProgress(StageReshaped, 0, 1, totalSteps, startTime)

	// Step 3: every tree must be satisfiable before anything is written
	for _, t := range s.definition.trees() {
		if t.tree == nil {
			continue
		}
		if err := rules.CheckColumns(table, t.tree, t.name); err != nil {
			op.Error(err, "Rule tree references unknown tags")
			return nil, err
		}
	}

	// Step 4: shard by filing
	shards := splitByFiling(table, s.config.Workers)
	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "rule passes",
		Total:     int64(len(shards) * (s.config.Iterations + 2)),
		Logger:    log,
	})
	done := func() { tracker.Add(1) }
	op.Step("shard", logger.Fields{"shards": len(shards), "rows": table.Len()})

	stats := newStatistics(table.Len(), s.definition.FinalTags, s.config.Iterations)

	// Step 5: pre tree
	if err := runPass(ctx, shards, s.definition.PreTree, PrePrefix, s.config.Workers, done); err != nil {
		return nil, s.passError(op, PrePrefix, err)
	}
	stats.recordPre(table)

	// Step 6: main iterations
	for i := 0; i < s.config.Iterations; i++ {
		prefix := fmt.Sprintf("%s_%d", MainPrefix, i)
		if err := runPass(ctx, shards, s.definition.MainTree, prefix, s.config.Workers, done); err != nil {
			return nil, s.passError(op, prefix, err)
		}
		stats.recordPost(i, table)
		op.Step("iteration", logger.Fields{"iteration": i, "missing": totalMissing(table, s.definition.FinalTags)})
		s.updateProgress(StageIterating, i+1, i+2, totalSteps, startTime)
	}

	// Step 7: cleanup
	if err := runPass(ctx, shards, s.definition.PostTree, CleanupPrefix, s.config.Workers, done); err != nil {
		return nil, s.passError(op, CleanupPrefix, err)
	}
	stats.recordCleanup(table)
	s.updateProgress(StageCleanedUp, 0, s.config.Iterations+2, totalSteps, startTime)

	// Step 8: projection and validation
	projected := table.Project(s.definition.FinalTags)
	report, err := validation.Validate(projected, s.definition.ValidationRules, s.config.Tolerance)
	if err != nil {
		op.Error(err, "Validation failed")
		return nil, err
	}
	s.updateProgress(StageValidated, 0, s.config.Iterations+3, totalSteps, startTime)

	audit := rules.ConcatAuditLogs(auditLogs(shards)...)
	result := &Result{
		RunID:         runID,
		Statement:     s.definition.Name,
		Table:         projected,
		Statistics:    stats,
		AuditLog:      audit,
		Contributions: audit.Summary(),
		Validation:    report,
		Pivot:         pivotReport,
		PrePivot:      effects,
		Shards:        len(shards),
		StartedAt:     startTime,
		Duration:      time.Since(startTime),
	}
	s.updateProgress(StageDone, 0, totalSteps, totalSteps, startTime)

	op.WithField("rows", projected.Len()).
		WithField("discrepancies", report.DiscrepancyCount()).
		WithField("passes", tracker.Stats().String()).
		Success("Standardization completed")

	return result, nil
}

func (s *Standardizer) passError(op *logger.OperationLogger, prefix string, err error) error {
	if err == context.Canceled || err == context.DeadlineExceeded {
		err = cancelled(prefix, err)
	}
	op.Error(err, "Rule pass failed")
	return err
}

func cancelled(stage string, err error) error {
	return errors.StandardizationError(errors.CodeCancelled, stage, err)
}

func totalMissing(table *models.Table, tags []string) int {
	missing := 0
	for _, tag := range tags {
		missing += table.MissingCount(tag)
	}
	return missing
}

func (s *Standardizer) updateProgress(stage Stage, iteration, step, totalSteps int, startTime time.Time) {
	s.mu.Lock()
	callbacks := append([]ProgressCallback(nil), s.progressCallbacks...)
	s.mu.Unlock()
	if len(callbacks) == 0 {
		return
	}

	progress := &Progress{
		Stage:           stage,
		Iteration:       iteration,
		CurrentStep:     step,
		TotalSteps:      totalSteps,
		PercentComplete: float64(step) / float64(totalSteps) * 100,
		ElapsedTime:     time.Since(startTime),
	}
	for _, callback := range callbacks {
		callback(progress)
	}
}
