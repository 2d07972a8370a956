// Package store persists standardization runs: the standardized table,
// the rule contributions and the validation discrepancies of every run.
package store

import (
	"context"
	"time"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
)

// Run is the stored summary of one standardization run
type Run struct {
	ID            string                   `json:"id"`
	Statement     string                   `json:"statement"`
	Rows          int                      `json:"rows"`
	Iterations    int                      `json:"iterations"`
	Shards        int                      `json:"shards"`
	Discrepancies int                      `json:"discrepancies"`
	Statistics    *standardizer.Statistics `json:"statistics,omitempty"`
	StartedAt     time.Time                `json:"started_at"`
	Duration      time.Duration            `json:"duration"`
}

// RunFilter specifies criteria for listing runs
type RunFilter struct {
	Statement string `json:"statement,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for standardization results
type Store interface {
	SaveResult(ctx context.Context, result *standardizer.Result) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	LoadTable(ctx context.Context, runID string) (*models.Table, error)
	Contributions(ctx context.Context, runID string) ([]rules.RuleContribution, error)
	Discrepancies(ctx context.Context, runID string) ([]validation.Discrepancy, error)
	DeleteRun(ctx context.Context, runID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
