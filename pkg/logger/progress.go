package logger

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ProgressTracker counts finished units of work, e.g. one rule pass over one
// shard. Add is safe from several goroutines; at most one entry is logged
// per interval.
type ProgressTracker struct {
	logger    Logger
	operation string
	total     int64
	interval  time.Duration
	started   time.Time
	done      atomic.Int64
	lastLog   atomic.Int64
}

// ProgressConfig configures a ProgressTracker
type ProgressConfig struct {
	Operation   string
	Total       int64
	LogInterval time.Duration
	Logger      Logger
}

// NewProgressTracker creates a tracker; Logger defaults to the global one and
// LogInterval to five seconds.
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval <= 0 {
		config.LogInterval = 5 * time.Second
	}

	p := &ProgressTracker{
		logger:    config.Logger.WithComponent("progress"),
		operation: config.Operation,
		total:     config.Total,
		interval:  config.LogInterval,
		started:   time.Now(),
	}
	p.lastLog.Store(p.started.UnixNano())
	return p
}

// Add records delta finished units
func (p *ProgressTracker) Add(delta int64) {
	current := p.done.Add(delta)

	now := time.Now().UnixNano()
	last := p.lastLog.Load()
	if time.Duration(now-last) < p.interval || !p.lastLog.CompareAndSwap(last, now) {
		return
	}
	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": current,
		"total":     p.total,
	}).Info("Progress update")
}

// Stats returns a snapshot of the counters
func (p *ProgressTracker) Stats() ProgressStats {
	stats := ProgressStats{
		Operation: p.operation,
		Total:     p.total,
		Current:   p.done.Load(),
		Duration:  time.Since(p.started),
	}
	if stats.Total > 0 {
		stats.Percentage = float64(stats.Current) / float64(stats.Total) * 100
	}
	return stats
}

// ProgressStats is a snapshot of a ProgressTracker
type ProgressStats struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Current    int64         `json:"current"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
}

func (s ProgressStats) String() string {
	return fmt.Sprintf("%s: %d/%d (%.1f%%) in %v", s.Operation, s.Current, s.Total, s.Percentage, s.Duration)
}

// OperationLogger logs the steps of one run with the elapsed time since the
// run started.
type OperationLogger struct {
	logger  Logger
	fields  Fields
	started time.Time
}

// NewOperationLogger starts timing operation
func NewOperationLogger(operation string, l Logger) *OperationLogger {
	if l == nil {
		l = GetGlobalLogger()
	}
	op := &OperationLogger{
		logger:  l,
		fields:  Fields{"operation": operation},
		started: time.Now(),
	}
	l.WithFields(op.fields).Debug("Starting operation")
	return op
}

// WithField attaches a field to every later entry of the operation
func (op *OperationLogger) WithField(key string, value interface{}) *OperationLogger {
	op.fields[key] = value
	return op
}

func (op *OperationLogger) entry(extra Fields) Logger {
	fields := make(Fields, len(op.fields)+len(extra)+1)
	for k, v := range op.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	fields["elapsed"] = time.Since(op.started).String()
	return op.logger.WithFields(fields)
}

// Step logs an intermediate step at debug level
func (op *OperationLogger) Step(step string, extra Fields) {
	op.entry(extra).WithField("step", step).Debug("Operation step")
}

// Success logs the end of a successful operation
func (op *OperationLogger) Success(message string) {
	op.entry(Fields{"status": "success"}).Info(message)
}

// Error logs the end of a failed operation
func (op *OperationLogger) Error(err error, message string) {
	op.entry(Fields{"status": "error"}).WithError(err).Error(message)
}
