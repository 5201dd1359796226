package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the pipeline engine for logging and
// metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay pipeline execution. Run-level callbacks
// are delivered from the run's owner goroutine, operator-level callbacks from
// pool workers.
type Observer interface {
	// OnRunStart is called once when a run is submitted, before the first
	// operator is dispatched.
	OnRunStart(ctx context.Context, runID string, operatorCount int)

	// OnRunFinished is called when a run terminates through normal
	// execution: success == true if every operator completed, false if an
	// operator reported an error.
	OnRunFinished(ctx context.Context, runID string, success bool)

	// OnRunCanceled is called when a run terminates because it was
	// canceled.
	OnRunCanceled(ctx context.Context, runID string)

	// OnOperatorStart is called before an operator's transform executes.
	// index is the 0-based position in the run's queue.
	OnOperatorStart(ctx context.Context, runID string, label string, index int)

	// OnOperatorCompleted is called after an operator's transform returns,
	// for every result kind.
	OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result TransformResult, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, runID string, operatorCount int) {}
func (NoopObserver) OnRunFinished(ctx context.Context, runID string, success bool)   {}
func (NoopObserver) OnRunCanceled(ctx context.Context, runID string)                 {}
func (NoopObserver) OnOperatorStart(ctx context.Context, runID string, label string, index int) {
}
func (NoopObserver) OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result TransformResult, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, runID string, operatorCount int) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, runID, operatorCount)
	}
}

func (c *CompositeObserver) OnRunFinished(ctx context.Context, runID string, success bool) {
	for _, o := range c.observers {
		o.OnRunFinished(ctx, runID, success)
	}
}

func (c *CompositeObserver) OnRunCanceled(ctx context.Context, runID string) {
	for _, o := range c.observers {
		o.OnRunCanceled(ctx, runID)
	}
}

func (c *CompositeObserver) OnOperatorStart(ctx context.Context, runID string, label string, index int) {
	for _, o := range c.observers {
		o.OnOperatorStart(ctx, runID, label, index)
	}
}

func (c *CompositeObserver) OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result TransformResult, d time.Duration) {
	for _, o := range c.observers {
		o.OnOperatorCompleted(ctx, runID, label, index, result, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run / operator lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, runID string, operatorCount int) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("run_id", runID),
		slog.Int("operators", operatorCount),
	)
}

func (o *LoggingObserver) OnRunFinished(ctx context.Context, runID string, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "run_finished",
		slog.String("run_id", runID),
		slog.Bool("success", success),
	)
}

func (o *LoggingObserver) OnRunCanceled(ctx context.Context, runID string) {
	o.Logger.InfoContext(ctx, "run_canceled",
		slog.String("run_id", runID),
	)
}

func (o *LoggingObserver) OnOperatorStart(ctx context.Context, runID string, label string, index int) {
	o.Logger.DebugContext(ctx, "operator_start",
		slog.String("run_id", runID),
		slog.String("operator", label),
		slog.Int("index", index),
	)
}

func (o *LoggingObserver) OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result TransformResult, d time.Duration) {
	level := slog.LevelDebug
	if result == TransformError {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "operator_completed",
		slog.String("run_id", runID),
		slog.String("operator", label),
		slog.Int("index", index),
		slog.String("result", result.String()),
		slog.Duration("duration", d),
	)
}

// BasicMetrics collects simple counters and aggregate operator durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	runsStarted   atomic.Int64
	runsCompleted atomic.Int64
	runsFailed    atomic.Int64
	runsCanceled  atomic.Int64

	operatorsCompleted    atomic.Int64
	totalOperatorDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RunsStarted   int64
	RunsCompleted int64
	RunsFailed    int64
	RunsCanceled  int64
	RunsInFlight  int64

	OperatorsCompleted  int64
	AvgOperatorDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, runID string, operatorCount int) {
	m.runsStarted.Add(1)
}

func (m *BasicMetrics) OnRunFinished(ctx context.Context, runID string, success bool) {
	if success {
		m.runsCompleted.Add(1)
	} else {
		m.runsFailed.Add(1)
	}
}

func (m *BasicMetrics) OnRunCanceled(ctx context.Context, runID string) {
	m.runsCanceled.Add(1)
}

func (m *BasicMetrics) OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result TransformResult, d time.Duration) {
	// Only successful transforms count toward the average duration.
	if result == TransformComplete {
		m.operatorsCompleted.Add(1)
		m.totalOperatorDuration.Add(d.Nanoseconds())
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.runsStarted.Load()
	completed := m.runsCompleted.Load()
	failed := m.runsFailed.Load()
	canceled := m.runsCanceled.Load()
	ops := m.operatorsCompleted.Load()
	totalNs := m.totalOperatorDuration.Load()

	var avg time.Duration
	if ops > 0 {
		avg = time.Duration(totalNs / ops)
	}

	return BasicMetricsSnapshot{
		RunsStarted:         started,
		RunsCompleted:       completed,
		RunsFailed:          failed,
		RunsCanceled:        canceled,
		RunsInFlight:        started - completed - failed - canceled,
		OperatorsCompleted:  ops,
		AvgOperatorDuration: avg,
	}
}
