package voxpipe

import (
	"context"
	"database/sql"

	"github.com/petrijr/voxpipe/internal/journal"
	"github.com/petrijr/voxpipe/internal/pipeline"
	"github.com/petrijr/voxpipe/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Operator             = api.Operator
	TransformResult      = api.TransformResult
	RunOutcome           = api.RunOutcome
	Future               = api.Future
	Executor             = api.Executor
	FuncOperator         = api.FuncOperator
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common helpers.

var (
	NewFuncOperator      = api.NewFuncOperator
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export transform results and run outcomes for convenience.

const (
	TransformComplete = api.TransformComplete
	TransformError    = api.TransformError
	TransformCanceled = api.TransformCanceled

	OutcomeCompleted = api.OutcomeCompleted
	OutcomeFailed    = api.OutcomeFailed
	OutcomeCanceled  = api.OutcomeCanceled
)

// Executor constructors
// These wrap the internal/pipeline package so external callers
// never need to import internal packages.

// NewExecutor returns an Executor on the process-wide worker pool with an
// in-memory run journal.
func NewExecutor() Executor {
	return pipeline.NewExecutor(pipeline.Config{
		Journal: journal.NewInMemoryStore(),
	})
}

// NewExecutorWithObserver returns an in-memory-journaled Executor with the
// given Observer.
func NewExecutorWithObserver(obs Observer) Executor {
	return pipeline.NewExecutor(pipeline.Config{
		Observer: obs,
		Journal:  journal.NewInMemoryStore(),
	})
}

// NewSQLiteExecutor returns an Executor that journals run history in a
// SQLite database.
func NewSQLiteExecutor(db *sql.DB) (Executor, error) {
	store, err := journal.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return pipeline.NewExecutor(pipeline.Config{
		Journal: store,
	}), nil
}

// NewSQLiteExecutorWithObserver returns a SQLite-journaled Executor with the
// given Observer.
func NewSQLiteExecutorWithObserver(db *sql.DB, obs Observer) (Executor, error) {
	store, err := journal.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return pipeline.NewExecutor(pipeline.Config{
		Observer: obs,
		Journal:  store,
	}), nil
}

// NewPooledExecutor returns an Executor with its own worker pool of the
// given size instead of the process-wide pool, and an in-memory journal.
// Closing the executor shuts the pool down.
func NewPooledExecutor(poolSize int) Executor {
	return pipeline.NewExecutor(pipeline.Config{
		PoolSize: poolSize,
		Journal:  journal.NewInMemoryStore(),
	})
}

// SetDefaultPoolSize configures the size of the process-wide worker pool.
// By default the pool uses half the available hardware concurrency, minimum
// one worker, leaving the rest of the machine to the interactive workload.
// It must be called before the first submission on the default pool.
func SetDefaultPoolSize(size int) error {
	return pipeline.SetDefaultPoolSize(size)
}

// Convenience helpers that just forward to the underlying Executor.

// Submit runs the ordered operator pipeline against data and returns the
// run's Future immediately.
func Submit(ctx context.Context, exec Executor, data any, ops ...Operator) (Future, error) {
	return exec.Submit(ctx, data, ops...)
}

// Wait blocks until the future's run terminates or ctx is done.
func Wait(ctx context.Context, f Future) (RunOutcome, error) {
	return f.Wait(ctx)
}
