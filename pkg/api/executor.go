package api

import (
	"context"
	"errors"
)

// ErrNoOperators is returned by Submit when the operator list is empty.
var ErrNoOperators = errors.New("at least one operator is required")

// RunOutcome is the terminal outcome of a pipeline run.
type RunOutcome string

const (
	// OutcomeCompleted means every operator reported TransformComplete.
	OutcomeCompleted RunOutcome = "COMPLETED"

	// OutcomeFailed means an operator reported TransformError; operators
	// queued after it never executed.
	OutcomeFailed RunOutcome = "FAILED"

	// OutcomeCanceled means the run was canceled, either as a whole or by
	// canceling the operator that was running at the time.
	OutcomeCanceled RunOutcome = "CANCELED"
)

// Future is the caller-facing handle to an in-flight or completed run.
// Exactly one Future exists per run.
//
// A Future stays valid after completion: Result can be used to read the final
// data object, and Outcome to read the terminal state.
type Future interface {
	// Cancel cancels the whole pipeline. Operators still queued never run;
	// the currently running operator is asked to stop cooperatively. The
	// run reports OutcomeCanceled once the in-flight operator (if any) has
	// returned. Cancel is idempotent and a no-op after termination.
	Cancel()

	// CancelOperator cancels a single operator. If op is still queued it is
	// removed without disturbing the rest of the pipeline and CancelOperator
	// returns true. If op is currently running it cannot be surgically
	// removed, so the whole pipeline is canceled and false is returned.
	// False is also returned for operators that already completed or were
	// never part of the run.
	CancelOperator(op Operator) bool

	// IsRunning reports whether the run has not yet reached a terminal
	// state.
	IsRunning() bool

	// Result returns the shared data object. It is valid at any time, not
	// just after completion; callers may inspect intermediate progress.
	Result() any

	// AddOperator appends op to the tail of the run's queue. It returns
	// false if the run already terminated.
	AddOperator(op Operator) bool

	// Operators returns the operators this run was submitted with, in
	// order, including any appended while running.
	Operators() []Operator

	// Done returns a channel that is closed when the run reaches a
	// terminal state.
	Done() <-chan struct{}

	// Outcome returns the terminal outcome. ok is false while the run is
	// still in progress.
	Outcome() (outcome RunOutcome, ok bool)

	// Wait blocks until the run terminates or ctx is done, returning the
	// terminal outcome or ctx.Err.
	Wait(ctx context.Context) (RunOutcome, error)
}

// Executor runs operator pipelines on a bounded worker pool. Implementations
// are safe for concurrent use; independent runs execute concurrently, each
// internally sequential.
type Executor interface {
	// Submit resets every operator's state, builds a run over the shared
	// data object, starts it, and returns its Future immediately. The
	// first operator is dispatched asynchronously, so observers can be
	// attached to the Future before any completion can be observed.
	//
	// The context is bound to the run: if ctx is canceled before the run
	// terminates, the whole pipeline is canceled.
	Submit(ctx context.Context, data any, ops ...Operator) (Future, error)

	// Close releases executor resources. Runs still in flight are
	// canceled. Close is idempotent.
	Close() error
}
