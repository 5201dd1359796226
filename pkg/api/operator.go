package api

import (
	"context"
	"sync/atomic"
)

// TransformResult is the outcome an Operator reports for one transform.
type TransformResult int

const (
	// TransformComplete means the transform finished and mutated the data
	// object successfully; the pipeline advances to the next operator.
	TransformComplete TransformResult = iota

	// TransformError means the operator failed. An error is fatal for the
	// run: the pipeline halts and is never retried.
	TransformError

	// TransformCanceled means the operator observed its cancellation flag
	// and stopped cooperatively.
	TransformCanceled
)

// String returns the lower-case name of the result, for logs and journals.
func (r TransformResult) String() string {
	switch r {
	case TransformComplete:
		return "complete"
	case TransformError:
		return "error"
	case TransformCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Operator is a unit of domain-specific data transformation with cooperative
// cancellation. Operators are supplied by the caller and only borrowed by the
// engine for the duration of a run; identity (interface equality) is used to
// match a queued or running operator for targeted cancellation.
//
// Transform may be long-running. It must poll its own cancellation flag and
// return TransformCanceled when CancelTransform has been called; the engine
// never preempts it.
type Operator interface {
	// Transform runs the operator against the shared data object, mutating
	// it in place. It is called on a pool worker goroutine, at most once
	// per run.
	Transform(data any) TransformResult

	// CancelTransform requests a cooperative stop. It must be safe to call
	// from any goroutine while Transform executes on a pool worker, and
	// must return without waiting for the stop to take effect.
	CancelTransform()

	// IsCanceled reports whether cancellation has been requested. The
	// engine queries it after a completion to disambiguate a cancel-induced
	// stop from a normal outcome.
	IsCanceled() bool

	// ResetState clears any status left over from a previous run. The
	// engine calls it on every operator immediately before a new top-level
	// submission.
	ResetState()
}

// Labeled is optionally implemented by operators that carry a human-readable
// name. The engine uses it for logging and journaling; operators without a
// label are identified by queue position.
type Labeled interface {
	Label() string
}

// FuncOperator adapts a plain function to the Operator interface, with a
// built-in cancellation flag. The function receives a context that is
// canceled when CancelTransform is called, so long-running transforms can
// select on ctx.Done between processing chunks.
//
//	op := api.NewFuncOperator("invert", func(ctx context.Context, data any) error {
//	    vol := data.(*Volume)
//	    for i := range vol.Voxels {
//	        select {
//	        case <-ctx.Done():
//	            return ctx.Err()
//	        default:
//	        }
//	        vol.Voxels[i] = -vol.Voxels[i]
//	    }
//	    return nil
//	})
type FuncOperator struct {
	label string
	fn    func(ctx context.Context, data any) error

	canceled atomic.Bool
	cancel   atomic.Pointer[context.CancelFunc]
}

// NewFuncOperator creates a FuncOperator with the given label and transform
// function. A nil fn yields an operator whose transform is a no-op success.
func NewFuncOperator(label string, fn func(ctx context.Context, data any) error) *FuncOperator {
	return &FuncOperator{label: label, fn: fn}
}

// Ensure FuncOperator implements Operator.
var _ Operator = (*FuncOperator)(nil)

// Label returns the operator's label.
func (o *FuncOperator) Label() string { return o.label }

// Transform invokes the wrapped function with a cancelable context.
func (o *FuncOperator) Transform(data any) TransformResult {
	if o.fn == nil {
		return TransformComplete
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.cancel.Store(&cancel)

	// CancelTransform may have won the race before the context existed.
	if o.canceled.Load() {
		return TransformCanceled
	}

	err := o.fn(ctx, data)
	if o.canceled.Load() {
		return TransformCanceled
	}
	if err != nil {
		return TransformError
	}
	return TransformComplete
}

// CancelTransform flips the cancellation flag and cancels the context of an
// in-flight Transform, if any.
func (o *FuncOperator) CancelTransform() {
	o.canceled.Store(true)
	if cancel := o.cancel.Load(); cancel != nil {
		(*cancel)()
	}
}

// IsCanceled reports whether CancelTransform has been called since the last
// ResetState.
func (o *FuncOperator) IsCanceled() bool {
	return o.canceled.Load()
}

// ResetState clears the cancellation flag so the operator can be submitted
// again.
func (o *FuncOperator) ResetState() {
	o.canceled.Store(false)
	o.cancel.Store(nil)
}

// OperatorLabel returns op's label if it implements Labeled and the label is
// non-empty, or fallback otherwise.
func OperatorLabel(op Operator, fallback string) string {
	if l, ok := op.(Labeled); ok && l.Label() != "" {
		return l.Label()
	}
	return fallback
}
