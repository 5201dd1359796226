package pipeline

import (
	"context"

	"github.com/petrijr/voxpipe/pkg/api"
)

// future is the caller-facing handle over exactly one Run. It only forwards;
// all semantics live in the Run.
type future struct {
	run *Run
}

// Ensure future implements api.Future.
var _ api.Future = (*future)(nil)

func (f *future) Cancel() {
	f.run.Cancel()
}

func (f *future) CancelOperator(op api.Operator) bool {
	return f.run.CancelOperator(op)
}

func (f *future) IsRunning() bool {
	return f.run.IsRunning()
}

func (f *future) Result() any {
	return f.run.Data()
}

func (f *future) AddOperator(op api.Operator) bool {
	return f.run.AddOperator(op)
}

func (f *future) Operators() []api.Operator {
	return f.run.Operators()
}

func (f *future) Done() <-chan struct{} {
	return f.run.done
}

func (f *future) Outcome() (api.RunOutcome, bool) {
	select {
	case <-f.run.done:
		return f.run.outcome, true
	default:
		return "", false
	}
}

func (f *future) Wait(ctx context.Context) (api.RunOutcome, error) {
	select {
	case <-f.run.done:
		return f.run.outcome, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
