package pipeline

import (
	"strconv"
	"time"

	"github.com/petrijr/voxpipe/pkg/api"
)

// runnableUnit binds one operator to the run's shared data object. One unit
// exists per queued operator; it executes at most once, on a pool worker,
// and reports its result back to the run's owner goroutine.
type runnableUnit struct {
	op    api.Operator
	data  any
	run   *Run
	index int
	label string

	// task is set while the unit sits in the pool's pending queue; guarded
	// by the run mutex.
	task *TaskHandle
}

func newRunnableUnit(op api.Operator, run *Run, index int) *runnableUnit {
	return &runnableUnit{
		op:    op,
		data:  run.data,
		run:   run,
		index: index,
		label: api.OperatorLabel(op, "operator-"+strconv.Itoa(index)),
	}
}

// execute runs the operator's transform synchronously on the calling pool
// worker, then hands the result to the run over its event channel. The unit
// mutates the shared data object in place; the run guarantees no other unit
// runs concurrently against it.
func (u *runnableUnit) execute() {
	start := time.Now()
	u.run.observer.OnOperatorStart(u.run.ctx, u.run.id, u.label, u.index)

	result := u.op.Transform(u.data)

	u.run.observer.OnOperatorCompleted(u.run.ctx, u.run.id, u.label, u.index, result, time.Since(start))
	u.run.events <- runEvent{unit: u, result: result}
}

// cancel forwards cancellation intent to the operator. The stop itself is
// cooperative; the operator must observe its flag inside Transform.
func (u *runnableUnit) cancel() {
	u.op.CancelTransform()
}

// isCanceled proxies the operator's own canceled flag.
func (u *runnableUnit) isCanceled() bool {
	return u.op.IsCanceled()
}
