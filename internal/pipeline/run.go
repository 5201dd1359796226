package pipeline

import (
	"context"
	"sync"

	"github.com/petrijr/voxpipe/pkg/api"
)

// runState is the lifecycle state of a Run.
type runState int

const (
	stateCreated runState = iota
	stateRunning
	stateCanceled
	stateComplete
)

// runEvent is a message to the run's owner goroutine. A nil unit is a
// dispatch poke; a non-nil unit carries a completion.
type runEvent struct {
	unit   *runnableUnit
	result api.TransformResult
}

// Run drives one execution of an ordered operator pipeline against one
// shared data object.
//
// Operators run strictly sequentially, never in parallel: each mutates the
// same data object in place and later operators depend on earlier ones'
// output. At most one unit is executing at any instant.
//
// All state transitions happen either on the run's owner goroutine (which
// drains the event channel) or under the run mutex, so completion handling
// from pool workers and Cancel/AddOperator calls from caller goroutines
// serialize cleanly.
type Run struct {
	id       string
	data     any
	ctx      context.Context
	pool     *Pool
	observer api.Observer

	mu        sync.Mutex
	state     runState
	queue     []*runnableUnit // FIFO of not-yet-started units
	current   *runnableUnit   // at most one
	completed []*runnableUnit
	operators []api.Operator

	events   chan runEvent
	done     chan struct{}
	outcome  api.RunOutcome
	emitOnce sync.Once
}

// newRun builds a run over data with one queued unit per operator. The data
// object is exclusively owned by the run until it terminates.
func newRun(ctx context.Context, id string, data any, ops []api.Operator, pool *Pool, observer api.Observer) *Run {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		observer = api.NoopObserver{}
	}

	r := &Run{
		id:       id,
		data:     data,
		ctx:      ctx,
		pool:     pool,
		observer: observer,
		state:    stateCreated,
		events:   make(chan runEvent, 4),
		done:     make(chan struct{}),
	}
	for i, op := range ops {
		r.queue = append(r.queue, newRunnableUnit(op, r, i))
		r.operators = append(r.operators, op)
	}
	return r
}

// start transitions Created -> Running, spawns the owner goroutine, and
// schedules the first dispatch asynchronously so the caller holds the Future
// before any completion can be processed. It returns the run's single
// Future.
func (r *Run) start() *future {
	r.mu.Lock()
	// Cancel may already have won the race on a run that never dispatched;
	// terminal states are never overwritten.
	if r.state == stateCreated {
		r.state = stateRunning
	}
	r.mu.Unlock()

	go r.loop()
	r.poke()

	if r.ctx.Done() != nil {
		go func() {
			select {
			case <-r.ctx.Done():
				r.Cancel()
			case <-r.done:
			}
		}()
	}

	return &future{run: r}
}

// loop is the owner goroutine: it serializes dispatching and completion
// handling until the run reaches a terminal state.
func (r *Run) loop() {
	for {
		select {
		case ev := <-r.events:
			if ev.unit == nil {
				r.dispatchNext()
				continue
			}
			if r.onUnitComplete(ev.unit, ev.result) {
				return
			}
		case <-r.done:
			return
		}
	}
}

// poke asks the owner goroutine to attempt a dispatch. A full buffer means
// an event is already pending, and every event path re-checks the queue, so
// dropping the poke is safe.
func (r *Run) poke() {
	select {
	case r.events <- runEvent{}:
	default:
	}
}

// dispatchNext dequeues the head unit, records it as current, and submits it
// to the pool. It is a no-op when the queue is empty, nothing may start
// (terminal state), or a unit is already in flight.
func (r *Run) dispatchNext() {
	r.mu.Lock()
	if r.state != stateRunning || r.current != nil || len(r.queue) == 0 {
		r.mu.Unlock()
		return
	}
	unit := r.queue[0]
	r.queue = r.queue[1:]
	r.current = unit
	r.mu.Unlock()

	task, err := r.pool.Submit(unit.execute)
	if err != nil {
		// Pool shut down under us; the run can never make progress.
		r.mu.Lock()
		r.state = stateCanceled
		r.current = nil
		r.mu.Unlock()
		r.emit(api.OutcomeCanceled)
		return
	}

	r.mu.Lock()
	if r.current == unit {
		unit.task = task
		r.mu.Unlock()
		return
	}
	// Cancel raced with the submission and cleared current before the task
	// handle existed. If the task can still be pulled from the pool it will
	// never report, so the canceled outcome is emitted here.
	r.mu.Unlock()
	if task.TryRemove() {
		r.emit(api.OutcomeCanceled)
	}
}

// onUnitComplete handles one unit's completion on the owner goroutine. It
// reports whether the run reached a terminal state.
func (r *Run) onUnitComplete(unit *runnableUnit, result api.TransformResult) bool {
	unitCanceled := unit.isCanceled()

	r.mu.Lock()
	if r.current == unit {
		r.current = nil
	}
	r.completed = append(r.completed, unit)

	// Once cancellation has been requested, any in-flight completion is a
	// cancellation outcome, not success or failure.
	if r.state == stateCanceled || unitCanceled {
		r.mu.Unlock()
		r.emit(api.OutcomeCanceled)
		return true
	}

	// An operator error stops the pipeline; it is not retried.
	if result != api.TransformComplete {
		r.state = stateComplete
		r.mu.Unlock()
		r.emit(api.OutcomeFailed)
		return true
	}

	if len(r.queue) > 0 {
		r.mu.Unlock()
		r.dispatchNext()
		return false
	}

	r.state = stateComplete
	r.mu.Unlock()
	r.emit(api.OutcomeCompleted)
	return true
}

// Cancel cancels the whole pipeline. Queued units never run. A unit already
// in flight is asked to stop cooperatively; its eventual completion is
// reported as the canceled outcome. With nothing in flight there is nothing
// to cooperatively stop, so the canceled outcome is emitted immediately.
// Cancel is idempotent and a no-op once the run has terminated.
func (r *Run) Cancel() {
	r.mu.Lock()
	if r.state == stateCanceled || r.state == stateComplete {
		r.mu.Unlock()
		return
	}
	r.state = stateCanceled

	current := r.current
	removed := false
	if current != nil {
		if current.task != nil {
			removed = current.task.TryRemove()
		}
		current.cancel()
		r.current = nil
	}
	r.mu.Unlock()

	// A removed unit was still pending in the pool and will never report,
	// so its completion cannot deliver the canceled outcome.
	if current == nil || removed {
		r.emit(api.OutcomeCanceled)
	}
}

// CancelOperator cancels a single operator, identified by interface
// equality. A running operator cannot be surgically removed without stopping
// the pipeline, so that case degenerates to a whole-pipeline Cancel and
// returns false. A queued operator is excised without touching run state,
// returning true. Unknown or already-completed operators return false.
func (r *Run) CancelOperator(op api.Operator) bool {
	r.mu.Lock()

	if r.current != nil && r.current.op == op {
		r.mu.Unlock()
		r.Cancel()
		return false
	}

	if r.state != stateRunning {
		r.mu.Unlock()
		return false
	}

	for i, unit := range r.queue {
		if unit.op == op {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			r.mu.Unlock()
			return true
		}
	}

	r.mu.Unlock()
	return false
}

// AddOperator appends a unit for op to the tail of the queue. Appending is
// only valid while the run is in flight; it returns false once the run has
// terminated. If nothing is currently executing the append triggers a
// dispatch.
func (r *Run) AddOperator(op api.Operator) bool {
	r.mu.Lock()
	if r.state != stateRunning {
		r.mu.Unlock()
		return false
	}

	unit := newRunnableUnit(op, r, len(r.operators))
	r.queue = append(r.queue, unit)
	r.operators = append(r.operators, op)
	needsDispatch := r.current == nil
	r.mu.Unlock()

	if needsDispatch {
		r.poke()
	}
	return true
}

// IsRunning reports whether the run is still in the Running state.
func (r *Run) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRunning
}

// Data returns the shared data object. It is the same object for the run's
// whole life; operators mutate it in place, there are no intermediate
// snapshots.
func (r *Run) Data() any {
	return r.data
}

// Operators returns the run's operators in submission order, including any
// appended while running.
func (r *Run) Operators() []api.Operator {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]api.Operator, len(r.operators))
	copy(ops, r.operators)
	return ops
}

// emit records the terminal outcome, notifies the observer, and closes the
// done channel. The first emission wins; terminal states never change.
func (r *Run) emit(outcome api.RunOutcome) {
	r.emitOnce.Do(func() {
		r.outcome = outcome

		switch outcome {
		case api.OutcomeCanceled:
			r.observer.OnRunCanceled(r.ctx, r.id)
		case api.OutcomeFailed:
			r.observer.OnRunFinished(r.ctx, r.id, false)
		case api.OutcomeCompleted:
			r.observer.OnRunFinished(r.ctx, r.id, true)
		}

		close(r.done)
	})
}
