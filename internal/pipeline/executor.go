package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/petrijr/voxpipe/internal/journal"
	"github.com/petrijr/voxpipe/pkg/api"
)

var (
	// ErrExecutorClosed is returned by Submit after Close.
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrNilData is returned by Submit when no data object is provided.
	// Every unit in a run references the shared data object, so it must
	// exist before the first dispatch.
	ErrNilData = errors.New("data object is required")
)

// Config describes how to construct an executor.
type Config struct {
	// Pool is the worker pool runs execute on. If nil, PoolSize decides.
	Pool *Pool

	// PoolSize is the number of workers for a pool owned by this executor.
	// Ignored when Pool is set; <= 0 means the process-wide default pool.
	PoolSize int

	// Observer receives run and operator lifecycle events.
	Observer api.Observer

	// Journal records run history. If nil, runs are not journaled.
	Journal journal.Store
}

// executor is the submission surface over the run machinery. It is safe for
// concurrent use; independent runs execute concurrently on the shared pool,
// each internally sequential.
type executor struct {
	pool     *Pool
	ownsPool bool
	observer api.Observer

	mu     sync.Mutex
	closed bool
	runs   map[string]*Run
	wg     sync.WaitGroup
}

// NewExecutor creates an executor from cfg.
func NewExecutor(cfg Config) api.Executor {
	pool := cfg.Pool
	ownsPool := false
	if pool == nil {
		if cfg.PoolSize > 0 {
			pool = NewPool(cfg.PoolSize)
			ownsPool = true
		} else {
			pool = DefaultPool()
		}
	}

	obs := cfg.Observer
	if cfg.Journal != nil {
		obs = api.NewCompositeObserver(obs, journal.NewObserver(cfg.Journal, nil))
	}
	if obs == nil {
		obs = api.NoopObserver{}
	}

	return &executor{
		pool:     pool,
		ownsPool: ownsPool,
		observer: obs,
		runs:     make(map[string]*Run),
	}
}

// Submit resets every operator, builds a run over data, starts it, and
// returns the future immediately. The first operator is dispatched
// asynchronously on the run's owner goroutine.
func (e *executor) Submit(ctx context.Context, data any, ops ...api.Operator) (api.Future, error) {
	if len(ops) == 0 {
		return nil, api.ErrNoOperators
	}
	if data == nil {
		return nil, ErrNilData
	}

	// Clear stale status left from a prior run before anything is queued.
	for _, op := range ops {
		op.ResetState()
	}

	queued := make([]api.Operator, len(ops))
	copy(queued, ops)

	run := newRun(ctx, uuid.NewString(), data, queued, e.pool, e.observer)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrExecutorClosed
	}
	e.runs[run.id] = run
	e.wg.Add(1)
	e.mu.Unlock()

	e.observer.OnRunStart(ctx, run.id, len(queued))
	fut := run.start()

	go func() {
		defer e.wg.Done()
		<-run.done
		e.mu.Lock()
		delete(e.runs, run.id)
		e.mu.Unlock()
	}()

	return fut, nil
}

// Close cancels all in-flight runs, waits for them to terminate, and shuts
// down the pool if this executor owns it. It is idempotent.
//
// Close blocks on cooperative cancellation: a non-cooperative operator that
// never observes its flag will hold Close until its transform returns.
func (e *executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	inflight := make([]*Run, 0, len(e.runs))
	for _, r := range e.runs {
		inflight = append(inflight, r)
	}
	e.mu.Unlock()

	for _, r := range inflight {
		r.Cancel()
	}
	e.wg.Wait()

	if e.ownsPool {
		e.pool.Close()
	}
	return nil
}
