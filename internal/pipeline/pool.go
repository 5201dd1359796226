package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("worker pool is closed")

// DefaultPoolSize returns the default number of pool workers: half the
// available hardware concurrency, minimum one. Half, because pipeline
// execution typically coexists with an interactive workload (rendering,
// serving) that needs the rest of the machine.
func DefaultPoolSize() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// Task states. A task moves taskPending -> taskRunning exactly once; a
// pending task may instead move to taskRemoved and is then skipped by the
// worker that picks it up.
const (
	taskPending int32 = iota
	taskRunning
	taskRemoved
)

// TaskHandle identifies one submitted task and allows best-effort removal
// before it starts.
type TaskHandle struct {
	state atomic.Int32
	fn    func()
}

// TryRemove removes the task from the pool's pending queue if it has not
// started yet. It returns true if the task was removed and will never run,
// false if the task is already running or finished.
func (t *TaskHandle) TryRemove() bool {
	return t.state.CompareAndSwap(taskPending, taskRemoved)
}

// Pool is a bounded worker pool. A fixed number of workers drain a shared
// task queue; tasks run in submission order subject to worker availability.
//
// Pools are safe for concurrent use. Multiple runs share one pool; each run
// submits at most one task at a time, so pool capacity bounds how many runs
// make progress concurrently.
type Pool struct {
	tasks chan *TaskHandle
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool with the given number of workers. A size <= 0 falls
// back to DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize()
	}

	p := &Pool{
		tasks: make(chan *TaskHandle, 1024),
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				if !t.state.CompareAndSwap(taskPending, taskRunning) {
					// Removed before it started.
					continue
				}
				t.fn()
			}
		}()
	}

	return p
}

// Submit queues fn for execution on a pool worker and returns a handle that
// can be used to remove it before it starts.
func (p *Pool) Submit(fn func()) (*TaskHandle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	t := &TaskHandle{fn: fn}
	p.tasks <- t
	return t, nil
}

// Close stops accepting tasks and waits for the workers to drain the queue
// and exit. It is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Process-wide default pool, built lazily exactly once. The size may be
// overridden with SetDefaultPoolSize before the pool is first used; after
// that it is fixed for the process lifetime. There is no teardown: the
// default pool lives as long as the process.
var (
	defaultPoolMu   sync.Mutex
	defaultPool     *Pool
	defaultPoolSize int
)

// DefaultPool returns the process-wide pool, creating it on first use.
func DefaultPool() *Pool {
	defaultPoolMu.Lock()
	defer defaultPoolMu.Unlock()

	if defaultPool == nil {
		defaultPool = NewPool(defaultPoolSize)
	}
	return defaultPool
}

// SetDefaultPoolSize configures the size of the process-wide pool. It must
// be called before the first use of DefaultPool; afterwards the pool is
// already running and the size can no longer change.
func SetDefaultPoolSize(size int) error {
	if size < 1 {
		return fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	defaultPoolMu.Lock()
	defer defaultPoolMu.Unlock()

	if defaultPool != nil {
		return errors.New("default pool is already in use")
	}
	defaultPoolSize = size
	return nil
}
