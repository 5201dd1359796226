package voxpipe

import (
	"context"
	"sync"
)

// Batch collects several pipeline submissions on one Executor so they can be
// awaited or canceled as a group. The submissions themselves execute
// concurrently on the executor's pool, each internally sequential.
//
// Typical usage:
//
//	exec := voxpipe.NewExecutor()
//	batch := voxpipe.NewBatch(exec)
//	for _, vol := range volumes {
//	    _, _ = batch.Submit(ctx, vol, denoise, align)
//	}
//	outcomes, err := batch.Wait(ctx)
type Batch struct {
	exec Executor

	mu      sync.Mutex
	futures []Future
}

// NewBatch creates a Batch over exec.
func NewBatch(exec Executor) *Batch {
	return &Batch{exec: exec}
}

// Submit submits one pipeline and records its future in the batch.
func (b *Batch) Submit(ctx context.Context, data any, ops ...Operator) (Future, error) {
	f, err := b.exec.Submit(ctx, data, ops...)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.futures = append(b.futures, f)
	b.mu.Unlock()

	return f, nil
}

// Futures returns the futures submitted so far, in submission order.
func (b *Batch) Futures() []Future {
	b.mu.Lock()
	defer b.mu.Unlock()

	futures := make([]Future, len(b.futures))
	copy(futures, b.futures)
	return futures
}

// Wait blocks until every submitted run terminates or ctx is done. On
// success it returns one outcome per submission, in submission order.
func (b *Batch) Wait(ctx context.Context) ([]RunOutcome, error) {
	futures := b.Futures()

	outcomes := make([]RunOutcome, len(futures))
	for i, f := range futures {
		outcome, err := f.Wait(ctx)
		if err != nil {
			return nil, err
		}
		outcomes[i] = outcome
	}

	return outcomes, nil
}

// Cancel cancels every run in the batch. Runs that already terminated are
// unaffected.
func (b *Batch) Cancel() {
	for _, f := range b.Futures() {
		f.Cancel()
	}
}
