package voxpipe

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// reconVolume is a toy stand-in for a tomographic volume.
type reconVolume struct {
	mu     sync.Mutex
	voxels []float64
	stages []string
}

func (v *reconVolume) stage(name string, fn func(voxels []float64)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.voxels)
	v.stages = append(v.stages, name)
}

func stageOp(name string, fn func(voxels []float64)) *FuncOperator {
	return NewFuncOperator(name, func(ctx context.Context, data any) error {
		data.(*reconVolume).stage(name, fn)
		return nil
	})
}

func TestPipelineEndToEnd(t *testing.T) {
	exec := NewPooledExecutor(2)
	t.Cleanup(func() { _ = exec.Close() })

	vol := &reconVolume{voxels: []float64{1, -2, 3}}

	invert := stageOp("invert", func(voxels []float64) {
		for i := range voxels {
			voxels[i] = -voxels[i]
		}
	})
	scale := stageOp("scale", func(voxels []float64) {
		for i := range voxels {
			voxels[i] *= 10
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := Submit(ctx, exec, vol, invert, scale)
	require.NoError(t, err)

	outcome, err := Wait(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, outcome)

	result := f.Result().(*reconVolume)
	require.Same(t, vol, result)
	require.Equal(t, []string{"invert", "scale"}, result.stages)
	require.Equal(t, []float64{-10, 20, -30}, result.voxels)
}

func TestPipelineErrorIsFatal(t *testing.T) {
	exec := NewPooledExecutor(1)
	t.Cleanup(func() { _ = exec.Close() })

	failing := NewFuncOperator("corrupt", func(ctx context.Context, data any) error {
		return errors.New("bad projection data")
	})
	after := stageOp("after", func([]float64) {})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	vol := &reconVolume{}
	f, err := Submit(ctx, exec, vol, failing, after)
	require.NoError(t, err)

	outcome, err := Wait(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome)
	require.Empty(t, vol.stages)
}

func TestPipelineCancellation(t *testing.T) {
	exec := NewPooledExecutor(1)
	t.Cleanup(func() { _ = exec.Close() })

	started := make(chan struct{})
	slow := NewFuncOperator("slow", func(ctx context.Context, data any) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := Submit(ctx, exec, &reconVolume{}, slow)
	require.NoError(t, err)

	<-started
	f.Cancel()

	outcome, err := Wait(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeCanceled, outcome)
	require.False(t, f.IsRunning())
}

func TestSQLiteExecutorJournalsHistory(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	exec, err := NewSQLiteExecutor(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := Submit(ctx, exec, &reconVolume{voxels: []float64{1}},
		stageOp("denoise", func([]float64) {}),
		stageOp("align", func([]float64) {}),
	)
	require.NoError(t, err)

	outcome, err := Wait(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, outcome)

	var status string
	var operators int
	err = db.QueryRow(`SELECT status, operators FROM runs`).Scan(&status, &operators)
	require.NoError(t, err)
	require.Equal(t, "COMPLETED", status)
	require.Equal(t, 2, operators)

	var opCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM run_operators`).Scan(&opCount)
	require.NoError(t, err)
	require.Equal(t, 2, opCount)
}

func TestExecutorWithObserver(t *testing.T) {
	metrics := &BasicMetrics{}
	exec := NewExecutorWithObserver(metrics)
	t.Cleanup(func() { _ = exec.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := Submit(ctx, exec, &reconVolume{}, stageOp("noop", func([]float64) {}))
	require.NoError(t, err)

	outcome, err := Wait(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, outcome)

	snap := metrics.Snapshot()
	require.EqualValues(t, 1, snap.RunsStarted)
	require.EqualValues(t, 1, snap.RunsCompleted)
	require.EqualValues(t, 1, snap.OperatorsCompleted)
}

func TestAddOperatorToRunningPipeline(t *testing.T) {
	exec := NewPooledExecutor(1)
	t.Cleanup(func() { _ = exec.Close() })

	started := make(chan struct{})
	release := make(chan struct{})
	gate := NewFuncOperator("gate", func(ctx context.Context, data any) error {
		close(started)
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	vol := &reconVolume{}
	f, err := Submit(ctx, exec, vol, gate)
	require.NoError(t, err)

	<-started
	appended := stageOp("appended", func([]float64) {})
	require.True(t, f.AddOperator(appended))
	close(release)

	outcome, err := Wait(ctx, f)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, outcome)
	require.Equal(t, []string{"appended"}, vol.stages)
	require.Len(t, f.Operators(), 2)
}
