package api

import (
	"context"
	"errors"
	"testing"
)

func TestTransformResultString(t *testing.T) {
	cases := []struct {
		result TransformResult
		want   string
	}{
		{TransformComplete, "complete"},
		{TransformError, "error"},
		{TransformCanceled, "canceled"},
		{TransformResult(42), "unknown"},
	}
	for _, c := range cases {
		if got := c.result.String(); got != c.want {
			t.Fatalf("String(%d): want %q, got %q", int(c.result), c.want, got)
		}
	}
}

func TestFuncOperatorComplete(t *testing.T) {
	var got any
	op := NewFuncOperator("invert", func(ctx context.Context, data any) error {
		got = data
		return nil
	})

	data := map[string]int{"voxels": 3}
	if result := op.Transform(data); result != TransformComplete {
		t.Fatalf("expected TransformComplete, got %v", result)
	}
	if gotMap, ok := got.(map[string]int); !ok || gotMap["voxels"] != 3 {
		t.Fatalf("transform function did not receive the data object")
	}
	if op.Label() != "invert" {
		t.Fatalf("unexpected label %q", op.Label())
	}
}

func TestFuncOperatorError(t *testing.T) {
	op := NewFuncOperator("broken", func(ctx context.Context, data any) error {
		return errors.New("boom")
	})

	if result := op.Transform(nil); result != TransformError {
		t.Fatalf("expected TransformError, got %v", result)
	}
}

func TestFuncOperatorNilFn(t *testing.T) {
	op := NewFuncOperator("noop", nil)

	if result := op.Transform(nil); result != TransformComplete {
		t.Fatalf("a nil fn must be a no-op success, got %v", result)
	}
}

func TestFuncOperatorCancelMidTransform(t *testing.T) {
	inTransform := make(chan struct{})
	op := NewFuncOperator("slow", func(ctx context.Context, data any) error {
		close(inTransform)
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan TransformResult, 1)
	go func() {
		done <- op.Transform(nil)
	}()

	<-inTransform
	op.CancelTransform()

	if result := <-done; result != TransformCanceled {
		t.Fatalf("expected TransformCanceled, got %v", result)
	}
	if !op.IsCanceled() {
		t.Fatalf("IsCanceled must report true after CancelTransform")
	}
}

func TestFuncOperatorCancelBeforeTransform(t *testing.T) {
	ran := false
	op := NewFuncOperator("never", func(ctx context.Context, data any) error {
		ran = true
		return nil
	})

	op.CancelTransform()
	if result := op.Transform(nil); result != TransformCanceled {
		t.Fatalf("expected TransformCanceled, got %v", result)
	}
	if ran {
		t.Fatalf("a pre-canceled operator must not invoke its function")
	}
}

func TestFuncOperatorResetState(t *testing.T) {
	op := NewFuncOperator("reusable", func(ctx context.Context, data any) error {
		return nil
	})

	op.CancelTransform()
	op.ResetState()

	if op.IsCanceled() {
		t.Fatalf("ResetState must clear the cancellation flag")
	}
	if result := op.Transform(nil); result != TransformComplete {
		t.Fatalf("expected TransformComplete after reset, got %v", result)
	}
}

func TestOperatorLabel(t *testing.T) {
	labeled := NewFuncOperator("named", nil)
	if got := OperatorLabel(labeled, "fallback"); got != "named" {
		t.Fatalf("expected %q, got %q", "named", got)
	}

	unnamed := NewFuncOperator("", nil)
	if got := OperatorLabel(unnamed, "fallback"); got != "fallback" {
		t.Fatalf("expected %q, got %q", "fallback", got)
	}
}
