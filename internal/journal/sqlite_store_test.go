package journal

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreRunLifecycle(t *testing.T) {
	store := newTestSQLiteStore(t)
	started := time.Now()

	err := store.SaveRun(&RunRecord{
		ID:        "run-1",
		Status:    StatusRunning,
		Operators: 2,
		StartedAt: started,
	})
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	rec, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if rec.Status != StatusRunning || rec.Operators != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.FinishedAt.IsZero() {
		t.Fatalf("FinishedAt must be zero while the run is in flight")
	}
	if !rec.StartedAt.Equal(started) {
		t.Fatalf("StartedAt mismatch: want %v, got %v", started, rec.StartedAt)
	}

	finished := started.Add(2 * time.Second)
	if err := store.FinishRun("run-1", StatusCanceled, finished); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	rec, err = store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if rec.Status != StatusCanceled {
		t.Fatalf("expected status %q, got %q", StatusCanceled, rec.Status)
	}
	if !rec.FinishedAt.Equal(finished) {
		t.Fatalf("FinishedAt mismatch: want %v, got %v", finished, rec.FinishedAt)
	}
}

func TestSQLiteStoreUnknownRun(t *testing.T) {
	store := newTestSQLiteStore(t)

	if _, err := store.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun("missing", StatusCompleted, time.Now()); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteStoreListRunsFilter(t *testing.T) {
	store := newTestSQLiteStore(t)
	now := time.Now()

	for i, status := range []Status{StatusCompleted, StatusFailed, StatusCompleted} {
		id := string(rune('a' + i))
		rec := &RunRecord{ID: id, Status: StatusRunning, StartedAt: now.Add(time.Duration(i) * time.Second)}
		if err := store.SaveRun(rec); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		if err := store.FinishRun(id, status, now.Add(time.Minute)); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}
	}

	all, err := store.ListRuns(RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	// Ordered by start time.
	if all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Fatalf("unexpected order: %v, %v, %v", all[0].ID, all[1].ID, all[2].ID)
	}

	failed, err := store.ListRuns(RunFilter{Status: StatusFailed})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "b" {
		t.Fatalf("unexpected filtered result: %+v", failed)
	}
}

func TestSQLiteStoreOperators(t *testing.T) {
	store := newTestSQLiteStore(t)

	if err := store.SaveRun(&RunRecord{ID: "run-1", Status: StatusRunning, StartedAt: time.Now()}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	completedAt := time.Now()
	for i, label := range []string{"denoise", "align", "reconstruct"} {
		err := store.AppendOperator(&OperatorRecord{
			RunID:       "run-1",
			Index:       i,
			Label:       label,
			Result:      "COMPLETE",
			Duration:    time.Duration(i+1) * 10 * time.Millisecond,
			CompletedAt: completedAt,
		})
		if err != nil {
			t.Fatalf("AppendOperator failed: %v", err)
		}
	}

	ops, err := store.ListOperators("run-1")
	if err != nil {
		t.Fatalf("ListOperators failed: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operators, got %d", len(ops))
	}
	for i, want := range []string{"denoise", "align", "reconstruct"} {
		if ops[i].Label != want {
			t.Fatalf("operator %d: want label %q, got %q", i, want, ops[i].Label)
		}
		if ops[i].Index != i {
			t.Fatalf("operator %d: want index %d, got %d", i, i, ops[i].Index)
		}
	}
	if ops[1].Duration != 20*time.Millisecond {
		t.Fatalf("duration mismatch: %v", ops[1].Duration)
	}
	if !ops[0].CompletedAt.Equal(completedAt) {
		t.Fatalf("CompletedAt mismatch: want %v, got %v", completedAt, ops[0].CompletedAt)
	}

	none, err := store.ListOperators("missing")
	if err != nil {
		t.Fatalf("ListOperators failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no operators for an unknown run, got %d", len(none))
	}
}
