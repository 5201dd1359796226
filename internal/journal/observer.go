package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/petrijr/voxpipe/pkg/api"
)

// Observer is an api.Observer that writes run history into a Store. Store
// errors never propagate into pipeline execution; they are logged and
// dropped.
type Observer struct {
	store  Store
	logger *slog.Logger
}

// NewObserver creates a journaling observer over store. If logger is nil,
// slog.Default() is used for store errors.
func NewObserver(store Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{store: store, logger: logger}
}

// Ensure Observer implements api.Observer.
var _ api.Observer = (*Observer)(nil)

func (o *Observer) OnRunStart(ctx context.Context, runID string, operatorCount int) {
	err := o.store.SaveRun(&RunRecord{
		ID:        runID,
		Status:    StatusRunning,
		Operators: operatorCount,
		StartedAt: time.Now(),
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "journal: save run failed",
			slog.String("run_id", runID),
			slog.Any("error", err),
		)
	}
}

func (o *Observer) OnRunFinished(ctx context.Context, runID string, success bool) {
	status := StatusCompleted
	if !success {
		status = StatusFailed
	}
	o.finish(ctx, runID, status)
}

func (o *Observer) OnRunCanceled(ctx context.Context, runID string) {
	o.finish(ctx, runID, StatusCanceled)
}

func (o *Observer) OnOperatorStart(ctx context.Context, runID string, label string, index int) {
}

func (o *Observer) OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result api.TransformResult, d time.Duration) {
	err := o.store.AppendOperator(&OperatorRecord{
		RunID:       runID,
		Index:       index,
		Label:       label,
		Result:      result.String(),
		Duration:    d,
		CompletedAt: time.Now(),
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "journal: append operator failed",
			slog.String("run_id", runID),
			slog.String("operator", label),
			slog.Any("error", err),
		)
	}
}

func (o *Observer) finish(ctx context.Context, runID string, status Status) {
	if err := o.store.FinishRun(runID, status, time.Now()); err != nil {
		o.logger.ErrorContext(ctx, "journal: finish run failed",
			slog.String("run_id", runID),
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
	}
}
