// Package metrics provides a Prometheus-backed Observer for the pipeline
// engine.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/voxpipe/pkg/api"
)

// Metric label values for run outcomes.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeCanceled  = "canceled"
)

// PrometheusObserver exports run and operator lifecycle events as Prometheus
// metrics. It implements api.Observer and can be combined with other
// observers via api.NewCompositeObserver.
type PrometheusObserver struct {
	runsStarted      prometheus.Counter
	runsTotal        *prometheus.CounterVec
	runsInFlight     prometheus.Gauge
	operatorDuration *prometheus.HistogramVec
}

// Ensure PrometheusObserver implements api.Observer.
var _ api.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the observer and registers its collectors
// with reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		runsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voxpipe_runs_started_total",
				Help: "Total number of pipeline runs submitted.",
			},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxpipe_runs_total",
				Help: "Total number of terminated pipeline runs by outcome.",
			},
			[]string{"outcome"},
		),
		runsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voxpipe_runs_in_flight",
				Help: "Number of pipeline runs currently executing.",
			},
		),
		operatorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voxpipe_operator_duration_seconds",
				Help:    "Duration of individual operator transforms, in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{
		o.runsStarted,
		o.runsTotal,
		o.runsInFlight,
		o.operatorDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return o, nil
}

func (o *PrometheusObserver) OnRunStart(ctx context.Context, runID string, operatorCount int) {
	o.runsStarted.Inc()
	o.runsInFlight.Inc()
}

func (o *PrometheusObserver) OnRunFinished(ctx context.Context, runID string, success bool) {
	outcome := outcomeCompleted
	if !success {
		outcome = outcomeFailed
	}
	o.runsTotal.WithLabelValues(outcome).Inc()
	o.runsInFlight.Dec()
}

func (o *PrometheusObserver) OnRunCanceled(ctx context.Context, runID string) {
	o.runsTotal.WithLabelValues(outcomeCanceled).Inc()
	o.runsInFlight.Dec()
}

func (o *PrometheusObserver) OnOperatorStart(ctx context.Context, runID string, label string, index int) {
}

func (o *PrometheusObserver) OnOperatorCompleted(ctx context.Context, runID string, label string, index int, result api.TransformResult, d time.Duration) {
	o.operatorDuration.WithLabelValues(result.String()).Observe(d.Seconds())
}
