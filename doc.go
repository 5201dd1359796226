// Package voxpipe provides an embeddable execution engine for operator
// pipelines over shared, mutable data objects.
//
// Voxpipe grew out of tomographic reconstruction workloads, where an ordered
// sequence of data-transform operators (denoise, align, reconstruct, ...)
// is applied to a single in-memory volume while an interactive application
// keeps rendering it. The engine is domain-agnostic: any ordered list of
// transforms over one shared value fits the model.
//
// # Core Concepts
//
// The voxpipe programming model is intentionally small:
//
//  1. Operator
//  2. Executor
//  3. Future
//  4. Observer
//
// # Operator
//
// An Operator is a unit of data transformation with cooperative
// cancellation. It mutates the run's shared data object in place and reports
// complete, error, or canceled. Operators within one run always execute
// sequentially, in submission order, because each depends on the output of
// the previous one. There is no automatic retry: an operator error
// terminates its run, and recovery is a fresh submission.
//
// FuncOperator adapts a plain function to the Operator interface for callers
// that don't need a custom type.
//
// # Executor
//
// The Executor turns a data object plus an ordered operator list into a run
// on a bounded worker pool and returns a Future immediately. The pool
// defaults to half the machine's hardware concurrency (minimum one worker),
// leaving headroom for the rendering or serving workload that typically
// coexists with pipeline execution. Executors can share the process-wide
// pool or own a pool of an explicit size.
//
// Every run is recorded in a journal: in-memory by default, SQLite for
// durable history.
//
// # Future
//
// The Future is the caller's handle to a run. It supports whole-pipeline
// cancellation, targeted cancellation of a single queued operator, appending
// operators to a run still in flight, inspecting the (possibly intermediate)
// data object, and waiting for the terminal outcome. Cancellation is
// cooperative: the running operator is asked to stop and the run reports a
// canceled outcome once it has.
//
// # Observer
//
// Observers receive run and operator lifecycle events. LoggingObserver
// writes structured logs with log/slog, BasicMetrics keeps in-process
// counters, pkg/metrics exports Prometheus metrics, and CompositeObserver
// combines several observers.
//
// For runnable examples, see the /examples directory.
package voxpipe
