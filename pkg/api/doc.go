// Package api contains the core building blocks used by the voxpipe pipeline
// engine. It defines the contracts between callers, operators, and the
// execution engine.
//
// Most users interact with the higher-level voxpipe package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// engine itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Operators: units of data transformation with cooperative cancellation
//   - Executors: the submission surface that turns an ordered operator list
//     plus a shared data object into a run
//   - Futures: caller-facing handles to in-flight or completed runs
//   - Observability: lifecycle callbacks for logging and metrics
//
// # Operators
//
// An Operator mutates the run's shared data object in place and reports one
// of three results: complete, error, or canceled. Operators within one run
// execute strictly sequentially, because each depends on the output of the
// previous one; independent runs execute concurrently on the shared worker
// pool. Cancellation is cooperative: the engine sets a flag and the operator
// is expected to notice it inside its own transform loop.
//
// # Futures
//
// Submit returns a Future immediately, before the first operator can have
// executed. The Future supports whole-pipeline cancellation, targeted
// cancellation of a single queued operator, appending operators to a run
// that is still in flight, and waiting for the terminal outcome.
//
// # Observability
//
// The Observer interface receives run and operator lifecycle events.
// LoggingObserver emits structured logs via log/slog, BasicMetrics keeps
// in-process counters, and CompositeObserver fans out to several observers
// at once. The pkg/metrics package provides a Prometheus-backed observer.
package api
