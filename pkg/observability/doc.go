/*
Package observability exposes run progress as Prometheus metrics.

Metrics are fed by lifecycle hooks, so any engine that accepts a
domain.LifecycleHooks can be instrumented without further wiring.
*/
package observability
