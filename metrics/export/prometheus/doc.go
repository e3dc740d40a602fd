// Package prometheus exposes Manager metrics through client_golang.
//
// [Collector] implements prometheus.Collector over a metrics snapshot, and
// [Handler] mounts it on a private registry. Counter names are
// compass_auth_*_total; the single histogram is
// compass_auth_operation_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. Callers choose the registry.
//   - Mutate Manager state.
package prometheus
