// Package prometheus exposes authcore engine metrics as a
// prometheus.Collector.
//
// Counter names are prefixed authcore_*_total; the single histogram is
// authcore_authenticate_latency_seconds. [Exporter.Handler] serves a private
// registry, or callers register the Exporter on their own.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
