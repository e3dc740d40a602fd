// Package otel binds Manager metrics to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter, a
// cumulative gauge per histogram bucket, and a session state gauge. A single
// callback reads a fresh snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate Manager state.
package otel
