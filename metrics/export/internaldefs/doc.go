// Package internaldefs holds the metric names and bucket bounds both exporters
// publish, so the Prometheus and OTel views of a Manager never drift apart.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
