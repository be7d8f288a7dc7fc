// Package metric provides Prometheus metrics for the Emplo client.
//
//   - prometheus.go: registry of session and identity-service metrics
//   - collector.go: collector reporting the current session phase
//
// The CLI is a short-lived process, so metrics are not scraped over HTTP.
// When a metrics file is configured they are written with
// prometheus.WriteToTextfile for the node-exporter textfile collector.
package metric
