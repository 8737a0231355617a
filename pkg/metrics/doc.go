// Package metrics exposes Prometheus text-format metrics (version 0.0.4)
// using only the standard library.
//
// A Registry holds counters, gauges and histograms, each a family of series
// keyed by label values. Registry.Handler renders every family that has at
// least one series.
//
// Set bundles the series mockapi reports:
//
//   - mockapi_requests_total{method,kind,status}
//   - mockapi_request_duration_seconds{method,kind}
//   - mockapi_dependent_calls_total{outcome}
//   - mockapi_webhooks_total{outcome}
//   - mockapi_uptime_seconds and go_goroutines, sampled at scrape time
package metrics
