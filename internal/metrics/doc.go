// Package metrics counts analyses and benchmark runs and renders them in the
// Prometheus text exposition format.
//
// Registry is updated by the API handlers. Gather builds client_model
// MetricFamily values; ServeHTTP encodes them with expfmt. There is no
// client_golang dependency: the handful of series is kept by hand.
package metrics
