// Package metrics defines the Prometheus metrics exported by codeprobe.
//
// Metrics are registered with the default registry at init time and served
// by Handler on /metrics.
package metrics
