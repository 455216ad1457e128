package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExecutionBuckets covers sandbox runs from a few milliseconds up to the
// longest configurable timeouts
var ExecutionBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Execution outcomes
const (
	OutcomeOK           = "ok"
	OutcomeCompileError = "compile_error"
	OutcomeRuntimeError = "runtime_error"
	OutcomeTimeout      = "timeout"
	OutcomeFailed       = "failed"
)

var (
	// ExecutionsTotal counts sandbox executions by language, backend and outcome.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeprobe_executions_total",
			Help: "Sandbox executions",
		},
		[]string{"language", "backend", "outcome"},
	)

	// ExecutionDuration records wall-clock execution time in seconds.
	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeprobe_execution_duration_seconds",
			Help:    "Sandbox execution duration",
			Buckets: ExecutionBuckets,
		},
		[]string{"language", "backend"},
	)

	// WorkspaceLeaksTotal counts workspaces that could not be removed.
	WorkspaceLeaksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codeprobe_workspace_leaks_total",
			Help: "Workspaces left on disk after cleanup retries",
		},
	)

	// AnalysesTotal counts analysis reports by language and source.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeprobe_analyses_total",
			Help: "Analysis requests",
		},
		[]string{"language", "source"},
	)

	// ProviderRequestsTotal counts calls to the AI provider.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeprobe_provider_requests_total",
			Help: "AI provider requests",
		},
		[]string{"model", "status"},
	)

	// ProviderLatency records AI provider latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeprobe_provider_latency_seconds",
			Help:    "AI provider latency",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	// ThrottledTotal counts remote calls skipped by the rate window.
	ThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codeprobe_provider_throttled_total",
			Help: "Remote analyses skipped because the rate window was nearly exhausted",
		},
	)

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeprobe_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeprobe_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		ExecutionsTotal,
		ExecutionDuration,
		WorkspaceLeaksTotal,
		AnalysesTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		ThrottledTotal,
		RequestsTotal,
		RequestDuration,
	)
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass maps an HTTP status code to its class label ("2xx", "4xx")
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
