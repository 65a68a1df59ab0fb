package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	toolExecutionTotal    *prometheus.CounterVec
	toolExecutionDuration *prometheus.HistogramVec
	toolErrorsTotal       *prometheus.CounterVec

	modelCallTotal    *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	modelRetriesTotal *prometheus.CounterVec

	approvalTotal *prometheus.CounterVec
	turnsTotal    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "smolcc_tool_execution_total",
					Help: "Total tool executions by tool and status.",
				},
				[]string{"tool", "status"},
			),
			toolExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "smolcc_tool_execution_duration_seconds",
					Help:    "Tool execution duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			toolErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "smolcc_tool_errors_total",
					Help: "Total failed tool results by tool and error kind.",
				},
				[]string{"tool", "kind"},
			),
			modelCallTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "smolcc_model_call_total",
					Help: "Total model calls by provider and status.",
				},
				[]string{"provider", "status"},
			),
			modelCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "smolcc_model_call_duration_seconds",
					Help:    "Model call duration in seconds by provider.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			modelRetriesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "smolcc_model_retries_total",
					Help: "Total model call retries by provider.",
				},
				[]string{"provider"},
			),
			approvalTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "smolcc_approval_total",
					Help: "Total confirmation decisions by tool and decision.",
				},
				[]string{"tool", "decision"},
			),
			turnsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "smolcc_session_turns_total",
					Help: "Total conversation turns appended by role.",
				},
				[]string{"role"},
			),
		}

		prometheus.MustRegister(
			m.toolExecutionTotal,
			m.toolExecutionDuration,
			m.toolErrorsTotal,
			m.modelCallTotal,
			m.modelCallDuration,
			m.modelRetriesTotal,
			m.approvalTotal,
			m.turnsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordToolExecution records one dispatched call. An empty kind means success.
func RecordToolExecution(tool string, duration time.Duration, kind string) {
	m := getMetrics()
	status := "success"
	if kind != "" {
		status = "error"
		m.toolErrorsTotal.WithLabelValues(tool, kind).Inc()
	}
	m.toolExecutionTotal.WithLabelValues(tool, status).Inc()
	m.toolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordToolRejection counts a call that failed before dispatch
func RecordToolRejection(tool string, kind string) {
	m := getMetrics()
	m.toolErrorsTotal.WithLabelValues(tool, kind).Inc()
}

func RecordModelCall(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.modelCallTotal.WithLabelValues(provider, status).Inc()
	m.modelCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordModelRetry(provider string) {
	m := getMetrics()
	m.modelRetriesTotal.WithLabelValues(provider).Inc()
}

func RecordApproval(tool string, approved bool) {
	m := getMetrics()
	decision := "denied"
	if approved {
		decision = "approved"
	}
	m.approvalTotal.WithLabelValues(tool, decision).Inc()
}

func RecordTurn(role string) {
	m := getMetrics()
	m.turnsTotal.WithLabelValues(role).Inc()
}
