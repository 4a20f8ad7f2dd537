// Package metrics defines and registers all custom Prometheus metrics for the
// print proxy console. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls made to the print proxy backend.
// Labels:
//   - method: HTTP method
//   - kind: "ok" or the error kind (e.g. "network", "validation", "cancelled")
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of backend requests, by method and outcome kind.",
	},
	[]string{"method", "kind"},
)

// UpstreamRequestDuration measures backend round trips.
// Label:
//   - method: HTTP method
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of backend requests from send to body read.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// UpstreamDedupCancelledTotal counts pending requests aborted because an
// identical request superseded them.
var UpstreamDedupCancelledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_dedup_cancelled_total",
		Help:      "Total number of pending backend requests superseded by a duplicate.",
	},
)

// RetryAttemptsTotal counts retries of idempotent reads.
// Label:
//   - operation: logical operation name (e.g. "printers.list")
var RetryAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retry_attempts_total",
		Help:      "Total number of retried backend operations.",
	},
	[]string{"operation"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// ActiveSessions tracks operator workspaces currently held in memory.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of operator workspaces held in memory.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Log stream metrics ────────────────────────────────────────────────────────

// LogStreamSubscribers tracks live websocket subscribers.
var LogStreamSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "log_stream_subscribers",
		Help:      "Current number of websocket subscribers to the live log stream.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks audit entries pending in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditErrorsTotal counts audit entries that could not be persisted.
// Label:
//   - reason: "queue_full" or "insert_failed"
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit entries dropped or failed.",
	},
	[]string{"reason"},
)
