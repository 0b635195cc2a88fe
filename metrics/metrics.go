// Package metrics defines and registers the Prometheus metrics of the leave
// planner. It is the single source of truth for metric names, labels and
// help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leave"

// ── Leave request metrics ─────────────────────────────────────────────────────

// RequestOperationsTotal counts lifecycle operations by result.
// Labels:
//   - operation: "create", "update", "status", "delete"
//   - type: "vacation" or "sick" ("" when the request could not be resolved)
//   - result: "ok" or the failure kind (e.g. "insufficient_balance", "overlap")
var RequestOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_operations_total",
		Help:      "Total number of leave request operations, by operation, type and result.",
	},
	[]string{"operation", "type", "result"},
)

// StatusTransitionsTotal counts admin status changes.
// Labels:
//   - from, to: "pending", "approved", "rejected"
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of leave request status transitions.",
	},
	[]string{"from", "to"},
)

// RequestedWorkingDays observes the working-day size of accepted vacation requests.
var RequestedWorkingDays = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "requested_working_days",
		Help:      "Working days per accepted vacation request.",
		Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 30},
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts PIN login attempts.
// Label:
//   - result: "ok", "invalid" or "locked"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of PIN login attempts, by result.",
	},
	[]string{"result"},
)
