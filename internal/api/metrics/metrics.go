// Package metrics defines and registers all custom Prometheus metrics for the
// task tracker API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tasktracker"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login requests.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthFailuresTotal counts rejected bearer credentials.
// Label:
//   - reason: internal rejection reason (e.g. "expired", "bad_signature", "unknown_user")
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected as unauthenticated, by reason.",
	},
	[]string{"reason"},
)

// ForbiddenTotal counts authenticated requests denied by a role gate.
// Label:
//   - role: the caller's role
var ForbiddenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forbidden_total",
		Help:      "Total number of requests denied because of the caller's role.",
	},
	[]string{"role"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts successful task creations.
var TasksCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created.",
	},
)

// TaskStatusUpdatesTotal counts status changes.
// Label:
//   - status: the new status ("Pending", "In Progress", "Completed")
var TaskStatusUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_status_updates_total",
		Help:      "Total number of task status updates, by new status.",
	},
	[]string{"status"},
)

// TasksDeletedTotal counts deleted tasks.
var TasksDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_deleted_total",
		Help:      "Total number of tasks deleted.",
	},
)

// AuditEventsDroppedTotal counts audit events discarded by the dispatcher.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of task audit events dropped before reaching storage.",
	},
)
