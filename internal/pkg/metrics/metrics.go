// Package metrics defines the custom Prometheus metrics of the chapter
// portal. It is the single source of truth for metric names, labels, and
// help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreOperationsTotal counts mutating store operations.
// Labels:
//   - store: table name (e.g. "members", "grandChancellors")
//   - op: "add", "update", "delete" or "upsert"
//   - result: "ok", "denied", "not_found" or "error"
var StoreOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Total number of store mutations, by store, operation and result.",
	},
	[]string{"store", "op", "result"},
)

// StoreLoadFailuresTotal counts background loads that left a store stale.
var StoreLoadFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_load_failures_total",
		Help:      "Total number of failed store loads, by store.",
	},
	[]string{"store"},
)

// StoreLoadDuration measures a full reload of one store.
var StoreLoadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_load_duration_seconds",
		Help:      "Duration of a store load from the remote table.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"store"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// ActiveSessions tracks the portals currently held by the session registry.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of logged-in sessions held in memory.",
	},
)

// IdentityRetriesTotal counts retried identity-provider calls.
// Label:
//   - call: "session", "sign_in" or "profile"
var IdentityRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_retries_total",
		Help:      "Total number of retried identity resolution calls.",
	},
	[]string{"call"},
)

// ── Loader metrics ────────────────────────────────────────────────────────────

// LoaderQueueDepth tracks pending load jobs per loader worker.
var LoaderQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "loader_queue_depth",
		Help:      "Current number of load jobs pending in each loader worker channel.",
	},
	[]string{"worker_id"},
)

// LoaderJobsDroppedTotal counts load jobs rejected because a worker queue was full.
var LoaderJobsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loader_jobs_dropped_total",
		Help:      "Total number of load jobs dropped on a full worker queue.",
	},
)
