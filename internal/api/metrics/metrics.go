// Package metrics defines and registers all custom Prometheus metrics for the
// SCEH++ portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry on package load via
// promauto, and are served next to the echo HTTP metrics on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - method: "password", "quick", "college", "oauth", "saml" or "ldap"
//   - result: "success" or the failure reason (e.g. "invalid_credentials")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// LogoutsTotal counts logout requests, including no-op repeats.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout requests.",
	},
)

// SessionLookupsTotal counts per-request session resolution.
// Label:
//   - result: "hit" (session found) or "miss" (anonymous)
var SessionLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_lookups_total",
		Help:      "Total number of session lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts page guard outcomes.
// Labels:
//   - page: route name (e.g. "admin", "faculty-dashboard")
//   - decision: "allow", "redirect", "placeholder" or "forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by page and decision.",
	},
	[]string{"page", "decision"},
)

// ── Identity provider metrics ─────────────────────────────────────────────────

// IdentityProviderDuration measures external authentication round trips.
// Labels:
//   - provider: "college", "oauth", "saml" or "ldap"
//   - result: "success" or "failure"
var IdentityProviderDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "identity_provider_duration_seconds",
		Help:      "Duration of external identity provider authentication calls.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"provider", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit trail writes.
// Label:
//   - result: "recorded", "failed" or "dropped" (worker buffer full)
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of session audit events, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
