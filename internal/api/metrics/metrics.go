// Package metrics defines and registers all custom Prometheus metrics for the
// credit engine. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry via promauto at package
// load; the /metrics endpoint is wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credits"

// ── Charge metrics ────────────────────────────────────────────────────────────

// ChargesTotal counts debits taken before an external operation ran.
// Label:
//   - feature: the feature tag being charged (e.g. "phone_lookup")
var ChargesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charges_total",
		Help:      "Total number of credit debits taken for chargeable operations.",
	},
	[]string{"feature"},
)

// RefundsTotal counts debits reversed because the operation produced nothing.
// Label:
//   - feature: the feature tag that was refunded
var RefundsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refunds_total",
		Help:      "Total number of charges refunded after empty or failed operations.",
	},
	[]string{"feature"},
)

// RefundFailuresTotal counts refunds that could not be written back. Every
// increment is an accounting discrepancy that needs operator attention.
var RefundFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refund_failures_total",
		Help:      "Total number of refund attempts that failed against the ledger store.",
	},
)

// DeniesTotal counts quota denials.
// Label:
//   - reason: "blocked", "insufficient_credits" or "daily_cap_reached"
var DeniesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "denies_total",
		Help:      "Total number of requests denied by the quota policy, by reason.",
	},
	[]string{"reason"},
)

// ── Grant metrics ─────────────────────────────────────────────────────────────

// DailyGrantsTotal counts daily free-credit grants actually applied (at most
// one per account per calendar day).
var DailyGrantsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_grants_total",
		Help:      "Total number of daily free-credit grants applied.",
	},
)

// ── Admin metrics ─────────────────────────────────────────────────────────────

// AdminActionsTotal counts privileged mutations.
// Labels:
//   - action: "grant", "revoke", "block", "unblock", "promote", "demote"
//   - outcome: "ok" or "rejected"
var AdminActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_actions_total",
		Help:      "Total number of admin mutations, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// ── Dispatcher metrics ────────────────────────────────────────────────────────

// ChargeQueueDepth tracks the number of charge requests waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ChargeQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "charge_queue_depth",
		Help:      "Current number of charge requests pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
