// Package metrics defines and registers all custom Prometheus metrics for the
// shipment lifecycle engine. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import
// through promauto, so the /metrics endpoint exposes them without extra wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shipping"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// TransitionsTotal counts accepted status transitions.
// Label:
//   - status: the status the shipment moved to (e.g. "picked_up")
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of accepted shipment status transitions.",
	},
	[]string{"status"},
)

// TransitionsRejectedTotal counts transitions refused by the state machine.
// Label:
//   - reason: "terminal_state", "invalid_transition", "quarantined" or "conflict"
var TransitionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_rejected_total",
		Help:      "Total number of rejected shipment status transitions.",
	},
	[]string{"reason"},
)

// LedgerCorruptionsTotal counts ledgers whose replay disagreed with the cached status.
var LedgerCorruptionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_corruptions_total",
		Help:      "Total number of tracking ledgers found inconsistent and quarantined.",
	},
)

// ShipmentsCreatedTotal counts newly created shipments.
// Label:
//   - service_type: catalog code of the chosen service (e.g. "express")
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by service type.",
	},
	[]string{"service_type"},
)

// ── Carrier event metrics ─────────────────────────────────────────────────────

// EventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, processed)
var EventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks the number of carrier events waiting in each ingest worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of carrier events pending in each ingest worker channel.",
	},
	[]string{"worker_id"},
)

// EventProcessingDuration measures how long a single carrier event takes to process.
// Label:
//   - status: the resulting shipment status, or "error" on failure
var EventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of carrier event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status"},
)

// ── Webhook metrics ───────────────────────────────────────────────────────────

// WebhookTasksEnqueuedTotal counts notification tasks produced by fan-out.
// Label:
//   - event: subscription event type (e.g. "shipment.delivered")
var WebhookTasksEnqueuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_tasks_enqueued_total",
		Help:      "Total number of webhook notification tasks enqueued.",
	},
	[]string{"event"},
)

// WebhookAttemptsTotal counts delivery attempts and their outcome.
// Label:
//   - outcome: "delivered", "retrying", "abandoned", "dropped" or "deferred"
var WebhookAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_attempts_total",
		Help:      "Total number of webhook delivery attempts, by outcome.",
	},
	[]string{"outcome"},
)

// WebhookDeliveryDuration measures a single subscriber round trip.
var WebhookDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_delivery_duration_seconds",
		Help:      "Duration of a single webhook POST to a subscriber.",
		Buckets:   prometheus.DefBuckets,
	},
)

// WebhookQueueDepth is the number of chain heads waiting or leased in the task queue.
var WebhookQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "webhook_queue_depth",
		Help:      "Current number of claimable or leased webhook tasks.",
	},
)

// OutboxRelayedTotal counts shipments whose pending ledger entries were re-published by the relay.
var OutboxRelayedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_relayed_total",
		Help:      "Total number of shipments re-published by the outbox relay.",
	},
)
