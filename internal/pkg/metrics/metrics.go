// Package metrics defines and registers all custom Prometheus metrics of the
// onboarding bot. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bolingo"

// ── Inbound ──────────────────────────────────────────────────────────────────

// WebhookUpdatesTotal counts chat updates received on the webhook.
// Label:
//   - result: "enqueued", "duplicate", "ignored", "invalid", "dropped" or "unauthorized"
var WebhookUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_updates_total",
		Help:      "Total number of chat platform updates received, by handling result.",
	},
	[]string{"result"},
)

// InitDataVerificationsTotal counts mini-app init data checks.
// Label:
//   - result: "ok", "missing", "malformed", "invalid_signature" or "expired"
var InitDataVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "initdata_verifications_total",
		Help:      "Total number of mini-app init data verifications, by result.",
	},
	[]string{"result"},
)

// RateLimitedTotal counts requests rejected by the API rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of mini-app API requests rejected by the rate limiter.",
	},
)

// ── Onboarding ───────────────────────────────────────────────────────────────

// TransitionsTotal counts applied state machine decisions.
// Labels:
//   - event: the onboarding event (e.g. "accept_charter")
//   - from, to: onboarding states; equal for emitting no-op transitions
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onboarding_transitions_total",
		Help:      "Total number of onboarding state machine decisions applied.",
	},
	[]string{"event", "from", "to"},
)

// EventsIgnoredTotal counts events the state machine ignored.
var EventsIgnoredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onboarding_events_ignored_total",
		Help:      "Total number of onboarding events ignored in the current state.",
	},
	[]string{"event", "state"},
)

// StoreErrorsTotal counts user store failures.
// Label:
//   - path: "chat", "miniapp", "worker" or "recovery"
var StoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total number of user record store failures, by request path.",
	},
	[]string{"path"},
)

// DeliveryErrorsTotal counts failed chat transport calls.
// Label:
//   - kind: "reply", "callback", "description" or "recovery"
var DeliveryErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_errors_total",
		Help:      "Total number of chat transport delivery failures.",
	},
	[]string{"kind"},
)

// ── Generation ───────────────────────────────────────────────────────────────

// GenerationsTotal counts finished generation tasks.
// Label:
//   - outcome: "generated" or "fallback"
var GenerationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Total number of background description generations, by outcome.",
	},
	[]string{"outcome"},
)

// GenerationDuration measures the external generation call.
var GenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Duration of the external text generation call.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
	},
	[]string{"outcome"},
)

// QueueDepth tracks the number of items waiting in each dispatcher worker channel.
// Labels:
//   - queue: dispatcher name ("chat" or "generation")
//   - worker_id: numeric worker index
var QueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current number of items pending in each dispatcher worker channel.",
	},
	[]string{"queue", "worker_id"},
)
