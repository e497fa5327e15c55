package metrics

import "github.com/prometheus/client_golang/prometheus"

// Метрики Prometheus для подтверждений и платёжных вебхуков
var (
	AttemptsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_attempts_created_total",
			Help: "Total number of verification attempts created",
		},
		[]string{"provider"},
	)

	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_validations_total",
			Help: "Code validations by outcome",
		},
		[]string{"outcome"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_deliveries_total",
			Help: "Out-of-band code deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment webhook deliveries by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	WebhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_webhook_duration_seconds",
			Help:    "Duration of payment webhook processing",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ActionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_action_failures_total",
			Help: "Downstream payment actions that failed after state was persisted",
		},
		[]string{"action"},
	)

	ConflictRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_conflict_retries_total",
			Help: "Conditional updates retried after a concurrent write",
		},
		[]string{"record"},
	)
)

// Register регистрирует все метрики
func Register() {
	prometheus.MustRegister(
		AttemptsCreatedTotal,
		ValidationsTotal,
		DeliveriesTotal,
		WebhooksTotal,
		WebhookDuration,
		ActionFailuresTotal,
		ConflictRetriesTotal,
	)
}
