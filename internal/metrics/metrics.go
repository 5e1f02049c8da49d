// Package metrics holds the Prometheus collectors for the webhook client.
//
// Collectors are registered on controller-runtime's registry so they are
// served together with the client-go and runtime metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Webhook batch metrics
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook_client",
			Name:      "batches_total",
			Help:      "Total number of webhook batches by event type and HTTP-facing status",
		},
		[]string{"event_type", "status"},
	)

	// Per-resource action metrics
	outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook_client",
			Name:      "outcomes_total",
			Help:      "Total number of resource action outcomes by action and status",
		},
		[]string{"action", "status"},
	)

	actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webhook_client",
			Name:      "action_duration_seconds",
			Help:      "Duration of a resource action including lock wait",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 500ms to ~17min
		},
		[]string{"action"},
	)

	patchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook_client",
			Name:      "patch_attempts_total",
			Help:      "Total number of BareMetalHost patch attempts by result",
		},
		[]string{"result"},
	)

	// Switch metrics
	networkConfigTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook_client",
			Name:      "network_config_total",
			Help:      "Total number of VLAN configuration runs by result",
		},
		[]string{"result"},
	)

	// Side-channel metrics
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook_client",
			Name:      "dispatch_total",
			Help:      "Total number of notification and audit deliveries by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		batchesTotal,
		outcomesTotal,
		actionDuration,
		patchAttemptsTotal,
		networkConfigTotal,
		dispatchTotal,
	)
}

// RecordBatch records one handled webhook batch.
func RecordBatch(eventType, status string) {
	batchesTotal.WithLabelValues(eventType, status).Inc()
}

// RecordOutcome records the terminal outcome of one resource action.
func RecordOutcome(action, status string, duration time.Duration) {
	outcomesTotal.WithLabelValues(action, status).Inc()
	actionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordPatchAttempt records a single patch call. result is "success",
// "retry" or "error".
func RecordPatchAttempt(result string) {
	patchAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordNetworkConfig records a VLAN configuration run. result is
// "success", "skipped" or the failing stage.
func RecordNetworkConfig(result string) {
	networkConfigTotal.WithLabelValues(result).Inc()
}

// RecordDispatch records a notification or audit delivery.
func RecordDispatch(kind, result string) {
	dispatchTotal.WithLabelValues(kind, result).Inc()
}
