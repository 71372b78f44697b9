// Package metrics exposes the Prometheus collectors shared by the bot runtime.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gamebot"

var (
	backendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "calls_total",
		Help:      "Backend API calls by operation and outcome.",
	}, []string{"op", "outcome"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "call_duration_seconds",
		Help:      "Backend API call latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"op"})

	handlerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tg",
		Name:      "handled_total",
		Help:      "Handled Telegram updates by handler and outcome.",
	}, []string{"handler", "outcome"})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tg",
		Name:      "messages_sent_total",
		Help:      "Messages sent or edited in reply to updates.",
	})

	sessionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "pruned_total",
		Help:      "Expired chat sessions removed by the pruning job.",
	})
)

// ObserveBackend records one backend call.
func ObserveBackend(op, outcome string, took time.Duration) {
	backendCalls.WithLabelValues(op, outcome).Inc()
	backendLatency.WithLabelValues(op).Observe(took.Seconds())
}

// ObserveHandler records the outcome of a routed handler.
func ObserveHandler(handler, outcome string) {
	handlerOutcomes.WithLabelValues(handler, outcome).Inc()
}

// IncMessages counts one outbound message.
func IncMessages() {
	messagesSent.Inc()
}

// AddPruned counts sessions removed by the pruning job.
func AddPruned(n int64) {
	if n > 0 {
		sessionsPruned.Add(float64(n))
	}
}
