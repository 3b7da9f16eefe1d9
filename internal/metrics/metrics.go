package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zaptalk",
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Inbound updates by kind",
		},
		[]string{"kind"},
	)

	GateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zaptalk",
			Subsystem: "bot",
			Name:      "gate_decisions_total",
			Help:      "Reply gate outcomes",
		},
		[]string{"decision"},
	)

	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zaptalk",
			Subsystem: "bot",
			Name:      "generations_total",
			Help:      "Persona replies by outcome (success or fallback)",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "zaptalk",
			Subsystem: "bot",
			Name:      "generation_duration_seconds",
			Help:      "Language model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zaptalk",
			Subsystem: "bot",
			Name:      "deliveries_total",
			Help:      "Persona replies by delivery mode",
		},
		[]string{"mode"},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zaptalk",
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Handled commands by command and result",
		},
		[]string{"command", "result"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
