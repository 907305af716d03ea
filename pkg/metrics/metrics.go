package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks currently open websocket connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meet_connections_active",
		Help: "Number of live websocket connections.",
	})

	// RoomsActive tracks rooms currently held in the registry.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meet_rooms_active",
		Help: "Number of rooms with at least one member.",
	})

	// AdmissionsTotal counts admission requests by outcome.
	AdmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meet_admissions_total",
		Help: "Admission requests by outcome.",
	}, []string{"outcome"})

	// ApprovalsTotal counts successful waiting-to-approved transitions.
	ApprovalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_approvals_total",
		Help: "Waiting participants moved to approved.",
	})

	// SignalsRelayedTotal counts signaling payloads forwarded between peers.
	SignalsRelayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_signals_relayed_total",
		Help: "Signaling payloads relayed point-to-point.",
	})

	// SignalsDroppedTotal counts signals whose recipient was gone.
	SignalsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_signals_dropped_total",
		Help: "Signaling payloads dropped because the recipient was not live.",
	})

	// DisconnectsTotal counts connection teardowns.
	DisconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_disconnects_total",
		Help: "Connections reconciled after transport close.",
	})
)

// Admission outcome label values.
const (
	OutcomeHost    = "host_approved"
	OutcomeWaiting = "waiting"
	OutcomeNoop    = "noop"
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
