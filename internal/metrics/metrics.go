// Package metrics provides Prometheus metrics for the dat CLI.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	statusPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dat_status_polls_total",
			Help: "Total number of status queries issued to the engine",
		},
		[]string{"result"},
	)

	framesRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dat_frames_rendered_total",
			Help: "Total number of progress frames written, by phase",
		},
		[]string{"phase"},
	)

	peerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dat_peer_events_total",
			Help: "Total number of peer events received from the swarm",
		},
		[]string{"type"},
	)

	peerConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dat_peer_connections",
			Help: "Number of active peer connections",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dat_active_sessions",
			Help: "Number of resources currently being polled",
		},
	)
)

// RecordPoll records the outcome of a status query.
func RecordPoll(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	statusPollsTotal.WithLabelValues(result).Inc()
}

// RecordFrame records a rendered frame for the given phase label.
func RecordFrame(phase string) {
	framesRenderedTotal.WithLabelValues(phase).Inc()
}

// RecordPeerEvent records a swarm event and the resulting connection count.
func RecordPeerEvent(eventType string, connections int) {
	peerEventsTotal.WithLabelValues(eventType).Inc()
	peerConnections.Set(float64(connections))
}

// SetActiveSessions sets the number of sessions being polled.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
