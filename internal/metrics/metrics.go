// Package metrics holds the Prometheus counters exported by the daemon.
// Every Metrics value owns a private registry; nothing is registered on the
// global default registry.
//
// All recording methods are safe on a nil *Metrics, so components can be
// built without instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ots"

type Metrics struct {
	registry *prometheus.Registry

	SyncBatches        *prometheus.CounterVec
	EventsSynced       prometheus.Counter
	SyncFailures       prometheus.Counter
	PointsRecorded     prometheus.Counter
	MatchesExpired     prometheus.Counter
	TempPlayersExpired prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SyncBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "batches_total",
			Help:      "Event batches submitted to the remote, by result.",
		}, []string{"result"}),
		EventsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "events_synced_total",
			Help:      "Events marked synced after a confirmed submission.",
		}),
		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "failures_total",
			Help:      "Match syncs that stopped on an error.",
		}),
		PointsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_recorded_total",
			Help:      "Points scored through the engine and logged.",
		}),
		MatchesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_expired_total",
			Help:      "Match records removed by the expiry sweep.",
		}),
		TempPlayersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "temp_players_expired_total",
			Help:      "Temporary players removed by the expiry sweep.",
		}),
	}
	m.registry.MustRegister(
		m.SyncBatches,
		m.EventsSynced,
		m.SyncFailures,
		m.PointsRecorded,
		m.MatchesExpired,
		m.TempPlayersExpired,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BatchSubmitted(ok bool, confirmed int) {
	if m == nil {
		return
	}
	if !ok {
		m.SyncBatches.WithLabelValues("error").Inc()
		return
	}
	m.SyncBatches.WithLabelValues("ok").Inc()
	m.EventsSynced.Add(float64(confirmed))
}

func (m *Metrics) SyncFailed() {
	if m == nil {
		return
	}
	m.SyncFailures.Inc()
}

func (m *Metrics) PointRecorded() {
	if m == nil {
		return
	}
	m.PointsRecorded.Inc()
}

func (m *Metrics) Expired(matches, tempPlayers int) {
	if m == nil {
		return
	}
	m.MatchesExpired.Add(float64(matches))
	m.TempPlayersExpired.Add(float64(tempPlayers))
}
