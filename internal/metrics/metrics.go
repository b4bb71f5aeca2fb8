// Package metrics counts booking and lifecycle outcomes.
//
// There is no scrape endpoint; the counters are written to a file for the
// node exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cabshare"

// Metrics holds the process counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Bookings            *prometheus.CounterVec
	SignUps             *prometheus.CounterVec
	TripsPosted         prometheus.Counter
	RidesStarted        prometheus.Counter
	Reloads             *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	OpenTrips           prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Seat booking attempts by result.",
		}, []string{"result"}),
		SignUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Sign-up attempts by result.",
		}, []string{"result"}),
		TripsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trips_posted_total",
			Help:      "Trips posted by hosts.",
		}),
		RidesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rides_started_total",
			Help:      "Trips transitioned to started.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Registry reloads from storage by result.",
		}, []string{"result"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed table flushes by table.",
		}, []string{"table"}),
		OpenTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_trips",
			Help:      "Trips that are neither full nor started, as of the last refresh.",
		}),
	}

	m.registry.MustRegister(
		m.Bookings,
		m.SignUps,
		m.TripsPosted,
		m.RidesStarted,
		m.Reloads,
		m.PersistenceFailures,
		m.OpenTrips,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
