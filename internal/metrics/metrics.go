package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_events_ingested_total",
			Help: "Events accepted by the ingestion pipeline",
		},
	)

	ThreatEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_threat_events_total",
			Help: "Events classified as threats",
		},
	)

	GeoUnresolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_geo_unresolved_total",
			Help: "Geo lookups degraded to the Unknown result",
		},
	)

	AlertsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_alerts_sent_total",
			Help: "Successfully delivered alert notifications",
		},
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_alerts_suppressed_total",
			Help: "Alerts suppressed by the per-address cooldown",
		},
	)

	AlertsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_alerts_failed_total",
			Help: "Alert notifications that failed to send",
		},
	)

	AlertsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siem_alerts_dropped_total",
			Help: "Alerts dropped because the dispatch queue was full",
		},
	)

	AlertSendSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siem_alert_send_seconds",
			Help:    "Alert notification send latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	StoredEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "siem_stored_events",
			Help: "Events currently held in the store",
		},
	)
)
