package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IncidentsCreated counts reported incidents by severity.
	IncidentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrcs_incidents_created_total",
			Help: "Total number of incidents reported",
		},
		[]string{"severity"},
	)

	// StatusTransitions counts incident status changes by target status.
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrcs_incident_status_transitions_total",
			Help: "Total number of incident status transitions",
		},
		[]string{"to"},
	)

	// Assignments counts responder assignments and their outcome (success|conflict|error).
	Assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrcs_assignments_total",
			Help: "Total number of responder assignment attempts",
		},
		[]string{"result"},
	)

	// NotificationPushes counts realtime push deliveries by result (delivered|dropped).
	NotificationPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrcs_notification_pushes_total",
			Help: "Total number of realtime notification pushes",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrcs_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
