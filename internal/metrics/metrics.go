package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Claim workflow metrics
	ClaimsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_claims_created_total",
			Help: "Total number of claims created",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_gateway_status_transitions_total",
			Help: "Total number of claim status transitions",
		},
		[]string{"status"},
	)

	WorkflowAdvances = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_workflow_advances_total",
			Help: "Total number of successful workflow advances",
		},
	)

	ClaimErrorsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_claim_errors_recorded_total",
			Help: "Total number of claim processing errors recorded",
		},
	)

	// Event publication metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_gateway_events_published_total",
			Help: "Total number of claim events published",
		},
		[]string{"event_type"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_events_dropped_total",
			Help: "Total number of claim events dropped due to a full buffer",
		},
	)

	EventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_event_publish_errors_total",
			Help: "Total number of failed event publish attempts",
		},
	)

	// Registry metrics
	SweepsRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_registry_sweeps_total",
			Help: "Total number of staleness sweeps executed",
		},
	)

	ServicesMarkedDown = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claims_gateway_services_marked_down_total",
			Help: "Total number of services marked down by the staleness sweep",
		},
	)

	ActiveServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "claims_gateway_active_services",
			Help: "Number of registered services currently UP",
		},
	)
)
