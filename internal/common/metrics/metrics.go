// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationStatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_status_updates_total",
			Help: "Total number of persisted application status changes",
		},
		[]string{"status"},
	)

	ApplicationStatusUpdateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_status_update_failures_total",
			Help: "Total number of rejected or failed status update requests",
		},
		[]string{"error_code"},
	)

	ProviderIDsAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicaid_provider_ids_assigned_total",
			Help: "Total number of provider identifiers assigned on approval",
		},
		[]string{"source"},
	)

	WarehouseDeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_delivery_attempts_total",
			Help: "Total number of HTTP attempts made to the data warehouse",
		},
		[]string{"endpoint", "outcome"},
	)

	WarehouseDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_delivery_duration_seconds",
			Help:    "Duration of a full delivery including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	WarehouseEventsQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warehouse_events_queued_total",
			Help: "Total number of events handed to the retry queue",
		},
	)

	WarehouseRetryQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warehouse_retry_queue_depth",
			Help: "Number of entries per retry queue list",
		},
		[]string{"list"},
	)

	WarehouseRedeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_redeliveries_total",
			Help: "Outcomes of retry queue redelivery attempts",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of API requests in seconds",
		},
		[]string{"method", "route", "status"},
	)
)
