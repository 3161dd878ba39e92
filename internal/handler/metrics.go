package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orchestrator",
			Name:      "orders_created_total",
			Help:      "Total number of successfully created orders",
		},
	)

	ordersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orchestrator",
			Name:      "orders_cancelled_total",
			Help:      "Total number of cancelled orders",
		},
	)

	ordersRejectedStock = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "orchestrator",
			Name:      "orders_rejected_insufficient_stock_total",
			Help:      "Total number of orders rejected due to insufficient inventory",
		},
	)

	orderCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "order_service",
			Subsystem: "orchestrator",
			Name:      "order_create_duration_seconds",
			Help:      "Histogram of order creation durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

var (
	paymentEventsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "payment_events_processed_total",
			Help:      "Total number of successfully processed payment events",
		},
	)

	paymentEventsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "payment_events_failed_total",
			Help:      "Total number of failed payment event handling attempts",
		},
	)

	paymentEventsDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "payment_events_dlq_total",
			Help:      "Total number of payment events written to DLQ",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		ordersCreated,
		ordersCancelled,
		ordersRejectedStock,
		orderCreateDuration,

		paymentEventsProcessed,
		paymentEventsFailed,
		paymentEventsDLQ,
	)
}
