package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bar_orders_created_total",
		Help: "Total number of orders created",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bar_order_transitions_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bar_payments_total",
		Help: "Payment state changes by outcome",
	}, []string{"outcome"})

	PaymentRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bar_payment_requests_total",
		Help: "Payment requests by resulting status",
	}, []string{"status"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bar_live_events_published_total",
		Help: "Lifecycle events published",
	}, []string{"topic", "type"})

	EventLogFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bar_live_event_log_failures_total",
		Help: "Event log appends that fell back to local delivery",
	})

	SubscribersDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bar_live_subscribers_dropped_total",
		Help: "Live subscribers removed because they could not keep up",
	})

	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bar_live_subscribers",
		Help: "Currently connected live update subscribers",
	})

	TableVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bar_table_verifications_total",
		Help: "Table token verifications by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
