// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart ledger mutations by operation",
		},
		[]string{"operation"},
	)

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created from carts",
	})

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions by target status",
		},
		[]string{"status"},
	)

	CheckoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Time spent converting a cart into an order",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"outcome"},
	)

	ProfileInteractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_interactions_total",
			Help: "Interaction events folded into customer profiles",
		},
		[]string{"type"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Recommendation responses by strategy label",
		},
		[]string{"strategy"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	CustomerProfiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "customer_profiles",
		Help: "Customer profiles held by the profile store",
	})

	ProfileStoreBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "profile_store_circuit_state",
			Help: "Circuit breaker state of the remote profile store (0 closed, 1 half-open, 2 open)",
		},
		[]string{"store"},
	)
)
