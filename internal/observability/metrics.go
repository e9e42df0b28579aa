// Package observability registers the process-wide Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_http_requests_total",
		Help: "HTTP requests served, by route and status",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carpool_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	BusPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_bus_published_total",
		Help: "Events delivered to realtime subscribers, by kind",
	}, []string{"kind"})

	BusDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_bus_dropped_total",
		Help: "Events dropped because a subscriber was not keeping up",
	}, []string{"kind"})

	BusSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "carpool_bus_subscribers",
		Help: "Open realtime subscriptions",
	})

	TripNotifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_trip_notifications_total",
		Help: "Trip lifecycle notifications fired, by type",
	}, []string{"type"})

	PushResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_push_total",
		Help: "Device push attempts, by provider and outcome",
	}, []string{"provider", "outcome"})

	ComposerFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carpool_composer_fallback_total",
		Help: "Notification texts that fell back to the fixed template",
	})

	MatchOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_match_total",
		Help: "createCarpool outcomes",
	}, []string{"outcome"})

	TripEventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carpool_trip_events_consumed_total",
		Help: "Trip events read from the event topic",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		BusPublished,
		BusDropped,
		BusSubscribers,
		TripNotifications,
		PushResults,
		ComposerFallbacks,
		MatchOutcomes,
		TripEventsConsumed,
	)
}
