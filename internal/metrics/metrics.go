// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatline_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// MessagesIngested counts ingestion attempts by outcome code.
	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatline_messages_ingested_total",
			Help: "Message ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	MessageListFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatline_message_list_failures_total",
			Help: "Message listings that fell back to an empty result after a store failure",
		},
	)

	BroadcastsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatline_broadcasts_total",
			Help: "Broadcast publish attempts by sink and result",
		},
		[]string{"topic", "sink", "result"},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatline_broadcast_dropped_total",
			Help: "Events dropped because a subscriber was too slow",
		},
	)

	SubscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatline_subscribers_active",
			Help: "Current number of live broadcast subscribers",
		},
	)
)
