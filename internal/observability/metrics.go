package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dogwalk"

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "bookings_created_total", Help: "Total number of bookings created"})
	AcceptAttemptsTotal  = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "accept_attempts_total", Help: "Booking accept attempts by result"},
		[]string{"result"},
	)
	WalksCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "walks_completed_total", Help: "Total number of finished walks"})
	PlatformFeesTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "platform_fees_minor_units_total", Help: "Platform fees collected, minor currency units"})
	RatingsTotal        = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ratings_total", Help: "Total number of ratings submitted"})
	MessagesSentTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_sent_total", Help: "Total number of chat messages sent"})

	LocationFixesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "location_fixes_total", Help: "GPS fixes seen by the relay by outcome"},
		[]string{"outcome"},
	)
	LiveSessionsActive   = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "live_sessions_active", Help: "Number of open owner live sessions"})
	WalkersOnline        = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "walkers_online", Help: "Number of walkers toggled online on this instance"})
	MalformedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "realtime_malformed_events_total", Help: "Realtime payloads dropped at the decode boundary"})

	WalkEventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "walk_events_consumed_total", Help: "Walk events handled by the worker by type"},
		[]string{"type"},
	)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_total", Help: "Notifications emitted by type"},
		[]string{"type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
