package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evb_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evb_reservations_total",
			Help: "Reservation create attempts by outcome",
		},
		[]string{"outcome"},
	)

	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evb_checkin_redemptions_total",
			Help: "Check-in token redemptions by outcome",
		},
		[]string{"outcome"},
	)

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evb_payment_verifications_total",
			Help: "Payment signature verifications by outcome",
		},
		[]string{"outcome"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evb_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExpiredPendingReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evb_expired_pending_released_total",
			Help: "Stale pending reservations reclaimed by the sweep",
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evb_outbox_lag_seconds",
			Help: "Lag of outbox publishing",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evb_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
