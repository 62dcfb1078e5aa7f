// Package metrics exposes Prometheus collectors for the wager ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WagersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_wagers_placed_total",
		Help: "Number of wagers accepted.",
	})

	WagersSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_wagers_settled_total",
		Help: "Number of wagers finalized by settlement.",
	})

	WagersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_wagers_cancelled_total",
		Help: "Number of wagers cancelled and refunded before commence time.",
	})

	CancellationsRefused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_cancellations_refused_total",
		Help: "Cancellation requests refused (commenced, settled, or not owned).",
	})

	PayoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_payout_total",
		Help: "Sum of payouts credited to winning users.",
	})

	UsersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_users_registered_total",
		Help: "Number of user accounts created.",
	})

	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookie_settlement_duration_seconds",
		Help:    "Wall time of a settlement batch.",
		Buckets: prometheus.DefBuckets,
	})

	FeedRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookie_feed_request_duration_seconds",
		Help:    "Latency of upstream odds feed requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	FeedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_feed_errors_total",
		Help: "Failed upstream odds feed requests.",
	})
)
