package metrics

import (
	"sync"
	"time"

	"lotto/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Lottery
	PlaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotto_plays_total",
			Help: "Total settled lottery plays",
		},
		[]string{"outcome"},
	)
	PlayFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotto_play_failures_total",
			Help: "Total lottery plays that did not settle",
		},
		[]string{"reason"},
	)
	PlayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lotto_play_duration_seconds",
			Help:    "Latency of a lottery play including the ledger transaction",
			Buckets: prometheus.DefBuckets,
		},
	)
	StakedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotto_staked_total",
			Help: "Sum of all settled stakes",
		},
	)
	PaidOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotto_paid_out_total",
			Help: "Sum of all payouts, transfers included",
		},
	)

	// HTTP
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotto_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	registerOnce sync.Once
)

// Handler serves the default registry for /metrics
var Handler = promhttp.Handler

// Register adds every collector to reg once per process
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			PlaysTotal,
			PlayFailuresTotal,
			PlayDuration,
			StakedTotal,
			PaidOutTotal,
			HTTPRequestDuration,
		)
	})
}

// ObservePlay records one finished play
func ObservePlay(result *models.PlayResult, elapsed time.Duration) {
	PlayDuration.Observe(elapsed.Seconds())

	if !result.Success {
		PlayFailuresTotal.WithLabelValues(string(result.Reason)).Inc()
		return
	}

	PlaysTotal.WithLabelValues(string(result.Outcome)).Inc()
	StakedTotal.Add(float64(result.Bet))
	PaidOutTotal.Add(float64(result.Payout))
}
