package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invsim_requests_total",
			Help: "Inventory API requests by tier and outcome",
		},
		[]string{"tier", "outcome"}, // ok|not_found|bad_request|unavailable|error
	)

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invsim_rate_limited_total",
			Help: "Requests denied by the hourly rate limiter",
		},
		[]string{"tier"},
	)

	SimulatedDelay = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invsim_simulated_delay_seconds",
			Help:    "Injected latency before inventory access",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 3},
		},
		[]string{"tier", "peak"},
	)

	PoolInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invsim_pool_in_use",
		Help: "Inventory pool slots currently held",
	})

	PoolExhaustedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invsim_pool_exhausted_total",
		Help: "Inventory accesses rejected because the pool was full",
	})

	UsageEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invsim_usage_events_total",
			Help: "Usage events by result",
		},
		[]string{"result"}, // written|dropped|failed
	)

	LimiterBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invsim_limiter_breaker_state",
		Help: "Shared rate limiter breaker: 0 closed, 1 open, 2 half-open",
	})

	LimiterFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invsim_limiter_fallback_total",
			Help: "Rate limit decisions served by the in-memory fallback",
		},
		[]string{"reason"}, // error|open
	)

	AdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invsim_adjustments_total",
			Help: "Inventory adjustments consumed from Kafka",
		},
		[]string{"result"}, // applied|rejected|failed|poison
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RequestsTotal,
		RateLimitedTotal,
		SimulatedDelay,
		PoolInUse,
		PoolExhaustedTotal,
		UsageEventsTotal,
		LimiterBreakerState,
		LimiterFallbackTotal,
		AdjustmentsTotal,
	)
}
