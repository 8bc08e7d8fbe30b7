// Package metrics exposes Prometheus collectors for the collection agent.
// The collectors are updated by the run loop; the optional HTTP listener
// makes them scrapeable while a long collection run is in flight.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	tractsTotal        *prometheus.CounterVec
	apiRequestsTotal   *prometheus.CounterVec
	qualityScore       prometheus.Histogram
	apiResponseSeconds prometheus.Histogram
	pacingDelaySeconds prometheus.Gauge
	rateLimitHitsTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		tractsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tracts_total",
				Help: "Sampling units processed, labeled by result (collected, rejected, failed).",
			},
			[]string{"result"},
		)

		apiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_api_requests_total",
				Help: "Demographics API requests attempted, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		qualityScore = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_quality_score",
				Help:    "Distribution of record quality scores.",
				Buckets: []float64{0.2, 0.4, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
			},
		)

		apiResponseSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_api_response_seconds",
				Help:    "Histogram of demographics API response latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		pacingDelaySeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "agent_pacing_delay_seconds",
				Help: "Current adaptive delay between sampling units.",
			},
		)

		rateLimitHitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_rate_limit_hits_total",
				Help: "Rate-limit responses received from the demographics API.",
			},
		)
	})
}

// TractProcessed records the outcome of one sampling unit.
func TractProcessed(result string) {
	if tractsTotal != nil {
		tractsTotal.WithLabelValues(result).Inc()
	}
}

// APIRequest records one attempted demographics request.
func APIRequest(outcome string) {
	if apiRequestsTotal != nil {
		apiRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveQuality records one quality score.
func ObserveQuality(score float64) {
	if qualityScore != nil {
		qualityScore.Observe(score)
	}
}

// ObserveResponseTime records one API latency sample.
func ObserveResponseTime(d time.Duration) {
	if apiResponseSeconds != nil {
		apiResponseSeconds.Observe(d.Seconds())
	}
}

// SetPacingDelay publishes the current pacing delay.
func SetPacingDelay(seconds float64) {
	if pacingDelaySeconds != nil {
		pacingDelaySeconds.Set(seconds)
	}
}

// RateLimitHit counts one throttling response.
func RateLimitHit() {
	if rateLimitHitsTotal != nil {
		rateLimitHitsTotal.Inc()
	}
}

// StartServer serves /metrics on addr in the background and returns the
// server so the caller can shut it down when the run ends.
func StartServer(addr string, logger *zap.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	return srv
}
