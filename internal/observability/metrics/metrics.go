package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

// ResolutionOutcome labels how a withdrawal request amount was obtained.
type ResolutionOutcome string

const (
	ResolutionCacheHit ResolutionOutcome = "cache_hit"
	ResolutionResolved ResolutionOutcome = "resolved"
	ResolutionFallback ResolutionOutcome = "fallback"
)

var (
	once                           sync.Once
	registerOnce                   sync.Once
	metricsRouter                  *chi.Mux
	clientRequestDurationHistogram *prometheus.HistogramVec
	tzktClientLatency              *prometheus.HistogramVec
	pollerDurationHistogram        *prometheus.HistogramVec
	dbLatency                      *prometheus.HistogramVec
	withdrawalResolutionCounter    *prometheus.CounterVec
	reconciliationGauge            *prometheus.GaugeVec
	withdrawalCacheSizeGauge       prometheus.Gauge
	lastSuccessfulLoadGauge        prometheus.Gauge
	loadFailureCounter             prometheus.Counter
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		Register()
	})
}

// Register only registers the collectors, for one-shot commands that don't
// serve them.
func Register() {
	registerOnce.Do(registerMetrics)
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	tzktClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tzkt_client_latency_seconds",
			Help:    "Histogram of tzkt client method durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	withdrawalResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_resolution_count",
			Help: "Number of withdrawal request amounts resolved, by outcome",
		},
		[]string{"outcome"},
	)

	reconciliationGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "withdrawal_reconciliation_count",
			Help: "Finalizations matched and unmatched against withdrawal requests in the last load",
		},
		[]string{"result"},
	)

	withdrawalCacheSizeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "withdrawal_cache_entries",
			Help: "Number of resolved withdrawal amounts held in the cache",
		},
	)

	lastSuccessfulLoadGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_last_successful_load_timestamp",
			Help: "Unix timestamp of the last dashboard load that completed",
		},
	)

	loadFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_load_failure_count",
			Help: "The total number of dashboard loads aborted by a feed failure",
		},
	)

	prometheus.MustRegister(
		clientRequestDurationHistogram,
		tzktClientLatency,
		pollerDurationHistogram,
		dbLatency,
		withdrawalResolutionCounter,
		reconciliationGauge,
		withdrawalCacheSizeGauge,
		lastSuccessfulLoadGauge,
		loadFailureCounter,
	)
}

func RecordTzktClientLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	tzktClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func IncWithdrawalResolution(outcome ResolutionOutcome) {
	withdrawalResolutionCounter.WithLabelValues(string(outcome)).Inc()
}

func RecordReconciliation(matched, unmatched int) {
	reconciliationGauge.WithLabelValues("matched").Set(float64(matched))
	reconciliationGauge.WithLabelValues("unmatched").Set(float64(unmatched))
}

func RecordWithdrawalCacheSize(size int) {
	withdrawalCacheSizeGauge.Set(float64(size))
}

func RecordSuccessfulLoad(at time.Time) {
	lastSuccessfulLoadGauge.Set(float64(at.Unix()))
}

func IncLoadFailures() {
	loadFailureCounter.Inc()
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}
