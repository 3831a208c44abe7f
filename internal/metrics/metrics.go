package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Read metrics - contract view calls by field
var (
	ReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mint_contract_reads_total",
			Help: "Total number of contract reads by field and result",
		},
		[]string{"field", "result"},
	)

	StaleResultsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mint_stale_results_dropped_total",
		Help: "Read results discarded because their session was superseded",
	})

	ReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mint_contract_read_duration_seconds",
			Help:    "Time taken by a single contract read",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"field"},
	)
)

// Submission metrics - state-changing transactions by kind
var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mint_submissions_total",
			Help: "Total number of submissions by kind and result",
		},
		[]string{"kind", "result"},
	)

	ConfirmDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mint_submission_confirm_duration_seconds",
		Help:    "Time from send to receipt for successful submissions",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 180},
	})
)

// Session metrics
var (
	SessionGeneration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mint_session_generation",
		Help: "Current wallet session generation",
	})

	WrongChain = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mint_wrong_chain",
		Help: "1 while the connected wallet is on another network",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr; an empty addr disables it.
// The server stops when the returned func is called.
func Serve(addr string, onErr func(error)) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && onErr != nil {
			onErr(err)
		}
	}()
	return func() { _ = srv.Close() }
}
