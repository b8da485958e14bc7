// Package metrics exposes prometheus counters for searches and row extraction.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nyaaterm"

var (
	registerOnce sync.Once

	searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of searches by outcome",
	}, []string{"outcome"})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Histogram of search round trip durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	rowsExtracted = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rows_extracted",
		Help:      "Number of torrents extracted per results page",
		Buckets:   prometheus.LinearBuckets(0, 25, 5),
	})
	rowsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_skipped_total",
		Help:      "Total number of result rows dropped for a missing required field",
	})
	staleResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_results_total",
		Help:      "Total number of search results discarded because a newer search was issued",
	})
)

// Outcome labels for searches_total.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Register adds the collectors to the default registry (idempotent).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searches, searchDuration, rowsExtracted, rowsSkipped, staleResults)
	})
}

func IncSearch(outcome string)              { searches.WithLabelValues(outcome).Inc() }
func ObserveSearchDuration(d time.Duration) { searchDuration.Observe(d.Seconds()) }
func ObserveRowsExtracted(n int)            { rowsExtracted.Observe(float64(n)) }
func IncStaleResult()                       { staleResults.Inc() }

func AddRowsSkipped(n int) {
	if n > 0 {
		rowsSkipped.Add(float64(n))
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
