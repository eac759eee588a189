// Package metrics holds the run counters and writes them for the
// node-exporter textfile collector.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every scriptreel collector
var Registry = prometheus.NewRegistry()

var (
	scenesTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scriptreel_scenes_total",
		Help: "Scenes processed by outcome",
	}, []string{"outcome"}) // outcome=ok|configuration|resolution|transport|materialization

	downloadBytesTotal = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "scriptreel_download_bytes_total",
		Help: "Bytes of stock footage downloaded",
	})

	providerRequestsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scriptreel_provider_requests_total",
		Help: "Stock provider search requests by HTTP status",
	}, []string{"status"}) // status=200|401|429|...|error

	runDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "scriptreel_run_duration_seconds",
		Help:    "Wall time of a generate run",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	runsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "scriptreel_runs_total",
		Help: "Generate runs by result",
	}, []string{"result"}) // result=done|exhausted|failed
)

// RecordScene counts one scene outcome
func RecordScene(outcome string) {
	scenesTotal.WithLabelValues(outcome).Inc()
}

// AddDownloadBytes counts downloaded bytes
func AddDownloadBytes(n int64) {
	if n > 0 {
		downloadBytesTotal.Add(float64(n))
	}
}

// RecordProviderRequest counts one search request; status 0 means no response
func RecordProviderRequest(status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	providerRequestsTotal.WithLabelValues(label).Inc()
}

// RecordRun counts a finished run and its wall time
func RecordRun(result string, seconds float64) {
	runsTotal.WithLabelValues(result).Inc()
	runDuration.Observe(seconds)
}

// WriteTextfile writes the registry in text exposition format to path
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
