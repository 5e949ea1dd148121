// Package metrics defines the Prometheus collectors for a letterscan run.
// A run is a batch job, so metrics are delivered either to a node-exporter
// textfile or to a Pushgateway rather than scraped.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for one run.
type Metrics struct {
	registry *prometheus.Registry

	WordsScannedTotal prometheus.Counter
	BytesReadTotal    prometheus.Counter
	MaxSetResetsTotal prometheus.Counter
	WordScore         prometheus.Histogram
	MaxScore          prometheus.Gauge
	MaxSetSize        prometheus.Gauge
	ScanDuration      prometheus.Histogram
	ExportsTotal      *prometheus.CounterVec
	LastRunTimestamp  prometheus.Gauge
}

// New creates all collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WordsScannedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "letterscan_words_scanned_total",
				Help: "Total words read from the input.",
			},
		),
		BytesReadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "letterscan_bytes_read_total",
				Help: "Total bytes consumed from the input.",
			},
		),
		MaxSetResetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "letterscan_maxset_resets_total",
				Help: "Times a higher distinct-letter score replaced the tracked words.",
			},
		),
		WordScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "letterscan_word_distinct_letters",
				Help:    "Distinct-letter score of every scanned word.",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 12, 15, 20, 26},
			},
		),
		MaxScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "letterscan_max_distinct_letters",
				Help: "Highest distinct-letter score in the input.",
			},
		),
		MaxSetSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "letterscan_max_words",
				Help: "Distinct words sharing the highest score.",
			},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "letterscan_scan_duration_seconds",
				Help:    "Time spent tokenizing and aggregating the input.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "letterscan_exports_total",
				Help: "Report exports by sink and status.",
			},
			[]string{"sink", "status"},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "letterscan_last_run_timestamp_seconds",
				Help: "Unix time the last run finished.",
			},
		),
	}

	m.registry.MustRegister(
		m.WordsScannedTotal,
		m.BytesReadTotal,
		m.MaxSetResetsTotal,
		m.WordScore,
		m.MaxScore,
		m.MaxSetSize,
		m.ScanDuration,
		m.ExportsTotal,
		m.LastRunTimestamp,
	)

	return m
}

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastRunTimestamp.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// Push sends the current values to a Pushgateway under job, grouped by
// instance.
func (m *Metrics) Push(ctx context.Context, url, job, instance string) error {
	m.LastRunTimestamp.SetToCurrentTime()
	pusher := push.New(url, job).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
