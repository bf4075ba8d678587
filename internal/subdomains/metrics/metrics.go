// Package metrics exposes Prometheus counters for scans.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

// Metrics holds the scanner collectors on a private registry so that
// several instances (e.g. in tests) do not collide.
type Metrics struct {
	registry *prometheus.Registry

	LinesTotal      prometheus.Counter
	ResultsTotal    *prometheus.CounterVec
	CacheTotal      *prometheus.CounterVec
	DuplicatesTotal prometheus.Counter
	ScanDuration    prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		LinesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "subdomains_lines_total",
			Help: "Total number of input lines scanned",
		}),
		ResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "subdomains_results_total",
			Help: "Parse results by outcome",
		}, []string{"status"}),
		CacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "subdomains_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		}, []string{"result"}),
		DuplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "subdomains_duplicates_total",
			Help: "Matched lines whose registrable domain was already seen in the scan",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "subdomains_scan_duration_seconds",
			Help:    "Wall time of complete scans",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 30, 120},
		}),
	}
}

func (m *Metrics) ObserveLine() { m.LinesTotal.Inc() }

func (m *Metrics) ObserveResult(matched bool) {
	status := "unmatched"
	if matched {
		status = "matched"
	}
	m.ResultsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDuplicate() { m.DuplicatesTotal.Inc() }

func (m *Metrics) ObserveScan(d time.Duration) { m.ScanDuration.Observe(d.Seconds()) }

// WriteTextfile writes every collector in text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

var _ scanner.Metrics = (*Metrics)(nil)
