// Package metrics records per-run read statistics and exports them in the Prometheus
// text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
)

// FailureIO labels failures that carry no cellerr kind (open, zip and XML errors).
const FailureIO = "io"

// Recorder holds the counters of one CLI run. It is safe for concurrent use.
type Recorder struct {
	registry    *prometheus.Registry
	records     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	files       prometheus.Counter
	readSeconds prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellmap_records_total",
			Help: "Records bound, by input file.",
		}, []string{"file"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellmap_failures_total",
			Help: "Files that ended with an error, by error kind.",
		}, []string{"kind"}),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellmap_files_total",
			Help: "Input files processed.",
		}),
		readSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellmap_read_seconds",
			Help:    "Time spent reading one input file.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	r.registry.MustRegister(r.records, r.failures, r.files, r.readSeconds)
	return r
}

// FileRead records the outcome of reading one file.
func (r *Recorder) FileRead(file string, records int, elapsed time.Duration, err error) {
	r.files.Inc()
	r.records.WithLabelValues(file).Add(float64(records))
	r.readSeconds.Observe(elapsed.Seconds())
	if err != nil {
		r.failures.WithLabelValues(FailureKind(err)).Inc()
	}
}

// FailureKind returns the metric label for err.
func FailureKind(err error) string {
	if kind := cellerr.KindOf(err); kind != "" {
		return string(kind)
	}
	return FailureIO
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the metrics to path atomically, for the node exporter textfile
// collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
