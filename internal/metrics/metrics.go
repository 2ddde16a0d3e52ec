// Package metrics records export outcomes as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Export outcome labels.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// Recorder holds the export collectors. A nil *Recorder discards observations.
type Recorder struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	sheets   prometheus.Counter
	bytes    prometheus.Counter
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetexport_exports_total",
				Help: "Exports by document format and outcome.",
			},
			[]string{"format", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sheetexport_export_duration_seconds",
				Help:    "Time spent producing a document.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		sheets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheetexport_sheets_total",
			Help: "Sheets written across all successful exports.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheetexport_document_bytes_total",
			Help: "Bytes of finished documents.",
		}),
	}
	reg.MustRegister(r.exports, r.duration, r.sheets, r.bytes)
	return r
}

// ObserveExport records one export attempt.
func (r *Recorder) ObserveExport(format, status string, elapsed time.Duration, sheets, size int) {
	if r == nil {
		return
	}
	r.exports.WithLabelValues(format, status).Inc()
	r.duration.WithLabelValues(format).Observe(elapsed.Seconds())
	if status == StatusOK {
		r.sheets.Add(float64(sheets))
		r.bytes.Add(float64(size))
	}
}
