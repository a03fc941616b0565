// Package metrics exposes Prometheus instruments for the statement
// ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes recorded on the imports_total counter.
const (
	OutcomeCompleted       = "completed"
	OutcomePartiallyFailed = "partially_failed"
	OutcomeEmpty           = "empty"
	OutcomeRejected        = "rejected"
	OutcomeFailed          = "failed"
)

// Skip reasons recorded on the rows_skipped_total counter.
const (
	SkipParse           = "parse"
	SkipDuplicate       = "duplicate"
	SkipManualDuplicate = "manual_duplicate"
)

// Metrics holds the instruments shared across the import and sync services.
type Metrics struct {
	ImportsTotal        *prometheus.CounterVec
	CandidatesExtracted *prometheus.CounterVec
	RowsSkipped         *prometheus.CounterVec
	ImportDuration      *prometheus.HistogramVec
	SyncRuns            prometheus.Counter
	SyncUserFailures    prometheus.Counter
}

// New registers the instruments on the default registry.
func New(namespace string) *Metrics {
	return NewWith(namespace, prometheus.DefaultRegisterer)
}

// NewWith registers the instruments on the given registerer. Tests pass a
// fresh registry to avoid duplicate registration panics.
func NewWith(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Statement imports by final outcome.",
		}, []string{"outcome"}),
		CandidatesExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "candidates_extracted_total",
			Help:      "Candidate transactions extracted, by source format.",
		}, []string{"source"}),
		RowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_skipped_total",
			Help:      "Rows not imported, by skip reason.",
		}, []string{"reason"}),
		ImportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Wall time of a full file import, by source format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		SyncRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Completed periodic sync passes.",
		}),
		SyncUserFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "user_failures_total",
			Help:      "Per-user sync failures that were isolated and skipped.",
		}),
	}
}
