package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Registered on the default registry and exposed by the
// /metrics handler.
var (
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cwhub",
		Subsystem: "pipeline",
		Name:      "uploads_total",
		Help:      "Uploads processed, labeled by outcome (accepted, rejected).",
	}, []string{"outcome"})

	RowsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cwhub",
		Subsystem: "pipeline",
		Name:      "rows_merged_total",
		Help:      "History records inserted or replaced by upload merges.",
	})

	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cwhub",
		Subsystem: "pipeline",
		Name:      "rows_skipped_total",
		Help:      "Upload rows dropped without aborting, labeled by reason.",
	}, []string{"reason"})

	PersistenceWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cwhub",
		Subsystem: "store",
		Name:      "persistence_warnings_total",
		Help:      "Best-effort store writes that failed and were surfaced as warnings.",
	})

	UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cwhub",
		Subsystem: "pipeline",
		Name:      "upload_duration_seconds",
		Help:      "Wall time of a full upload pass (parse, normalize, merge).",
		Buckets:   prometheus.DefBuckets,
	})
)
