package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Download metrics, labeled by kind ("video" or "subtitle").
var (
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_downloads_total",
			Help: "Total number of media downloads.",
		},
		[]string{"kind", "status"},
	)

	DownloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_download_duration_seconds",
			Help:    "Time spent in the extraction engine and artifact reconciliation.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"kind"},
	)

	// ArtifactCleanupTotal counts intermediate files handled by the reconciler.
	ArtifactCleanupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_cleanup_total",
			Help: "Total number of intermediate artifacts removed or moved, by result.",
		},
		[]string{"result"},
	)

	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_jobs_in_flight",
			Help: "Number of downloads currently holding a download slot.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		DownloadsTotal,
		DownloadDuration,
		ArtifactCleanupTotal,
		JobsInFlight,
	)
}
