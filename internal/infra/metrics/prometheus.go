package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_keyframe_jobs_processed_total",
		Help: "Total number of selection jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_keyframe_job_processing_duration_seconds",
		Help:    "Duration of each stage of the keyframe pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_keyframe_frames_extracted_total",
		Help: "Total number of frames extracted across all jobs",
	})

	FramesScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_keyframe_frames_scanned_total",
		Help: "Frames visited by a selector, by strategy",
	}, []string{"strategy"})

	FramesSelectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_keyframe_frames_selected_total",
		Help: "Frames kept by a selector, by strategy",
	}, []string{"strategy"})

	FramesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_keyframe_frames_skipped_total",
		Help: "Per-frame failures absorbed during a scan, by strategy and outcome",
	}, []string{"strategy", "outcome"})

	SelectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_keyframe_selection_duration_seconds",
		Help:    "Wall time of one selector call",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"strategy"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_keyframe_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_keyframe_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
