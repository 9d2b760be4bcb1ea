package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	imagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterocr_images_processed_total",
		Help: "Images processed, by outcome (paired, unpaired, unreadable, failed).",
	}, []string{"status"})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meterocr_processing_duration_seconds",
		Help:    "Wall-clock time from detection to render for one image.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	detectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterocr_detections_total",
		Help: "Resolved detections, by class.",
	}, []string{"class"})

	unresolvedRegions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meterocr_unresolved_regions_total",
		Help: "Regions that passed the detection gates but yielded no digits.",
	})
)

// Outcome labels for meterocr_images_processed_total.
const (
	StatusPaired     = "paired"
	StatusUnpaired   = "unpaired"
	StatusUnreadable = "unreadable"
	StatusFailed     = "failed"
)
