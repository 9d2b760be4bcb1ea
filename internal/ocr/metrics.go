package ocr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// passFailures counts passes that faulted or timed out and yielded nothing.
	passFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterocr_ocr_pass_failures_total",
			Help: "OCR passes that failed and were treated as zero observations",
		},
		[]string{"pass"},
	)

	// observationsAccepted counts observations that cleared their pass floor.
	observationsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meterocr_ocr_observations_total",
			Help: "OCR observations accepted per pass",
		},
		[]string{"pass"},
	)

	// variantDuration tracks time spent reading one variant across all passes.
	variantDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meterocr_ocr_variant_duration_seconds",
			Help:    "Time spent running all passes over one filter-bank variant",
			Buckets: prometheus.DefBuckets,
		},
	)
)
