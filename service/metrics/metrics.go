/*
 * @module service/metrics/metrics
 * @description Prometheus collectors for the inspection pipeline, exposed on /metrics
 * @architecture observability layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow scoring call -> observe OCR latency + record outcome
 * @rules collectors are registered once at package init
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/etiqueta/service.go
 */

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ocrDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "controlflow_ocr_extraction_seconds",
		Help:    "Duration of OCR extraction calls.",
		Buckets: prometheus.DefBuckets,
	})

	ocrFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "controlflow_ocr_failures_total",
		Help: "Number of failed OCR extraction calls.",
	})

	inspectionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controlflow_inspection_results_total",
		Help: "Inspection results by outcome.",
	}, []string{"outcome"})

	similarityScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "controlflow_similarity_score",
		Help:    "Distribution of computed similarity scores.",
		Buckets: []float64{10, 25, 50, 70, 80, 85, 90, 95, 99, 100},
	})
)

// ObserveOCR records one OCR extraction.
func ObserveOCR(d time.Duration, err error) {
	ocrDuration.Observe(d.Seconds())
	if err != nil {
		ocrFailures.Inc()
	}
}

// RecordResult records one persisted inspection result.
func RecordResult(score float64, passed bool) {
	similarityScores.Observe(score)
	if passed {
		inspectionResults.WithLabelValues("passed").Inc()
	} else {
		inspectionResults.WithLabelValues("failed").Inc()
	}
}
