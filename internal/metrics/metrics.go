package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticlesTotal counts finished articles by outcome (succeeded, skipped, failed).
	ArticlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refiner_articles_total",
		Help: "Articles processed by the enrichment pipeline, by outcome.",
	}, []string{"outcome"})

	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refiner_stage_failures_total",
		Help: "Pipeline stage failures.",
	}, []string{"stage"})

	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refiner_provider_attempts_total",
		Help: "Calls to external providers made through the retry wrapper.",
	}, []string{"provider", "result"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "refiner_stage_duration_seconds",
		Help:    "Time spent in each pipeline stage.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})
)
