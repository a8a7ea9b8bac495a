// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_evaluations_total",
			Help: "Total number of loan evaluations by outcome",
		},
		[]string{"status"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "loan_evaluation_duration_seconds",
			Help: "Duration of a full filter/evaluate/render pass in seconds",
		},
	)

	ConditionsApplied = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_conditions_applied",
			Help:    "Number of conditions applied per evaluation, by stage",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
		[]string{"stage"},
	)

	ConditionsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_conditions_filtered_total",
			Help: "Conditions dropped by the loan-type filter, by loan type",
		},
		[]string{"loan_type"},
	)

	RuleClassificationGaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_classification_gaps_total",
			Help: "Conditions whose rule text matched no known predicate",
		},
		[]string{"condition_code"},
	)

	CatalogSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "condition_catalog_size",
			Help: "Number of loaded catalog conditions per stage",
		},
		[]string{"stage"},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condition_catalog_reloads_total",
			Help: "Catalog reload attempts by outcome",
		},
		[]string{"status"},
	)
)
