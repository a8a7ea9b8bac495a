// internal/engine/engine.go
package engine

import (
	"sort"
	"time"

	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/common/metrics"
	"loan-conditions-engine/internal/engine/dynamicfields"
	"loan-conditions-engine/internal/engine/loantype"
	"loan-conditions-engine/internal/engine/rules"
	"loan-conditions-engine/internal/models"
)

// Engine runs one deterministic evaluation pass over a catalog snapshot:
// filter by loan type, evaluate each surviving condition, render its
// descriptions, group by stage and sort by code. The engine holds no
// catalog state of its own; callers pass a snapshot, so concurrent
// evaluations against different snapshots are safe.
type Engine struct {
	filter    *loantype.Filter
	evaluator *rules.Evaluator
	processor *dynamicfields.Processor
	logger    logger.Logger
	now       func() time.Time
}

func New(log logger.Logger) *Engine {
	return &Engine{
		filter:    loantype.NewFilter(log),
		evaluator: rules.NewEvaluator(log),
		processor: dynamicfields.NewProcessor(),
		logger:    log,
		now:       time.Now,
	}
}

// NewAt fixes the engine's clock, for deterministic results in tests.
func NewAt(log logger.Logger, now func() time.Time) *Engine {
	e := New(log)
	e.processor = dynamicfields.NewProcessorAt(now)
	e.now = now
	return e
}

// Evaluate runs the full pass for one loan against the given catalog
// snapshot and returns the stage-grouped result.
func (e *Engine) Evaluate(catalog []*models.Condition, facts *models.LoanFacts) *models.EvaluationResult {
	start := e.now()

	filtered := e.filter.Apply(catalog, facts)
	e.logger.Info("loan type filter complete", map[string]interface{}{
		"loan_id":    facts.LoanID,
		"applicable": len(filtered.Applicable),
		"filtered":   len(filtered.Filtered),
	})

	result := &models.EvaluationResult{
		LoanID:         facts.LoanID,
		EvaluationDate: start.UTC().Format(time.RFC3339),
	}

	for _, cond := range filtered.Applicable {
		if !e.evaluator.Evaluate(cond, facts) {
			continue
		}
		applicable := e.buildApplicable(cond, facts)
		switch cond.Stage {
		case models.StagePriorToDocs:
			result.Conditions.PTD = append(result.Conditions.PTD, applicable)
		case models.StagePriorToFunding:
			result.Conditions.PTF = append(result.Conditions.PTF, applicable)
		case models.StagePostFunding:
			result.Conditions.POST = append(result.Conditions.POST, applicable)
		default:
			e.logger.Error("condition has unrecognized stage", map[string]interface{}{
				"condition_code": cond.Code,
				"stage":          string(cond.Stage),
			})
		}
	}

	sortBucket(result.Conditions.PTD)
	sortBucket(result.Conditions.PTF)
	sortBucket(result.Conditions.POST)
	result.TotalConditions = len(result.Conditions.PTD) +
		len(result.Conditions.PTF) +
		len(result.Conditions.POST)

	metrics.ConditionsApplied.WithLabelValues(string(models.StagePriorToDocs)).Observe(float64(len(result.Conditions.PTD)))
	metrics.ConditionsApplied.WithLabelValues(string(models.StagePriorToFunding)).Observe(float64(len(result.Conditions.PTF)))
	metrics.ConditionsApplied.WithLabelValues(string(models.StagePostFunding)).Observe(float64(len(result.Conditions.POST)))
	metrics.EvaluationsTotal.WithLabelValues("success").Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("evaluation complete", map[string]interface{}{
		"loan_id":          facts.LoanID,
		"total_conditions": result.TotalConditions,
		"duration_ms":      time.Since(start).Milliseconds(),
	})
	return result
}

// FilterByLoanType exposes the loan-type narrowing standalone, for
// diagnostics and statistics endpoints.
func (e *Engine) FilterByLoanType(catalog []*models.Condition, facts *models.LoanFacts) *models.FilterResult {
	return e.filter.Apply(catalog, facts)
}

func (e *Engine) buildApplicable(cond *models.Condition, facts *models.LoanFacts) models.ApplicableCondition {
	return models.ApplicableCondition{
		Code:                cond.Code,
		ClassTag:            cond.ClassTag,
		Description:         e.processor.RenderDescription(cond, facts),
		BorrowerDescription: e.processor.RenderBorrowerDescription(cond, facts),
		DocumentProvider:    cond.DocumentProvider,
		Category:            cond.Category,
		DynamicFields:       e.processor.ComputeTokenMap(cond, facts),
		ReasonApplied:       dynamicfields.Reason(cond, facts),
	}
}

func sortBucket(bucket []models.ApplicableCondition) {
	sort.Slice(bucket, func(i, j int) bool {
		return bucket[i].Code < bucket[j].Code
	})
}
