// internal/engine/rules/evaluator.go
package rules

import (
	"strings"

	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/common/metrics"
	"loan-conditions-engine/internal/models"
)

// Evaluator decides whether a condition applies to a loan. Structured logic
// expressions take precedence over the free-text rule description; an
// expression no shape recognizes falls back to the text classifier rather
// than silently deciding the condition.
type Evaluator struct {
	logger logger.Logger
}

func NewEvaluator(log logger.Logger) *Evaluator {
	return &Evaluator{logger: log}
}

// Evaluate returns true when the condition applies to the given facts. A
// panic raised while evaluating one condition is contained here so a single
// malformed catalog row cannot take down a whole evaluation run.
func (e *Evaluator) Evaluate(cond *models.Condition, facts *models.LoanFacts) (applies bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("condition evaluation panicked", map[string]interface{}{
				"condition_code": cond.Code,
				"panic":          r,
			})
			applies = false
		}
	}()

	if e.hasTechnicalLogic(cond) {
		if applies, recognized := evalLogicExpression(cond.LogicText, facts); recognized {
			if applies {
				e.logger.Debug("condition applies via logic expression", map[string]interface{}{
					"condition_code": cond.Code,
				})
			}
			return applies
		}
		e.logger.Debug("logic expression unrecognized, trying rule text", map[string]interface{}{
			"condition_code": cond.Code,
		})
	}

	rulesText := cond.RuleText
	if rulesText == "" {
		rulesText = cond.LogicText
	}
	if strings.TrimSpace(rulesText) == "" {
		return false
	}

	applies, recognized := evalRulesText(rulesText, facts)
	if !recognized {
		e.logger.Warn("unable to classify rule text, condition will not apply", map[string]interface{}{
			"condition_code": cond.Code,
			"rule_text":      rulesText,
		})
		metrics.RuleClassificationGaps.WithLabelValues(cond.Code).Inc()
		return false
	}
	if applies {
		e.logger.Debug("condition applies via rule text", map[string]interface{}{
			"condition_code": cond.Code,
		})
	}
	return applies
}

// hasTechnicalLogic reports whether the logic column should be evaluated as
// a structured expression: present, distinct from the prose column, and
// carrying operator syntax.
func (e *Evaluator) hasTechnicalLogic(cond *models.Condition) bool {
	return strings.TrimSpace(cond.LogicText) != "" &&
		cond.LogicText != cond.RuleText &&
		HasTechnicalSignature(cond.LogicText)
}
