// internal/engine/loantype/filter.go
package loantype

import (
	"fmt"
	"strings"

	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/common/metrics"
	"loan-conditions-engine/internal/models"
)

// Filter narrows a catalog to the conditions compatible with one loan's
// type. Conditions the loan's product can never trigger are dropped before
// rule evaluation so generic free-text matching cannot produce false
// positives for them.
type Filter struct {
	logger logger.Logger
}

func NewFilter(log logger.Logger) *Filter {
	return &Filter{logger: log.WithFields(map[string]interface{}{"component": "loantype-filter"})}
}

// Apply splits the catalog into applicable and filtered-out subsets for the
// given facts, recording a human-readable reason per dropped condition.
// An unknown mortgage type normalizes to Conventional with a warning; it is
// never a hard failure.
func (f *Filter) Apply(conditions []*models.Condition, facts *models.LoanFacts) *models.FilterResult {
	loanType, known := Normalize(facts.MortgageType)
	if !known {
		f.logger.Warn("unknown mortgage type, defaulting to Conv", map[string]interface{}{
			"loanId":       facts.LoanID,
			"mortgageType": facts.MortgageType,
		})
	}

	result := &models.FilterResult{
		Reasons: make(map[string]string),
	}

	for _, cond := range conditions {
		if cond.SupportedLoanTypes.Contains(loanType) {
			result.Applicable = append(result.Applicable, cond)
			continue
		}
		result.Filtered = append(result.Filtered, cond)
		result.Reasons[cond.Code] = fmt.Sprintf(
			"loan type '%s' not supported; supports: %s",
			loanType, joinTypes(cond.SupportedLoanTypes.Slice()),
		)
		metrics.ConditionsFiltered.WithLabelValues(string(loanType)).Inc()
	}

	f.logger.Debug("loan type filter applied", map[string]interface{}{
		"loanId":     facts.LoanID,
		"loanType":   string(loanType),
		"applicable": len(result.Applicable),
		"filtered":   len(result.Filtered),
	})

	return result
}

// Summary renders a one-line account of a filter pass for diagnostics.
func Summary(result *models.FilterResult, loanType string) string {
	total := len(result.Applicable) + len(result.Filtered)
	return fmt.Sprintf("loan type filter for %s: %d/%d conditions applicable, %d filtered out",
		loanType, len(result.Applicable), total, len(result.Filtered))
}

func joinTypes(types []models.LoanType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
