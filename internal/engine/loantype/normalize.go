// internal/engine/loantype/normalize.go
package loantype

import (
	"strings"

	"loan-conditions-engine/internal/models"
)

// Normalize maps a raw mortgage-type string onto one of the five canonical
// loan types. Unknown or absent values fall back to Conventional; the caller
// decides whether that deserves a warning. The mapping is idempotent: feeding
// a canonical value back in returns it unchanged.
func Normalize(mortgageType string) (models.LoanType, bool) {
	switch strings.ToUpper(strings.TrimSpace(mortgageType)) {
	case "CONV", "CONVENTIONAL":
		return models.LoanTypeConventional, true
	case "FHA":
		return models.LoanTypeFHA, true
	case "VA":
		return models.LoanTypeVA, true
	case "USDA", "RHS":
		return models.LoanTypeUSDA, true
	case "NON-QM", "NONQM":
		return models.LoanTypeNonQM, true
	case "":
		return models.LoanTypeConventional, false
	default:
		return models.LoanTypeConventional, false
	}
}
