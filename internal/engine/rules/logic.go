// internal/engine/rules/logic.go
package rules

import (
	"strings"

	"loan-conditions-engine/internal/models"
)

// AssumeRetailChannel stands in for origination-channel data the fact
// extractor does not carry. Catalog rows gated on "OriginationChannel In
// List: Retail" apply as long as this default holds.
const AssumeRetailChannel = true

// HasTechnicalSignature reports whether a logic expression looks like the
// structured eligibility column rather than prose: comparison operators,
// list membership, or blank checks.
func HasTechnicalSignature(logic string) bool {
	return strings.Contains(logic, "==") ||
		strings.Contains(logic, "<") ||
		strings.Contains(logic, ">") ||
		strings.Contains(logic, "In List:") ||
		strings.Contains(logic, "Not Blank")
}

// logicShape maps one known technical-expression shape to a closed-form
// predicate over the loan facts. Shapes are tried in order; the first match
// decides the condition.
type logicShape struct {
	name  string
	match func(logic string) bool
	eval  func(f *models.LoanFacts) bool
}

var logicShapes = []logicShape{
	{
		name:  "va-refi-type-equality",
		match: func(l string) bool { return strings.Contains(l, "$refitypeva") && strings.Contains(l, "irrr") },
		eval: func(f *models.LoanFacts) bool {
			return f.VARefiType == "IRRR" || f.VARefiType == "IRRRL"
		},
	},
	{
		name:  "cash-to-borrower-threshold",
		match: func(l string) bool { return strings.Contains(l, "cashfromtoborrower") && strings.Contains(l, "< -500") },
		eval: func(f *models.LoanFacts) bool {
			return f.CashToBorrower < -500
		},
	},
	{
		name:  "origination-channel-retail",
		match: func(l string) bool { return strings.Contains(l, "filedata_originationchannel") && strings.Contains(l, "retail") },
		eval: func(f *models.LoanFacts) bool {
			return AssumeRetailChannel
		},
	},
	{
		name:  "liquid-assets-not-blank",
		match: func(l string) bool { return strings.Contains(l, "1003app1_liquidassets") && strings.Contains(l, "not blank") },
		eval: func(f *models.LoanFacts) bool {
			return len(f.BankAssets) > 0
		},
	},
	{
		name:  "income-base-not-blank",
		match: func(l string) bool { return strings.Contains(l, "1003app1_incomebase") && strings.Contains(l, "not blank") },
		eval: func(f *models.LoanFacts) bool {
			return len(f.Income) > 0
		},
	},
	{
		name:  "mortgage-type-constraint",
		match: containsMortgageTypeLogic,
		eval:  nil, // handled specially, needs the expression text
	},
	{
		name:  "lien-position-first",
		match: func(l string) bool { return strings.Contains(l, "lien position") && strings.Contains(l, "= 1") },
		eval: func(f *models.LoanFacts) bool {
			return f.LienPosition == 1
		},
	},
	{
		name:  "new-construction-flag",
		match: func(l string) bool { return strings.Contains(l, "new construction") && strings.Contains(l, "= yes") },
		eval: func(f *models.LoanFacts) bool {
			return f.NewConstruction
		},
	},
	{
		name:  "loan-purpose-purchase",
		match: func(l string) bool { return strings.Contains(l, "loan purpose") && strings.Contains(l, "purchase") },
		eval: func(f *models.LoanFacts) bool {
			return strings.EqualFold(f.LoanPurpose, "Purchase")
		},
	},
}

// evalLogicExpression evaluates a technical logic expression against the
// facts. The second return reports whether any known shape matched; an
// unrecognized expression falls through to the free-text classifier.
func evalLogicExpression(logic string, f *models.LoanFacts) (bool, bool) {
	logic = strings.ToLower(strings.TrimSpace(logic))
	for _, s := range logicShapes {
		if !s.match(logic) {
			continue
		}
		if s.eval == nil {
			return evalMortgageTypeLogic(logic, f), true
		}
		return s.eval(f), true
	}
	return false, false
}

func containsMortgageTypeLogic(logic string) bool {
	return strings.Contains(logic, "mortgage type") ||
		strings.Contains(logic, "loan_mortgagetype") ||
		strings.Contains(logic, "loan:")
}

// evalMortgageTypeLogic handles the family of mortgage-type equality and
// list-membership expressions. A mortgage-type expression with no
// recognizable alternative defaults to true so that a malformed type gate
// never silently suppresses a condition the filter already admitted.
func evalMortgageTypeLogic(logic string, f *models.LoanFacts) bool {
	loanType := strings.ToLower(f.MortgageType)

	if strings.Contains(logic, "mortgage type = va") || strings.Contains(logic, "loan: va") {
		return loanType == "va"
	}
	if strings.Contains(logic, "mortgage type = fha") || strings.Contains(logic, "loan: fha") {
		return loanType == "fha"
	}
	if strings.Contains(logic, "mortgage type = conv") || strings.Contains(logic, "mortgage type = conventional") {
		return loanType == "conv" || loanType == "conventional"
	}
	if strings.Contains(logic, "mortgage type = usda") || strings.Contains(logic, "mortgage type = rhs") {
		return loanType == "usda" || loanType == "rhs"
	}

	if strings.Contains(logic, "loan_mortgagetype") && strings.Contains(logic, "in list") {
		switch {
		case strings.Contains(logic, "va"):
			return loanType == "va"
		case strings.Contains(logic, "fha"):
			return loanType == "fha"
		case strings.Contains(logic, "conv"):
			return loanType == "conv" || loanType == "conventional"
		case strings.Contains(logic, "usda"):
			return loanType == "usda"
		}
	}

	if strings.Contains(logic, "mortgage type is not non-qm") || strings.Contains(logic, "mortgage type ≠ non-qm") {
		return loanType != "non-qm" && loanType != "nonqm"
	}

	if strings.Contains(logic, "-or-") && strings.Contains(logic, "mortgage type") {
		var supported []string
		if strings.Contains(logic, "conv") {
			supported = append(supported, "conv", "conventional")
		}
		if strings.Contains(logic, "fha") {
			supported = append(supported, "fha")
		}
		if strings.Contains(logic, "va") {
			supported = append(supported, "va")
		}
		if strings.Contains(logic, "usda") || strings.Contains(logic, "rhs") {
			supported = append(supported, "usda", "rhs")
		}
		for _, s := range supported {
			if loanType == s {
				return true
			}
		}
		return false
	}

	return true
}
