// internal/engine/rules/text.go
package rules

import (
	"strings"

	"loan-conditions-engine/internal/models"
)

// termiteStates are the states (plus D.C.) where VA and new-construction
// files require a termite / wood-destroying-insect report.
var termiteStates = map[string]bool{
	"Alabama": true, "Arkansas": true, "Arizona": true, "California": true,
	"Connecticut": true, "Delaware": true, "Florida": true, "Georgia": true,
	"Hawaii": true, "Iowa": true, "Illinois": true, "Indiana": true,
	"Kansas": true, "Kentucky": true, "Louisiana": true, "Massachusetts": true,
	"Maryland": true, "Mississippi": true, "Missouri": true,
	"North Carolina": true, "Nebraska": true, "New Jersey": true,
	"New Mexico": true, "Nevada": true, "Ohio": true, "Oklahoma": true,
	"Pennsylvania": true, "Rhode Island": true, "South Carolina": true,
	"Tennessee": true, "Texas": true, "Utah": true, "Virginia": true,
	"West Virginia": true, "Washington, D.C.": true,
}

func isGovy(mortgageType string) bool {
	switch mortgageType {
	case "FHA", "VA", "USDA":
		return true
	}
	return false
}

func isStandardType(mortgageType string) bool {
	switch mortgageType {
	case "Conv", "Conventional", "FHA", "VA", "USDA":
		return true
	}
	return false
}

func isConventional(mortgageType string) bool {
	return mortgageType == "Conv" || mortgageType == "Conventional"
}

// textRule is one phrase predicate over the lowercased rule text. Rules are
// tried in declaration order; the first whose match fires decides the
// condition, whatever its eval returns. Ordering is load-bearing: narrow
// phrases sit above the broad ones that would otherwise shadow them.
type textRule struct {
	name  string
	match func(rules string) bool
	eval  func(f *models.LoanFacts) bool
}

func has(rules string, phrases ...string) bool {
	for _, p := range phrases {
		if !strings.Contains(rules, p) {
			return false
		}
	}
	return true
}

func hasAny(rules string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(rules, p) {
			return true
		}
	}
	return false
}

var textRules = []textRule{
	{
		name:  "citizenship-non-us",
		match: func(r string) bool { return has(r, "citizenship", "anything other than us citizen") },
		eval: func(f *models.LoanFacts) bool {
			return f.Citizenship != "" && f.Citizenship != "US Citizen"
		},
	},
	{
		name:  "conventional-ltv-over-80",
		match: func(r string) bool { return has(r, "conventional", "ltv", "greater than 80") },
		eval: func(f *models.LoanFacts) bool {
			return isConventional(f.MortgageType) && f.LTV > 80
		},
	},
	{
		name:  "all-files-aus-approved",
		match: func(r string) bool { return has(r, "all files conventional & govy", "approved") },
		eval: func(f *models.LoanFacts) bool {
			return isStandardType(f.MortgageType) && f.AUSResult == "Approved"
		},
	},
	{
		name:  "bank-assets-on-urla",
		match: func(r string) bool { return has(r, "bank assets", "urla") },
		eval: func(f *models.LoanFacts) bool {
			return f.HasBankAssets
		},
	},
	{
		name:  "emd-present",
		match: func(r string) bool { return strings.Contains(r, "emd amount is > $0") },
		eval: func(f *models.LoanFacts) bool {
			return f.EarnestMoneyDeposit >= 1
		},
	},
	{
		name:  "va-irrrl",
		match: func(r string) bool { return hasAny(r, "va irrrl", "all va irrrl") },
		eval: func(f *models.LoanFacts) bool {
			return f.MortgageType == "VA" && (f.VARefiType == "IRRRL" || f.VARefiType == "IRRR")
		},
	},
	{
		name:  "va-purchase",
		match: func(r string) bool { return strings.Contains(r, "loan: va, purchase") },
		eval: func(f *models.LoanFacts) bool {
			return f.MortgageType == "VA" && f.LoanPurpose == "Purchase"
		},
	},
	{
		name:  "bankruptcy-recent-govy-no-aus",
		match: func(r string) bool { return has(r, "bk in the last 7 years", "no aus", "govy") },
		eval: func(f *models.LoanFacts) bool {
			return f.Bankruptcy && f.AUSResult != "Approved" && isGovy(f.MortgageType)
		},
	},
	{
		name:  "bankruptcy-generic",
		match: func(r string) bool { return hasAny(r, "bankruptcy", "bankrupt") },
		eval: func(f *models.LoanFacts) bool {
			return f.Bankruptcy
		},
	},
	{
		name:  "reo-linked-mortgage",
		match: func(r string) bool { return has(r, "reo", "linked to a mortgage liability") },
		eval: func(f *models.LoanFacts) bool {
			for _, p := range f.REO {
				if p.LinkedToMortgage {
					return true
				}
			}
			return false
		},
	},
	{
		name:  "refinance-with-payoffs",
		match: func(r string) bool { return has(r, "refinance", "paid off at closing") },
		eval: func(f *models.LoanFacts) bool {
			if f.LoanPurpose != "Refinance" || f.LienPosition != 1 || !isStandardType(f.MortgageType) {
				return false
			}
			for _, p := range f.REO {
				if p.PaidOffAtClosing {
					return true
				}
			}
			return false
		},
	},
	{
		name:  "lien-position-first",
		match: func(r string) bool { return strings.Contains(r, "lien position = 1") },
		eval: func(f *models.LoanFacts) bool {
			return f.LienPosition == 1
		},
	},
	{
		name:  "community-property-married",
		match: func(r string) bool { return has(r, "fha, usda and va", "community property", "married") },
		eval: func(f *models.LoanFacts) bool {
			return isGovy(f.MortgageType) && f.MarriageStatus == "Married"
		},
	},
	{
		name:  "employed-not-self-employed",
		match: func(r string) bool { return has(r, "employer status", "current", "self employed", "empty") },
		eval: func(f *models.LoanFacts) bool {
			return len(f.Income) > 0 && !f.SelfEmployed && isStandardType(f.MortgageType)
		},
	},
	{
		name:  "alimony-income",
		match: func(r string) bool { return hasAny(r, "other income type = alimony", "alimony") },
		eval: func(f *models.LoanFacts) bool {
			return f.HasAlimonyIncome
		},
	},
	{
		name:  "child-support-income",
		match: func(r string) bool { return hasAny(r, "child support", "other income type = child support") },
		eval: func(f *models.LoanFacts) bool {
			return f.HasChildSupportIncome
		},
	},
	{
		name:  "pension-income",
		match: func(r string) bool { return strings.Contains(r, "income with type = pension") },
		eval: func(f *models.LoanFacts) bool {
			for _, inc := range f.Income {
				if strings.Contains(strings.ToLower(inc.Type), "pension") {
					return true
				}
			}
			return false
		},
	},
	{
		name: "fha-self-employed-or-va-manual",
		match: func(r string) bool {
			return has(r, "fha", "self-employed") || has(r, "va", "manual underwrite")
		},
		eval: func(f *models.LoanFacts) bool {
			return (f.MortgageType == "FHA" && f.SelfEmployed) ||
				(f.MortgageType == "VA" && f.UnderwritingMethod == "Manual")
		},
	},
	{
		name:  "new-construction",
		match: func(r string) bool { return strings.Contains(r, "new construction") },
		eval:  nil, // needs the rule text, handled in evalRulesText
	},
	{
		name: "hazard-insurance-standard",
		match: func(r string) bool {
			return hasAny(r, "coventional", "conventional") ||
				has(r, "va", "fha", "hazard insurance")
		},
		eval: func(f *models.LoanFacts) bool {
			switch f.MortgageType {
			case "Conv", "Conventional", "VA", "FHA":
				return f.LienPosition == 1
			}
			return false
		},
	},
	{
		name:  "va-termite-not-irrrl",
		match: func(r string) bool { return has(r, "va", "termite", "not irrrl") },
		eval: func(f *models.LoanFacts) bool {
			return f.MortgageType == "VA" &&
				f.VARefiType != "IRRRL" &&
				!f.NewConstruction &&
				f.LienPosition == 1 &&
				termiteStates[f.PropertyState]
		},
	},
	{
		name:  "reo-to-be-sold",
		match: func(r string) bool { return strings.Contains(r, "any reo to be sold exists") },
		eval: func(f *models.LoanFacts) bool {
			for _, p := range f.REO {
				if p.MarkedForSale {
					return true
				}
			}
			return false
		},
	},
	{
		name: "reo-refinance-payoff",
		match: func(r string) bool {
			return has(r, "loan purpose = refinance", "any reo has a mortgage", "marked to be paid off at closing")
		},
		eval: func(f *models.LoanFacts) bool {
			if f.LoanPurpose != "Refinance" || f.LienPosition != 1 || !isStandardType(f.MortgageType) {
				return false
			}
			for _, p := range f.REO {
				if p.LinkedToMortgage && p.PaidOffAtClosing {
					return true
				}
			}
			return false
		},
	},
	{
		name:  "credit-was-run",
		match: func(r string) bool { return strings.Contains(r, "conventional, fha, va and usda where credit was run") },
		eval: func(f *models.LoanFacts) bool {
			return isStandardType(f.MortgageType) && f.CreditRunIndicator
		},
	},
	{
		name: "self-employed-ownership-or-family",
		match: func(r string) bool {
			return has(r, "self employed or business owner field is not empty") &&
				hasAny(r,
					"ownership share = greater than or equal to 25 percent",
					"employed by family or party to transaction field = yes")
		},
		eval: func(f *models.LoanFacts) bool {
			if !f.SelfEmployed {
				return false
			}
			for _, inc := range f.Income {
				if inc.OwnershipShare >= 25 || inc.EmployedByFamily {
					return true
				}
			}
			return false
		},
	},
	{
		name:  "all-government-transactions",
		match: func(r string) bool { return strings.Contains(r, "all fha, va and usda transactions") },
		eval: func(f *models.LoanFacts) bool {
			return isGovy(f.MortgageType)
		},
	},
	{
		name: "va-new-construction-purchase",
		match: func(r string) bool {
			return has(r, "va only", "new construction checkbox = true only", "purchase only")
		},
		eval: func(f *models.LoanFacts) bool {
			return f.MortgageType == "VA" && f.NewConstruction && f.LoanPurpose == "Purchase"
		},
	},
	{
		name:  "new-construction-termite-states",
		match: func(r string) bool { return has(r, "new const in specific states", "usda/va/fha") },
		eval: func(f *models.LoanFacts) bool {
			return isGovy(f.MortgageType) &&
				f.NewConstruction &&
				termiteStates[f.PropertyState]
		},
	},
	{
		name:  "fha-new-construction-purchase",
		match: func(r string) bool { return strings.Contains(r, "all fha new construction purchase") },
		eval: func(f *models.LoanFacts) bool {
			return f.MortgageType == "FHA" && f.NewConstruction && f.LoanPurpose == "Purchase"
		},
	},
	{
		name:  "va-appraisal-exclude-irrrl",
		match: func(r string) bool { return has(r, "va", "exclude irrrl") },
		eval: func(f *models.LoanFacts) bool {
			return f.MortgageType == "VA" && f.VARefiType != "IRRRL" && f.LienPosition == 1
		},
	},
	{
		name:  "title-requirements",
		match: func(r string) bool { return hasAny(r, "preliminary title", "closing protection") },
		eval: func(f *models.LoanFacts) bool {
			switch f.MortgageType {
			case "Conv", "Conventional", "VA", "FHA", "USDA":
				return f.LienPosition == 1
			}
			return false
		},
	},
	{
		name:  "all-standard-types",
		match: func(r string) bool { return hasAny(r, "conventional, fha, va and usda", "all transactions") },
		eval: func(f *models.LoanFacts) bool {
			return isStandardType(f.MortgageType)
		},
	},
	{
		name:  "every-loan",
		match: func(r string) bool { return hasAny(r, "every loan", "all loans") },
		eval: func(f *models.LoanFacts) bool {
			return true
		},
	},
}

// evalRulesText classifies the free-text rule description and evaluates the
// first matching predicate. The second return reports whether any predicate
// recognized the text at all.
func evalRulesText(rulesText string, f *models.LoanFacts) (bool, bool) {
	rules := strings.ToLower(strings.TrimSpace(rulesText))
	for _, tr := range textRules {
		if !tr.match(rules) {
			continue
		}
		if tr.eval == nil {
			return evalNewConstruction(rules, f), true
		}
		return tr.eval(f), true
	}
	return false, false
}

// evalNewConstruction handles the family of new-construction phrasings. The
// scoped variants (VA-only purchase, FHA) take precedence over the bare flag.
func evalNewConstruction(rules string, f *models.LoanFacts) bool {
	if strings.Contains(rules, "va only") {
		return f.MortgageType == "VA" && f.NewConstruction && f.LoanPurpose == "Purchase"
	}
	if strings.Contains(rules, "fha new construction") {
		return f.MortgageType == "FHA" && f.NewConstruction
	}
	return f.NewConstruction
}
