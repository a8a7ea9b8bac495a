// internal/engine/dynamicfields/reasons.go
package dynamicfields

import (
	"fmt"
	"strings"

	"loan-conditions-engine/internal/models"
)

// Reason builds the audit explanation for why a condition applied. It is
// advisory text only and plays no part in the applicability decision.
func Reason(cond *models.Condition, facts *models.LoanFacts) string {
	switch cond.Code {
	case "APP100":
		return fmt.Sprintf("Citizenship = %q", facts.Citizenship)
	case "APP102":
		return fmt.Sprintf("Conventional loan with LTV %.0f%% > 80%%", facts.LTV)
	case "APP108":
		return fmt.Sprintf("%s loan with AUS result %q", facts.MortgageType, facts.AUSResult)
	case "ASSET500":
		return fmt.Sprintf("%d bank asset(s) listed on the URLA", len(facts.BankAssets))
	case "ASSET507":
		return fmt.Sprintf("Earnest money deposit of %s on the purchase contract",
			FormatCurrency(facts.EarnestMoneyDeposit))
	case "CLSNG827":
		return fmt.Sprintf("VA refinance with refi type %q", facts.VARefiType)
	case "CLSNG890":
		return "VA purchase transaction"
	case "CRED305":
		return fmt.Sprintf("Bankruptcy on record with AUS result %q on a %s loan",
			facts.AUSResult, facts.MortgageType)
	case "CRED308":
		n := reoLinkedCount(facts)
		return fmt.Sprintf("%d REO propert%s linked to a mortgage liability", n, pluralY(n))
	case "CRED309", "CRED310":
		return "Refinance with REO mortgage marked to be paid off at closing"
	case "CRED317":
		return "First lien position"
	case "CRED320":
		return fmt.Sprintf("Credit was run on this %s loan", facts.MortgageType)
	}

	switch {
	case strings.HasPrefix(cond.Code, "INC"):
		if facts.SelfEmployed {
			return "Self-employment income requires verification"
		}
		if len(facts.Income) > 0 {
			return fmt.Sprintf("Income totaling %s requires verification",
				FormatCurrency(facts.TotalIncome()))
		}
	case strings.HasPrefix(cond.Code, "NEW CONST"):
		if facts.NewConstruction {
			return fmt.Sprintf("New construction %s loan in %s",
				facts.MortgageType, facts.PropertyState)
		}
	case strings.HasPrefix(cond.Code, "PROP"):
		if facts.PropertyState != "" {
			return fmt.Sprintf("Property requirement for %s loan in %s",
				facts.MortgageType, facts.PropertyState)
		}
	}

	if facts.MortgageType != "" {
		return fmt.Sprintf("Applies to %s loans", facts.MortgageType)
	}
	return "General loan requirement"
}

func reoLinkedCount(facts *models.LoanFacts) int {
	count := 0
	for _, p := range facts.REO {
		if p.LinkedToMortgage {
			count++
		}
	}
	return count
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
