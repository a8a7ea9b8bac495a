// internal/engine/dynamicfields/processor.go
package dynamicfields

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"loan-conditions-engine/internal/models"
)

// Fixed mortgage-insurance defaults used when the loan file carries no MI
// quote of its own.
const (
	miCompanyName = "Genworth Mortgage Insurance"
	miRateFactor  = 0.35
	miType        = "Monthly"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// Processor resolves placeholder tokens in condition descriptions into
// loan-specific text. All methods are pure over (condition, facts) except
// for the clock, which is injectable for tests.
type Processor struct {
	now func() time.Time
}

func NewProcessor() *Processor {
	return &Processor{now: time.Now}
}

// NewProcessorAt fixes the processor's clock, for deterministic rendering.
func NewProcessorAt(now func() time.Time) *Processor {
	return &Processor{now: now}
}

// RenderDescription resolves the condition's description for this loan,
// preferring the dynamic template when one exists.
func (p *Processor) RenderDescription(cond *models.Condition, facts *models.LoanFacts) string {
	text := cond.DescriptionTemplate
	if strings.TrimSpace(cond.DynamicDescriptionTemplate) != "" {
		text = cond.DynamicDescriptionTemplate
	}
	return p.substitute(text, cond, facts)
}

// RenderBorrowerDescription resolves the borrower-facing text, or returns
// empty when the condition has none.
func (p *Processor) RenderBorrowerDescription(cond *models.Condition, facts *models.LoanFacts) string {
	if cond.BorrowerDescriptionTemplate == "" {
		return ""
	}
	return p.substitute(cond.BorrowerDescriptionTemplate, cond, facts)
}

// ComputeTokenMap resolves the tokens the condition declares in its dynamic
// data list, keyed by a bare token name for audit output.
func (p *Processor) ComputeTokenMap(cond *models.Condition, facts *models.LoanFacts) map[string]string {
	var fields map[string]string
	set := func(k, v string) {
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[k] = v
	}
	for _, token := range splitTokenList(cond.DynamicDataTokens) {
		switch token {
		case "<ReqMIPercent>":
			set("ReqMIPercent", miPercent(facts))
		case "<MI Company Name>":
			set("MICompanyName", miCompanyName)
		case "<MI Rate Factor>":
			set("MIRateFactor", fmt.Sprintf("%.2f", miRateFactor))
		case "<MI Type>":
			set("MIType", miType)
		case "<MI $ Amount>":
			set("MIAmount", FormatCurrency(miAmount(facts)))
		case "<Monthly PITI>":
			set("MonthlyPITI", FormatCurrency(facts.MonthlyPITI))
		case "<Earnest Money Deposit Amount>":
			set("EarnestMoneyDeposit", FormatCurrency(facts.EarnestMoneyDeposit))
		}
	}
	return fields
}

type substitution struct {
	placeholder string
	value       string
}

func (p *Processor) substitute(text string, cond *models.Condition, facts *models.LoanFacts) string {
	year := p.now().Year()
	priorYears := fmt.Sprintf("%d & %d", year-1, year-2)

	// Ordered so that overlapping placeholders resolve deterministically.
	subs := []substitution{
		{"<Monthly PITI>", FormatCurrency(facts.MonthlyPITI)},
		{"<Earnest Money Deposit Amount>", FormatCurrency(facts.EarnestMoneyDeposit)},
		{"<Earnest Money Deposit>", FormatCurrency(facts.EarnestMoneyDeposit)},
		{"<ReqMIPercent>", miPercent(facts)},
		{"<MI Company Name>", miCompanyName},
		{"<MI Rate Factor>", fmt.Sprintf("%.2f", miRateFactor)},
		{"<MI Type>", miType},
		{"<MI $ Amount>", FormatCurrency(miAmount(facts))},
		{"<#>", fmt.Sprintf("%d", requiredMonths(cond, facts))},
		{"<application date>", p.now().Format("1/2/2006")},
		{"<<property address from REO linked to mortgage>>", facts.FirstREOAddress()},
		{"<REO.Street>", facts.FirstREOAddress()},
		{"_____ & _____", priorYears},
	}

	for _, s := range subs {
		if s.value == "" {
			continue
		}
		text = strings.ReplaceAll(text, s.placeholder, s.value)
	}

	return p.fillBlanks(text, cond, facts, priorYears)
}

// fillBlanks resolves the residual underscore placeholders that the catalog
// uses where no named token exists.
func (p *Processor) fillBlanks(text string, cond *models.Condition, facts *models.LoanFacts, priorYears string) string {
	if strings.Contains(text, "___ months") {
		months := fmt.Sprintf("%d months", requiredMonths(cond, facts))
		text = strings.ReplaceAll(text, "___ months", months)
	}
	if strings.Contains(text, "for _______.") {
		text = strings.ReplaceAll(text, "for _______.", "for borrower.")
	}
	if strings.Contains(text, "to support $_______") {
		if total := facts.TotalIncome(); total > 0 {
			text = strings.ReplaceAll(text, "to support $_______", "to support "+FormatCurrency(total))
		}
	}
	if strings.Contains(text, "from _____") {
		text = strings.ReplaceAll(text, "from _____", "from employer")
	}
	if strings.Contains(text, "for _____") {
		text = strings.ReplaceAll(text, "for _____", "for business")
	}
	if strings.Contains(text, "located at ____") {
		if addr := facts.FirstREOAddress(); addr != "" {
			text = strings.ReplaceAll(text, "located at ____", "located at "+addr)
		}
	}
	// Bare tax-year blank runs last so it cannot eat the wider blanks above.
	text = strings.ReplaceAll(text, "______", priorYears)
	return text
}

func splitTokenList(tokens string) []string {
	var out []string
	for _, line := range strings.Split(tokens, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// miPercent is the required mortgage-insurance coverage by loan type and
// LTV bracket.
func miPercent(f *models.LoanFacts) string {
	switch f.MortgageType {
	case "FHA":
		if f.LTV > 0 && f.LTV <= 90 {
			return "0.80%"
		}
		return "0.85%"
	case "Conv", "Conventional":
		switch {
		case f.LTV > 0 && f.LTV <= 85:
			return "0.25%"
		case f.LTV > 0 && f.LTV <= 90:
			return "0.35%"
		case f.LTV > 0 && f.LTV <= 95:
			return "0.52%"
		default:
			return "0.65%"
		}
	}
	return "0.35%"
}

// miAmount is the monthly MI dollar amount implied by the default rate
// factor, expressed as an annual percent of the loan amount.
func miAmount(f *models.LoanFacts) float64 {
	if f.LoanAmount <= 0 {
		return 0
	}
	return f.LoanAmount * (miRateFactor / 100) / 12
}

// requiredMonths is the months of asset history required for the
// asset-verification condition family.
func requiredMonths(cond *models.Condition, f *models.LoanFacts) int {
	if strings.HasPrefix(cond.Code, "ASSET") {
		switch f.MortgageType {
		case "VA", "USDA":
			return 1
		case "FHA", "Conv", "Conventional":
			return 2
		}
	}
	return 2
}

// FormatCurrency renders a dollar amount with thousands separators and no
// cents, e.g. 1234567.89 -> "$1,234,568". A zero amount renders empty: a
// MISMO field that was never present decodes as zero, and substitution
// skips empty values so the placeholder stays visible for a processor to
// fill by hand rather than reading as a spurious "$0".
func FormatCurrency(amount float64) string {
	if amount == 0 {
		return ""
	}
	return currencyPrinter.Sprintf("$%.0f", amount)
}
