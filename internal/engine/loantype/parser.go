// internal/engine/loantype/parser.go
package loantype

import (
	"regexp"

	"loan-conditions-engine/internal/models"
)

// patternRule binds one catalog text shape to the loan types it names.
// Rules are tried in order; the first hit wins and short-circuits.
type patternRule struct {
	re    *regexp.Regexp
	types []models.LoanType
}

var (
	conv = models.LoanTypeConventional
	fha  = models.LoanTypeFHA
	va   = models.LoanTypeVA
	usda = models.LoanTypeUSDA
)

// ruleTextPatterns cover the shapes found in the catalog's free-text rule
// column, most specific first.
var ruleTextPatterns = []patternRule{
	{regexp.MustCompile(`(?i)VA\s+Only`), []models.LoanType{va}},
	{regexp.MustCompile(`(?i)FHA\s+Only`), []models.LoanType{fha}},
	{regexp.MustCompile(`(?i)USDA\s+Only`), []models.LoanType{usda}},
	{regexp.MustCompile(`(?i)Conv(?:entional)?\s+Only`), []models.LoanType{conv}},

	{regexp.MustCompile(`(?i)All\s+Files\s+Conventional\s+&\s+Govy`), []models.LoanType{conv, fha, va, usda}},
	{regexp.MustCompile(`(?i)Conventional,?\s+FHA,?\s+VA\s+and\s+USDA`), []models.LoanType{conv, fha, va, usda}},
	{regexp.MustCompile(`(?i)On\s+all\s+Convention,?\s+FHA,?\s+VA,?\s+USDA`), []models.LoanType{conv, fha, va, usda}},

	{regexp.MustCompile(`(?i)Conv(?:entional)?\s+-or-\s+FHA\s+-or-\s+VA\s+-or-\s+(?:RHS|USDA)`), []models.LoanType{conv, fha, va, usda}},
	{regexp.MustCompile(`(?i)Conv(?:entional)?\s+-or-\s+VA\s+-or-\s+FHA`), []models.LoanType{conv, va, fha}},
	{regexp.MustCompile(`(?i)FHA\s+-or-\s+VA`), []models.LoanType{fha, va}},

	{regexp.MustCompile(`(?i)Mortgage\s+Type\s*=\s*Conv(?:entional)?\s+or\s+FHA\s+or\s+VA\s+or\s+(?:RHS|USDA)`), []models.LoanType{conv, fha, va, usda}},
	{regexp.MustCompile(`(?i)Conv(?:entional)?\s+or\s+FHA\s+or\s+VA\s+or\s+(?:RHS|USDA)`), []models.LoanType{conv, fha, va, usda}},

	{regexp.MustCompile(`(?i)New\s+Const\s+in\s+specific\s+states\s+USDA/VA/FHA`), []models.LoanType{usda, va, fha}},
}

// logicTextPatterns cover the structured eligibility column.
var logicTextPatterns = []patternRule{
	{regexp.MustCompile(`(?i)Mortgage\s+Type.*Conv.*FHA.*VA.*(?:USDA|RHS)`), []models.LoanType{conv, fha, va, usda}},
	{regexp.MustCompile(`(?i)Mortgage\s+Type\s*=\s*VA`), []models.LoanType{va}},
	{regexp.MustCompile(`(?i)Mortgage\s+Type\s*=\s*FHA`), []models.LoanType{fha}},
	{regexp.MustCompile(`(?i)Mortgage\s+Type\s*=\s*Conv(?:entional)?`), []models.LoanType{conv}},
	{regexp.MustCompile(`(?i)Mortgage\s+Type\s*=\s*(?:USDA|RHS)`), []models.LoanType{usda}},
	{regexp.MustCompile(`(?i)Loan:\s*VA`), []models.LoanType{va}},
	{regexp.MustCompile(`(?i)Loan:\s*FHA`), []models.LoanType{fha}},
}

// Bare mentions act as independent signals when no pattern matched. The
// result is a union, never exclusive.
var (
	mentionVA   = regexp.MustCompile(`(?i)\bVA\b`)
	mentionFHA  = regexp.MustCompile(`(?i)\bFHA\b`)
	mentionUSDA = regexp.MustCompile(`(?i)\b(?:USDA|RHS)\b`)
	mentionConv = regexp.MustCompile(`(?i)\bConv(?:entional)?\b`)
)

// Constraint is one parsed loan-type restriction, with the literal text kept
// as provenance.
type Constraint struct {
	Source string            `json:"source"` // "rule" or "logic"
	Text   string            `json:"text"`
	Types  []models.LoanType `json:"types"`
}

// parseRuleText runs the ordered rule-text patterns, then falls back to a
// bare-mention scan.
func parseRuleText(text string) []models.LoanType {
	if text == "" {
		return nil
	}
	for _, p := range ruleTextPatterns {
		if p.re.MatchString(text) {
			return p.types
		}
	}

	var found []models.LoanType
	if mentionVA.MatchString(text) {
		found = append(found, va)
	}
	if mentionFHA.MatchString(text) {
		found = append(found, fha)
	}
	if mentionUSDA.MatchString(text) {
		found = append(found, usda)
	}
	if mentionConv.MatchString(text) {
		found = append(found, conv)
	}
	return found
}

// parseLogicText runs only the structured patterns. The logic column uses
// technical field names that make a bare-mention scan unreliable, so there
// is no fallback here.
func parseLogicText(text string) []models.LoanType {
	if text == "" {
		return nil
	}
	for _, p := range logicTextPatterns {
		if p.re.MatchString(text) {
			return p.types
		}
	}
	return nil
}

// ParseConstraints extracts loan-type restrictions from both eligibility
// columns of a condition.
func ParseConstraints(ruleText, logicText string) []Constraint {
	var out []Constraint
	if types := parseRuleText(ruleText); len(types) > 0 {
		out = append(out, Constraint{Source: "rule", Text: ruleText, Types: types})
	}
	if types := parseLogicText(logicText); len(types) > 0 {
		out = append(out, Constraint{Source: "logic", Text: logicText, Types: types})
	}
	return out
}

// SupportedTypes unions the constraints parsed from a condition's rule and
// logic text. A condition with no parseable constraint is unconstrained:
// absence of a restriction means "applies to every loan type".
func SupportedTypes(ruleText, logicText string) models.LoanTypeSet {
	constraints := ParseConstraints(ruleText, logicText)
	if len(constraints) == 0 {
		return models.Unconstrained()
	}
	set := models.ConstrainedTo(constraints[0].Types...)
	for _, c := range constraints[1:] {
		set = set.Union(models.ConstrainedTo(c.Types...))
	}
	return set
}
