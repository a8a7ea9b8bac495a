// internal/engine/loantype/parser_test.go
package loantype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-conditions-engine/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw   string
		want  models.LoanType
		known bool
	}{
		{"Conv", models.LoanTypeConventional, true},
		{"CONVENTIONAL", models.LoanTypeConventional, true},
		{"fha", models.LoanTypeFHA, true},
		{"VA", models.LoanTypeVA, true},
		{"RHS", models.LoanTypeUSDA, true},
		{"usda", models.LoanTypeUSDA, true},
		{"Non-QM", models.LoanTypeNonQM, true},
		{"  va  ", models.LoanTypeVA, true},
		{"", models.LoanTypeConventional, false},
		{"Jumbo", models.LoanTypeConventional, false},
	}
	for _, tt := range tests {
		got, known := Normalize(tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		assert.Equal(t, tt.known, known, "raw=%q", tt.raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, lt := range models.AllLoanTypes {
		got, known := Normalize(string(lt))
		assert.True(t, known)
		assert.Equal(t, lt, got)
	}
}

func TestParseRuleText_ExclusivePatterns(t *testing.T) {
	tests := []struct {
		text string
		want []models.LoanType
	}{
		{"VA Only - termite inspection", []models.LoanType{models.LoanTypeVA}},
		{"FHA Only", []models.LoanType{models.LoanTypeFHA}},
		{"Conventional Only with LTV > 80", []models.LoanType{models.LoanTypeConventional}},
		{
			"All Files Conventional & Govy",
			[]models.LoanType{models.LoanTypeConventional, models.LoanTypeFHA, models.LoanTypeVA, models.LoanTypeUSDA},
		},
		{
			"Conv -or- FHA -or- VA -or- RHS",
			[]models.LoanType{models.LoanTypeConventional, models.LoanTypeFHA, models.LoanTypeVA, models.LoanTypeUSDA},
		},
		{"FHA -or- VA manual underwrite", []models.LoanType{models.LoanTypeFHA, models.LoanTypeVA}},
		{
			"New Const in specific states USDA/VA/FHA",
			[]models.LoanType{models.LoanTypeUSDA, models.LoanTypeVA, models.LoanTypeFHA},
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRuleText(tt.text), "text=%q", tt.text)
	}
}

func TestParseRuleText_BareMentionFallback(t *testing.T) {
	got := parseRuleText("All VA IRRRL loans")
	assert.Equal(t, []models.LoanType{models.LoanTypeVA}, got)

	got = parseRuleText("FHA loans with self employed borrowers")
	assert.Equal(t, []models.LoanType{models.LoanTypeFHA}, got)

	// No loan type named at all.
	assert.Nil(t, parseRuleText("Earnest money deposit present"))
	assert.Nil(t, parseRuleText(""))
}

func TestParseLogicText(t *testing.T) {
	assert.Equal(t, []models.LoanType{models.LoanTypeVA}, parseLogicText("Mortgage Type = VA"))
	assert.Equal(t, []models.LoanType{models.LoanTypeFHA}, parseLogicText("Loan: FHA"))

	got := parseLogicText("Mortgage Type = Conv -or- Mortgage Type = FHA -or- Mortgage Type = VA -or- Mortgage Type = RHS")
	assert.Len(t, got, 4)

	// Technical identifiers must not trigger a bare-mention scan.
	assert.Nil(t, parseLogicText("$RefiTypeVA == \"IRRR\""))
	assert.Nil(t, parseLogicText(""))
}

func TestParseConstraints_KeepsProvenance(t *testing.T) {
	constraints := ParseConstraints("All VA IRRRL loans", "Mortgage Type = VA")
	require.Len(t, constraints, 2)
	assert.Equal(t, "rule", constraints[0].Source)
	assert.Equal(t, "All VA IRRRL loans", constraints[0].Text)
	assert.Equal(t, "logic", constraints[1].Source)
}

func TestSupportedTypes(t *testing.T) {
	set := SupportedTypes("VA Only", "")
	assert.True(t, set.Constrained)
	assert.True(t, set.Contains(models.LoanTypeVA))
	assert.False(t, set.Contains(models.LoanTypeFHA))

	// Rule and logic columns union.
	set = SupportedTypes("FHA Only", "Mortgage Type = VA")
	assert.True(t, set.Contains(models.LoanTypeFHA))
	assert.True(t, set.Contains(models.LoanTypeVA))
	assert.False(t, set.Contains(models.LoanTypeConventional))

	// Both columns naming the same type collapse to one entry.
	set = SupportedTypes("VA Only", "Mortgage Type = VA")
	assert.Equal(t, []models.LoanType{models.LoanTypeVA}, set.Types)
}

func TestSupportedTypes_UnconstrainedByDefault(t *testing.T) {
	set := SupportedTypes("Preliminary title report required on every loan", "")
	assert.False(t, set.Constrained)
	for _, lt := range models.AllLoanTypes {
		assert.True(t, set.Contains(lt), "unconstrained must admit %s", lt)
	}
}
