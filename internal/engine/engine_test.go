// internal/engine/engine_test.go
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	return NewAt(logger.NewTestLogger(t), func() time.Time {
		return time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	})
}

func testCatalog() []*models.Condition {
	return []*models.Condition{
		{
			Code:                "APP102",
			Stage:               models.StagePriorToDocs,
			RuleText:            "Conventional loans with LTV greater than 80%",
			DescriptionTemplate: "Mortgage insurance required at <ReqMIPercent>",
			Category:            "Application",
			SupportedLoanTypes:  models.ConstrainedTo(models.LoanTypeConventional),
		},
		{
			Code:                "ASSET507",
			Stage:               models.StagePriorToDocs,
			RuleText:            "If EMD amount is > $0 on the purchase contract",
			DescriptionTemplate: "Provide proof of earnest money deposit of <Earnest Money Deposit>",
			Category:            "Assets",
			SupportedLoanTypes:  models.Unconstrained(),
		},
		{
			Code:                "CLSNG827",
			Stage:               models.StagePriorToFunding,
			RuleText:            "All VA IRRRL loans",
			DescriptionTemplate: "Provide net tangible benefit worksheet",
			Category:            "Closing",
			SupportedLoanTypes:  models.ConstrainedTo(models.LoanTypeVA),
		},
		{
			Code:                "TITLE901",
			Stage:               models.StagePriorToFunding,
			RuleText:            "Preliminary title report required",
			DescriptionTemplate: "Provide preliminary title report",
			Category:            "Title",
			SupportedLoanTypes:  models.Unconstrained(),
		},
	}
}

func TestEvaluate_ConventionalHighLTV(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{
		LoanID:              "LN-1001",
		MortgageType:        "Conv",
		LoanPurpose:         "Purchase",
		LienPosition:        1,
		LTV:                 85,
		EarnestMoneyDeposit: 10000,
	}

	result := e.Evaluate(testCatalog(), facts)

	require.Len(t, result.Conditions.PTD, 2)
	assert.Equal(t, "APP102", result.Conditions.PTD[0].Code)
	assert.Equal(t, "ASSET507", result.Conditions.PTD[1].Code)
	assert.Equal(t, "Mortgage insurance required at 0.25%", result.Conditions.PTD[0].Description)

	require.Len(t, result.Conditions.PTF, 1)
	assert.Equal(t, "TITLE901", result.Conditions.PTF[0].Code)

	assert.Equal(t, 3, result.TotalConditions)
	assert.Equal(t, "LN-1001", result.LoanID)
	assert.Equal(t, "2026-03-15T10:00:00Z", result.EvaluationDate)
}

func TestEvaluate_LowLTVDropsMICondition(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{
		LoanID:       "LN-1002",
		MortgageType: "Conv",
		LienPosition: 1,
		LTV:          75,
	}

	result := e.Evaluate(testCatalog(), facts)

	for _, c := range result.Conditions.PTD {
		assert.NotEqual(t, "APP102", c.Code)
	}
}

func TestEvaluate_VAIRRRL(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{
		LoanID:       "LN-1003",
		MortgageType: "VA",
		VARefiType:   "IRRRL",
		LienPosition: 1,
	}

	result := e.Evaluate(testCatalog(), facts)

	codes := make([]string, 0, len(result.Conditions.PTF))
	for _, c := range result.Conditions.PTF {
		codes = append(codes, c.Code)
	}
	assert.Contains(t, codes, "CLSNG827")
	// The conventional-only MI condition never reaches the evaluator.
	for _, c := range result.Conditions.PTD {
		assert.NotEqual(t, "APP102", c.Code)
	}
}

func TestEvaluate_PartitionInvariant(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{
		LoanID:              "LN-1004",
		MortgageType:        "Conv",
		LienPosition:        1,
		LTV:                 90,
		EarnestMoneyDeposit: 5000,
	}

	result := e.Evaluate(testCatalog(), facts)

	seen := make(map[string]int)
	for _, bucket := range [][]models.ApplicableCondition{
		result.Conditions.PTD, result.Conditions.PTF, result.Conditions.POST,
	} {
		for _, c := range bucket {
			seen[c.Code]++
		}
	}
	for code, n := range seen {
		assert.Equal(t, 1, n, "condition %s appears in more than one bucket", code)
	}
	assert.Equal(t, len(seen), result.TotalConditions)
}

func TestEvaluate_BucketsSortedByCode(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{
		LoanID:              "LN-1005",
		MortgageType:        "Conv",
		LienPosition:        1,
		LTV:                 90,
		EarnestMoneyDeposit: 5000,
	}

	result := e.Evaluate(testCatalog(), facts)

	for _, bucket := range [][]models.ApplicableCondition{
		result.Conditions.PTD, result.Conditions.PTF, result.Conditions.POST,
	} {
		for i := 1; i < len(bucket); i++ {
			assert.LessOrEqual(t, bucket[i-1].Code, bucket[i].Code)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{
		LoanID:              "LN-1006",
		MortgageType:        "Conv",
		LienPosition:        1,
		LTV:                 85,
		EarnestMoneyDeposit: 10000,
	}

	first := e.Evaluate(testCatalog(), facts)
	second := e.Evaluate(testCatalog(), facts)
	assert.Equal(t, first, second)
}

func TestFilterByLoanType_Standalone(t *testing.T) {
	e := newTestEngine(t)
	facts := &models.LoanFacts{LoanID: "LN-1007", MortgageType: "USDA"}

	fr := e.FilterByLoanType(testCatalog(), facts)

	filteredCodes := make([]string, 0, len(fr.Filtered))
	for _, c := range fr.Filtered {
		filteredCodes = append(filteredCodes, c.Code)
	}
	assert.ElementsMatch(t, []string{"APP102", "CLSNG827"}, filteredCodes)
	assert.Contains(t, fr.Reasons["APP102"], "not supported")
}
