// internal/mismo/parser_test.go
package mismo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-conditions-engine/internal/common/logger"
)

const sampleMISMO = `<?xml version="1.0" encoding="UTF-8"?>
<LOAN_APPLICATION>
  <LOAN LoanIdentifier="LN-2001" LoanPurposeType="Purchase" LoanAmount="400000"
        MortgageType="Conv" LienPriorityType="1" LoanToValuePercent="85" ProductCode="C30"/>
  <PROPERTY NewConstructionIndicator="false" PropertyType="SingleFamily">
    <ADDRESS StateCode="Texas"/>
  </PROPERTY>
  <BORROWER CitizenshipType="US Citizen" MaritalStatusType="Married" SelfEmployedIndicator="false">
    <DECLARATION BankruptcyIndicator="false"/>
  </BORROWER>
  <FINANCIAL EarnestMoneyDepositAmount="10000" CashFromToBorrowerAmount="-250" PITIAmount="2450"/>
  <ASSETS>
    <ASSET AssetType="CheckingAccount" AssetCashOrMarketValueAmount="15000" BorrowerID="B1"/>
    <ASSET AssetType="SavingsAccount" AssetCashOrMarketValueAmount="42000" BorrowerID="B1"/>
    <ASSET AssetType="Automobile" AssetCashOrMarketValueAmount="30000" BorrowerID="B1"/>
  </ASSETS>
  <INCOME>
    <ITEM IncomeType="Base" IncomeAmount="8500" IncomeSource="Employer Inc" BorrowerID="B1"/>
    <ITEM IncomeType="Alimony" IncomeAmount="1200" IncomeSource="Court Order" BorrowerID="B1"/>
  </INCOME>
  <REO>
    <PROPERTY LinkedToMortgageIndicator="true" PaidOffAtClosingIndicator="false" MarkedForSaleIndicator="true">
      <ADDRESS StreetAddress="12 Oak St" CityName="Austin" StateCode="TX"/>
    </PROPERTY>
  </REO>
  <UNDERWRITING AUSResult="Approved" UnderwritingMethod="AUS" VARefiType=""/>
</LOAN_APPLICATION>`

func TestParseLoanFile(t *testing.T) {
	p := NewParser(logger.NewTestLogger(t))

	facts, err := p.ParseLoanFile([]byte(sampleMISMO))
	require.NoError(t, err)

	assert.Equal(t, "LN-2001", facts.LoanID)
	assert.Equal(t, "Purchase", facts.LoanPurpose)
	assert.Equal(t, float64(400000), facts.LoanAmount)
	assert.Equal(t, "Conv", facts.MortgageType)
	assert.Equal(t, 1, facts.LienPosition)
	assert.Equal(t, float64(85), facts.LTV)
	assert.Equal(t, "Texas", facts.PropertyState)
	assert.False(t, facts.NewConstruction)

	assert.Equal(t, "US Citizen", facts.Citizenship)
	assert.Equal(t, "Married", facts.MarriageStatus)
	assert.False(t, facts.SelfEmployed)
	assert.False(t, facts.Bankruptcy)

	assert.Equal(t, float64(10000), facts.EarnestMoneyDeposit)
	assert.Equal(t, float64(-250), facts.CashToBorrower)
	assert.Equal(t, float64(2450), facts.MonthlyPITI)

	// Only deposit accounts count as bank assets.
	require.Len(t, facts.BankAssets, 2)
	assert.Equal(t, "CheckingAccount", facts.BankAssets[0].Type)
	assert.True(t, facts.HasBankAssets)

	require.Len(t, facts.Income, 2)
	assert.Equal(t, float64(9700), facts.TotalIncome())
	assert.True(t, facts.HasAlimonyIncome)
	assert.False(t, facts.HasChildSupportIncome)

	require.Len(t, facts.REO, 1)
	assert.Equal(t, "12 Oak St Austin TX", facts.REO[0].Address)
	assert.True(t, facts.REO[0].LinkedToMortgage)
	assert.False(t, facts.REO[0].PaidOffAtClosing)
	assert.True(t, facts.REO[0].MarkedForSale)

	assert.Equal(t, "Approved", facts.AUSResult)
	assert.Equal(t, "AUS", facts.UnderwritingMethod)
}

func TestParseLoanFile_MalformedXML(t *testing.T) {
	p := NewParser(logger.NewTestLogger(t))

	_, err := p.ParseLoanFile([]byte("<LOAN><unclosed"))
	require.Error(t, err)
}

func TestParseLoanFile_MinimalDocument(t *testing.T) {
	p := NewParser(logger.NewTestLogger(t))

	facts, err := p.ParseLoanFile([]byte(`<LOAN MortgageType="VA" LoanPurposeType="Refinance"/>`))
	require.NoError(t, err)

	assert.Equal(t, "VA", facts.MortgageType)
	assert.Equal(t, "Refinance", facts.LoanPurpose)
	assert.Zero(t, facts.LoanAmount)
	assert.Empty(t, facts.BankAssets)
	assert.False(t, facts.HasBankAssets)
}

func TestGetBoolCoercions(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"Yes", true},
		{"1", true},
		{"false", false},
		{"No", false},
		{"0", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m := map[string]interface{}{"-Flag": tt.raw}
			assert.Equal(t, tt.want, getBool(m, "Flag"))
		})
	}
}
