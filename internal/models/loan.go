// internal/models/loan.go
package models

// BankAsset is one depository asset reported on the application.
type BankAsset struct {
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	BorrowerID string  `json:"borrowerId,omitempty"`
}

// IncomeSource is one income line reported on the application.
type IncomeSource struct {
	Type             string  `json:"type"`
	Amount           float64 `json:"amount"`
	Source           string  `json:"source,omitempty"`
	BorrowerID       string  `json:"borrowerId,omitempty"`
	OwnershipShare   float64 `json:"ownershipShare,omitempty"`
	EmployedByFamily bool    `json:"employedByFamily,omitempty"`
}

// REOProperty is one real-estate-owned record.
type REOProperty struct {
	Address          string `json:"address"`
	LinkedToMortgage bool   `json:"linkedToMortgage,omitempty"`
	PaidOffAtClosing bool   `json:"paidOffAtClosing,omitempty"`
	MarkedForSale    bool   `json:"markedForSale,omitempty"`
}

// LoanFacts is the normalized fact set for one loan. Facts are produced once
// per evaluation request by the extractor and never mutated by the engine.
// A missing field keeps its zero value; rules that care about presence check
// it explicitly.
type LoanFacts struct {
	LoanID       string  `json:"loanId,omitempty"`
	LoanPurpose  string  `json:"loanPurpose,omitempty"`
	MortgageType string  `json:"mortgageType,omitempty"`
	LienPosition int     `json:"lienPosition,omitempty"`
	LoanAmount   float64 `json:"loanAmount,omitempty"`
	LTV          float64 `json:"ltv,omitempty"`
	ProductCode  string  `json:"productCode,omitempty"`

	PropertyState   string `json:"propertyState,omitempty"`
	NewConstruction bool   `json:"newConstruction,omitempty"`
	PropertyType    string `json:"propertyType,omitempty"`

	Citizenship           string `json:"citizenship,omitempty"`
	MarriageStatus        string `json:"marriageStatus,omitempty"`
	SelfEmployed          bool   `json:"selfEmployed,omitempty"`
	Bankruptcy            bool   `json:"bankruptcy,omitempty"`
	HasAlimonyIncome      bool   `json:"hasAlimonyIncome,omitempty"`
	HasChildSupportIncome bool   `json:"hasChildSupportIncome,omitempty"`
	HasBankAssets         bool   `json:"hasBankAssets,omitempty"`

	EarnestMoneyDeposit float64 `json:"earnestMoneyDeposit,omitempty"`
	CashToBorrower      float64 `json:"cashToBorrower,omitempty"`
	MonthlyPITI         float64 `json:"monthlyPiti,omitempty"`

	BankAssets []BankAsset    `json:"bankAssets,omitempty"`
	Income     []IncomeSource `json:"income,omitempty"`
	REO        []REOProperty  `json:"reo,omitempty"`

	AUSResult          string `json:"ausResult,omitempty"`
	UnderwritingMethod string `json:"underwritingMethod,omitempty"`
	CreditRunIndicator bool   `json:"creditRunIndicator,omitempty"`

	VARefiType string `json:"vaRefiType,omitempty"`
}

// TotalIncome sums every reported income line.
func (f *LoanFacts) TotalIncome() float64 {
	var total float64
	for _, inc := range f.Income {
		total += inc.Amount
	}
	return total
}

// FirstREOAddress returns the address of the first REO record, or "".
func (f *LoanFacts) FirstREOAddress() string {
	if len(f.REO) == 0 {
		return ""
	}
	return f.REO[0].Address
}
