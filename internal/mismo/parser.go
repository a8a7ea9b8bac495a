// internal/mismo/parser.go

// Package mismo extracts normalized loan facts from MISMO-style XML loan
// documents. Real MISMO files vary widely in nesting and attribute
// placement, so extraction searches the document tree for known element and
// attribute names rather than assuming one fixed schema path.
package mismo

import (
	"strings"

	"github.com/clbanning/mxj/v2"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

// Parser turns raw MISMO XML into a LoanFacts record. Absent fields keep
// their zero value; the parser never invents defaults.
type Parser struct {
	logger logger.Logger
}

func NewParser(log logger.Logger) *Parser {
	return &Parser{logger: log}
}

// ParseLoanFile parses one loan document.
func (p *Parser) ParseLoanFile(xmlContent []byte) (*models.LoanFacts, error) {
	doc, err := mxj.NewMapXml(xmlContent)
	if err != nil {
		return nil, apperrors.NewFactsParseFailedError(err)
	}

	root := map[string]interface{}(doc)
	facts := &models.LoanFacts{}

	p.extractLoanInfo(root, facts)
	p.extractPropertyInfo(root, facts)
	p.extractBorrowerInfo(root, facts)
	p.extractFinancialInfo(root, facts)
	p.extractAssets(root, facts)
	p.extractIncome(root, facts)
	p.extractREO(root, facts)
	p.extractUnderwritingInfo(root, facts)

	facts.HasBankAssets = len(facts.BankAssets) > 0
	for _, inc := range facts.Income {
		lowerType := strings.ToLower(inc.Type)
		if strings.Contains(lowerType, "alimony") {
			facts.HasAlimonyIncome = true
		}
		if strings.Contains(lowerType, "child support") || strings.Contains(lowerType, "childsupport") {
			facts.HasChildSupportIncome = true
		}
	}

	return facts, nil
}

func (p *Parser) extractLoanInfo(root map[string]interface{}, facts *models.LoanFacts) {
	loan := findNode(root, "LOAN", "Loan")
	if loan == nil {
		return
	}
	facts.LoanID = getString(loan, "LoanIdentifier", "LoanRoleType")
	facts.LoanPurpose = getString(loan, "LoanPurposeType", "LoanPurpose")
	facts.LoanAmount = getFloat(loan, "LoanAmount", "LOAN_AMOUNT")
	facts.MortgageType = getString(loan, "MortgageType", "MORTGAGE_TYPE")
	facts.LienPosition = getInt(loan, "LienPriorityType", "LienPosition")
	facts.LTV = getFloat(loan, "LoanToValuePercent", "LTV", "LoanToValue")
	facts.ProductCode = getString(loan, "ProductCode")
}

func (p *Parser) extractPropertyInfo(root map[string]interface{}, facts *models.LoanFacts) {
	property := findNode(root, "PROPERTY", "Property", "COLLATERAL")
	if property == nil {
		return
	}
	if address := findNode(property, "ADDRESS", "Address"); address != nil {
		facts.PropertyState = getString(address, "StateCode", "State")
	}
	facts.NewConstruction = getBool(property, "NewConstructionIndicator", "NewConstruction")
	facts.PropertyType = getString(property, "PropertyType")
}

func (p *Parser) extractBorrowerInfo(root map[string]interface{}, facts *models.LoanFacts) {
	borrower := findNode(root, "BORROWER", "Borrower", "PARTIES")
	if borrower == nil {
		return
	}
	facts.Citizenship = getString(borrower, "CitizenshipType", "Citizenship")
	facts.MarriageStatus = getString(borrower, "MaritalStatusType", "MaritalStatus")
	facts.SelfEmployed = getBool(borrower, "SelfEmployedIndicator", "SelfEmployed")

	if declarations := findNode(borrower, "DECLARATION", "Declarations"); declarations != nil {
		facts.Bankruptcy = getBool(declarations, "BankruptcyIndicator", "Bankruptcy")
	}
}

func (p *Parser) extractFinancialInfo(root map[string]interface{}, facts *models.LoanFacts) {
	financial := findNode(root, "FINANCIAL", "Financial")
	if financial == nil {
		return
	}
	facts.EarnestMoneyDeposit = getFloat(financial, "EarnestMoneyDepositAmount", "EarnestMoney")
	facts.CashToBorrower = getFloat(financial, "CashFromToBorrowerAmount", "CashToBorrower")
	facts.MonthlyPITI = getFloat(financial, "PITIAmount", "PITI", "MonthlyPayment")
}

func (p *Parser) extractAssets(root map[string]interface{}, facts *models.LoanFacts) {
	container := findNode(root, "ASSETS", "Assets")
	if container == nil {
		return
	}
	for _, asset := range childNodes(container, "ASSET", "Asset") {
		assetType := getString(asset, "AssetType")
		if assetType != "CheckingAccount" && assetType != "SavingsAccount" {
			continue
		}
		facts.BankAssets = append(facts.BankAssets, models.BankAsset{
			Type:       assetType,
			Amount:     getFloat(asset, "AssetCashOrMarketValueAmount", "Amount"),
			BorrowerID: getString(asset, "BorrowerID"),
		})
	}
}

func (p *Parser) extractIncome(root map[string]interface{}, facts *models.LoanFacts) {
	container := findNode(root, "INCOME", "Income")
	if container == nil {
		return
	}
	for _, inc := range childNodes(container, "INCOME_ITEM", "IncomeItem", "ITEM", "Item") {
		incomeType := getString(inc, "IncomeType")
		if incomeType == "" {
			incomeType = "Unknown"
		}
		source := getString(inc, "IncomeSource", "Source")
		if source == "" {
			source = "Unknown"
		}
		facts.Income = append(facts.Income, models.IncomeSource{
			Type:             incomeType,
			Amount:           getFloat(inc, "IncomeAmount", "Amount"),
			Source:           source,
			BorrowerID:       getString(inc, "BorrowerID"),
			OwnershipShare:   getFloat(inc, "OwnershipSharePercent", "OwnershipShare"),
			EmployedByFamily: getBool(inc, "EmployedByFamilyIndicator", "EmployedByFamily"),
		})
	}
}

func (p *Parser) extractREO(root map[string]interface{}, facts *models.LoanFacts) {
	container := findNode(root, "REO", "RealEstateOwned", "REAL_ESTATE_OWNED")
	if container == nil {
		return
	}
	for _, property := range childNodes(container, "PROPERTY", "Property") {
		addressString := "Unknown Address"
		if address := findNode(property, "ADDRESS", "Address"); address != nil {
			parts := []string{
				getString(address, "StreetAddress", "Street"),
				getString(address, "CityName", "City"),
				getString(address, "StateCode", "State"),
			}
			var nonEmpty []string
			for _, part := range parts {
				if part != "" {
					nonEmpty = append(nonEmpty, part)
				}
			}
			if len(nonEmpty) > 0 {
				addressString = strings.Join(nonEmpty, " ")
			}
		}
		facts.REO = append(facts.REO, models.REOProperty{
			Address:          addressString,
			LinkedToMortgage: getBool(property, "LinkedToMortgageIndicator", "LinkedToMortgage"),
			PaidOffAtClosing: getBool(property, "PaidOffAtClosingIndicator", "PaidOffAtClosing"),
			MarkedForSale:    getBool(property, "MarkedForSaleIndicator", "MarkedForSale", "ToBeSold"),
		})
	}
}

func (p *Parser) extractUnderwritingInfo(root map[string]interface{}, facts *models.LoanFacts) {
	underwriting := findNode(root, "UNDERWRITING", "Underwriting", "AUS")
	if underwriting == nil {
		return
	}
	facts.AUSResult = getString(underwriting, "AUSResult", "AUSRecommendation", "Result")
	facts.UnderwritingMethod = getString(underwriting, "UnderwritingMethod", "Method")
	facts.VARefiType = getString(underwriting, "VARefiType")
	facts.CreditRunIndicator = getBool(underwriting, "CreditRunIndicator", "CreditRun")
}
