// internal/facts/validator.go

// Package facts validates caller-supplied loan fact documents before they
// reach the evaluation engine.
package facts

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/models"
)

// loanFactsSchema constrains the JSON shape of a LoanFacts document. Fields
// are individually optional, the engine treats absence as "unknown", but
// present fields must carry the right type and range.
const loanFactsSchema = `{
  "type": "object",
  "properties": {
    "loanId": {"type": "string"},
    "loanPurpose": {"type": "string"},
    "mortgageType": {"type": "string"},
    "lienPosition": {"type": "integer", "minimum": 0},
    "loanAmount": {"type": "number", "minimum": 0},
    "ltv": {"type": "number", "minimum": 0, "maximum": 200},
    "productCode": {"type": "string"},
    "propertyState": {"type": "string"},
    "newConstruction": {"type": "boolean"},
    "propertyType": {"type": "string"},
    "citizenship": {"type": "string"},
    "marriageStatus": {"type": "string"},
    "selfEmployed": {"type": "boolean"},
    "bankruptcy": {"type": "boolean"},
    "hasAlimonyIncome": {"type": "boolean"},
    "hasChildSupportIncome": {"type": "boolean"},
    "hasBankAssets": {"type": "boolean"},
    "earnestMoneyDeposit": {"type": "number", "minimum": 0},
    "cashToBorrower": {"type": "number"},
    "monthlyPiti": {"type": "number", "minimum": 0},
    "ausResult": {"type": "string"},
    "underwritingMethod": {"type": "string"},
    "creditRunIndicator": {"type": "boolean"},
    "vaRefiType": {"type": "string"},
    "bankAssets": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": {"type": "string"},
          "amount": {"type": "number", "minimum": 0},
          "borrowerId": {"type": "string"}
        }
      }
    },
    "income": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": {"type": "string"},
          "amount": {"type": "number", "minimum": 0},
          "source": {"type": "string"},
          "borrowerId": {"type": "string"},
          "ownershipShare": {"type": "number", "minimum": 0, "maximum": 100},
          "employedByFamily": {"type": "boolean"}
        }
      }
    },
    "reo": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "address": {"type": "string"},
          "linkedToMortgage": {"type": "boolean"},
          "paidOffAtClosing": {"type": "boolean"},
          "markedForSale": {"type": "boolean"}
        }
      }
    }
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(loanFactsSchema)

// Parse validates a raw facts document against the schema and unmarshals it.
func Parse(raw []byte) (*models.LoanFacts, error) {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, apperrors.NewFactsParseFailedError(err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, apperrors.NewFactsValidationFailedError(strings.Join(details, "; "))
	}

	var facts models.LoanFacts
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, apperrors.NewFactsParseFailedError(err)
	}
	return &facts, nil
}
