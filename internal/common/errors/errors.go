// Package errors provides standardized error handling for the condition engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Catalog errors: fatal to load/reload, never partial.
	ErrCodeCatalogLoadFailed  ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCatalogParseFailed ErrorCode = "CATALOG_PARSE_FAILED"
	ErrCodeCatalogNotLoaded   ErrorCode = "CATALOG_NOT_LOADED"
	ErrCodeConditionNotFound  ErrorCode = "CONDITION_NOT_FOUND"

	// Fact errors: caller-supplied input that cannot be used.
	ErrCodeFactsParseFailed      ErrorCode = "FACTS_PARSE_FAILED"
	ErrCodeFactsValidationFailed ErrorCode = "FACTS_VALIDATION_FAILED"

	// Soft catalog-quality signals, surfaced as warnings only.
	ErrCodeRuleClassificationGap ErrorCode = "RULE_CLASSIFICATION_GAP"
	ErrCodeUnknownLoanType       ErrorCode = "UNKNOWN_LOAN_TYPE"

	// Collaborator failures.
	ErrCodeAuditWriteFailed   ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeSearchIndexFailed  ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeExportFailed       ErrorCode = "EXPORT_FAILED"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewCatalogLoadFailedError creates a retryable catalog source error.
func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Condition catalog could not be read",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogParseFailedError creates a non-retryable malformed-catalog error.
func NewCatalogParseFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogParseFailed,
		Message:   "Condition catalog is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogNotLoadedError creates a retryable error for evaluation before load.
func NewCatalogNotLoadedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogNotLoaded,
		Message:   "Condition catalog has not been loaded",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConditionNotFoundError creates a non-retryable lookup error.
func NewConditionNotFoundError(code string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConditionNotFound,
		Message:   "Condition not found in catalog",
		Details:   fmt.Sprintf("conditionCode: %s", code),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFactsParseFailedError creates a non-retryable loan-document error.
func NewFactsParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFactsParseFailed,
		Message:   "Loan document could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFactsValidationFailedError creates a non-retryable facts error.
func NewFactsValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFactsValidationFailed,
		Message:   "Loan facts failed structural validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError creates a retryable audit store error.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Evaluation audit record could not be written",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates a non-retryable export error.
func NewExportFailedError(format string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Result export failed",
		Details:   fmt.Sprintf("format: %s, error: %s", format, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError creates a retryable notification error.
func NewNotificationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Report notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable checks if an error is a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "CONDITION"):
		return "CATALOG"
	case strings.Contains(codeStr, "FACTS"):
		return "FACTS"
	case strings.Contains(codeStr, "RULE") || strings.Contains(codeStr, "LOAN_TYPE"):
		return "CLASSIFICATION"
	case strings.Contains(codeStr, "AUDIT") || strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "SEARCH"):
		return "STORAGE"
	case strings.Contains(codeStr, "EXPORT") || strings.Contains(codeStr, "NOTIFICATION"):
		return "DELIVERY"
	default:
		return "OTHER"
	}
}
