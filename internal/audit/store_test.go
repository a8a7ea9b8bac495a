// internal/audit/store_test.go
package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

func testResult() *models.EvaluationResult {
	return &models.EvaluationResult{
		LoanID:         "LN-4001",
		EvaluationDate: "2026-03-15T10:00:00Z",
		Conditions: models.StageBuckets{
			PTD: []models.ApplicableCondition{{Code: "APP102"}},
		},
		TotalConditions: 1,
	}
}

func TestRecordEvaluation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO evaluation_audit").
		WithArgs(sqlmock.AnyArg(), "LN-4001", "Conv", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db, logger.NewTestLogger(t))
	id, err := store.RecordEvaluation(context.Background(), testResult(), &models.LoanFacts{MortgageType: "Conv"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEvaluation_WriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO evaluation_audit").
		WillReturnError(assert.AnError)

	store := NewStore(db, logger.NewTestLogger(t))
	_, err = store.RecordEvaluation(context.Background(), testResult(), &models.LoanFacts{MortgageType: "Conv"})
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeAuditWriteFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestRecentEvaluations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "loan_id", "mortgage_type", "total_conditions", "result", "created_at"}).
		AddRow("a1", "LN-4001", "Conv", 3, "{}", now).
		AddRow("a2", "LN-4002", "VA", 5, "{}", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, loan_id, mortgage_type, total_conditions, result, created_at").
		WithArgs(10).
		WillReturnRows(rows)

	store := NewStore(db, logger.NewTestLogger(t))
	records, err := store.RecentEvaluations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "LN-4001", records[0].LoanID)
	assert.Equal(t, 5, records[1].TotalConditions)
}

func TestEvaluationsByLoan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "loan_id", "mortgage_type", "total_conditions", "result", "created_at"}).
		AddRow("a1", "LN-4001", "Conv", 3, "{}", time.Now().UTC())

	mock.ExpectQuery("SELECT id, loan_id, mortgage_type, total_conditions, result, created_at").
		WithArgs("LN-4001").
		WillReturnRows(rows)

	store := NewStore(db, logger.NewTestLogger(t))
	records, err := store.EvaluationsByLoan(context.Background(), "LN-4001")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].ID)
}
