// internal/audit/store.go

// Package audit persists a record of every completed evaluation so results
// can be reviewed after the fact. Audit writes are best-effort from the
// caller's perspective: a failed write is reported but must never fail the
// evaluation that produced it.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

// Record is one persisted evaluation.
type Record struct {
	ID              string    `json:"id"`
	LoanID          string    `json:"loanId"`
	MortgageType    string    `json:"mortgageType"`
	TotalConditions int       `json:"totalConditions"`
	Result          string    `json:"result"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Store writes and reads evaluation audit records.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

const insertEvaluationSQL = `
INSERT INTO evaluation_audit (id, loan_id, mortgage_type, total_conditions, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// RecordEvaluation persists one evaluation result and returns the record ID.
func (s *Store) RecordEvaluation(ctx context.Context, result *models.EvaluationResult, facts *models.LoanFacts) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", apperrors.NewAuditWriteFailedError(err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, insertEvaluationSQL,
		id,
		result.LoanID,
		facts.MortgageType,
		result.TotalConditions,
		string(payload),
		time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("failed to write evaluation audit record", map[string]interface{}{
			"loan_id": result.LoanID,
			"error":   err.Error(),
		})
		return "", apperrors.NewAuditWriteFailedError(err)
	}

	s.logger.Debug("evaluation audit record written", map[string]interface{}{
		"audit_id": id,
		"loan_id":  result.LoanID,
	})
	return id, nil
}

const recentEvaluationsSQL = `
SELECT id, loan_id, mortgage_type, total_conditions, result, created_at
FROM evaluation_audit
ORDER BY created_at DESC
LIMIT $1`

// RecentEvaluations returns the newest audit records, most recent first.
func (s *Store) RecentEvaluations(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, recentEvaluationsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.LoanID, &r.MortgageType, &r.TotalConditions, &r.Result, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

const evaluationsByLoanSQL = `
SELECT id, loan_id, mortgage_type, total_conditions, result, created_at
FROM evaluation_audit
WHERE loan_id = $1
ORDER BY created_at DESC`

// EvaluationsByLoan returns every audit record for one loan.
func (s *Store) EvaluationsByLoan(ctx context.Context, loanID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, evaluationsByLoanSQL, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.LoanID, &r.MortgageType, &r.TotalConditions, &r.Result, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
