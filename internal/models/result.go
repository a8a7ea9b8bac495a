// internal/models/result.go
package models

// ApplicableCondition is the evaluation output for one condition that was
// determined to apply to a specific loan.
type ApplicableCondition struct {
	Code                string            `json:"code"`
	ClassTag            string            `json:"classTag"`
	Description         string            `json:"description"`
	BorrowerDescription string            `json:"borrowerDescription,omitempty"`
	DocumentProvider    string            `json:"documentProvider"`
	Category            string            `json:"category"`
	DynamicFields       map[string]string `json:"dynamicFields,omitempty"`
	ReasonApplied       string            `json:"reasonApplied"`
}

// StageBuckets groups applicable conditions by catalog stage. Each bucket is
// sorted ascending by condition code.
type StageBuckets struct {
	PTD  []ApplicableCondition `json:"PTD"`
	PTF  []ApplicableCondition `json:"PTF"`
	POST []ApplicableCondition `json:"POST"`
}

// EvaluationResult is the full outcome of evaluating one loan against the
// loaded catalog.
type EvaluationResult struct {
	LoanID          string       `json:"loanId,omitempty"`
	EvaluationDate  string       `json:"evaluationDate"`
	Conditions      StageBuckets `json:"conditions"`
	TotalConditions int          `json:"totalConditions"`
}

// Bucket returns the stage bucket for the given stage, or nil for an
// unrecognized stage value.
func (b *StageBuckets) Bucket(stage Stage) []ApplicableCondition {
	switch stage {
	case StagePriorToDocs:
		return b.PTD
	case StagePriorToFunding:
		return b.PTF
	case StagePostFunding:
		return b.POST
	}
	return nil
}

// FilterResult is the outcome of narrowing the catalog by loan type before
// rule evaluation.
type FilterResult struct {
	Applicable []*Condition      `json:"applicable"`
	Filtered   []*Condition      `json:"filtered"`
	Reasons    map[string]string `json:"reasons"`
}
