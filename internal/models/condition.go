// internal/models/condition.go
package models

// Stage is the loan lifecycle phase a condition must be cleared in.
type Stage string

const (
	StagePriorToDocs    Stage = "PTD"
	StagePriorToFunding Stage = "PTF"
	StagePostFunding    Stage = "POST"
)

// Stages lists the valid stages in result order.
var Stages = []Stage{StagePriorToDocs, StagePriorToFunding, StagePostFunding}

// Valid reports whether s is one of the three catalog stages.
func (s Stage) Valid() bool {
	switch s {
	case StagePriorToDocs, StagePriorToFunding, StagePostFunding:
		return true
	}
	return false
}

// LoanType is a normalized mortgage product type.
type LoanType string

const (
	LoanTypeConventional LoanType = "Conv"
	LoanTypeFHA          LoanType = "FHA"
	LoanTypeVA           LoanType = "VA"
	LoanTypeUSDA         LoanType = "USDA"
	LoanTypeNonQM        LoanType = "Non-QM"
)

// AllLoanTypes lists every loan type the engine knows about.
var AllLoanTypes = []LoanType{
	LoanTypeConventional,
	LoanTypeFHA,
	LoanTypeVA,
	LoanTypeUSDA,
	LoanTypeNonQM,
}

// LoanTypeSet records which loan types a condition supports. A condition
// whose rule text carries no parseable type constraint is unconstrained and
// applies to every loan type; absence of a constraint means "no restriction",
// not "excluded".
type LoanTypeSet struct {
	Constrained bool       `json:"constrained"`
	Types       []LoanType `json:"types,omitempty"`
}

// Unconstrained is the open-world default set.
func Unconstrained() LoanTypeSet {
	return LoanTypeSet{}
}

// ConstrainedTo builds a set restricted to the given types, dropping
// duplicates while keeping first-seen order.
func ConstrainedTo(types ...LoanType) LoanTypeSet {
	seen := make(map[LoanType]bool, len(types))
	out := make([]LoanType, 0, len(types))
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return LoanTypeSet{Constrained: true, Types: out}
}

// Contains reports whether the set admits the given loan type.
func (s LoanTypeSet) Contains(t LoanType) bool {
	if !s.Constrained {
		return true
	}
	for _, lt := range s.Types {
		if lt == t {
			return true
		}
	}
	return false
}

// Slice returns the concrete membership, expanding the unconstrained set to
// all five loan types.
func (s LoanTypeSet) Slice() []LoanType {
	if !s.Constrained {
		out := make([]LoanType, len(AllLoanTypes))
		copy(out, AllLoanTypes)
		return out
	}
	out := make([]LoanType, len(s.Types))
	copy(out, s.Types)
	return out
}

// Union merges two sets. Any unconstrained side makes the result
// unconstrained only when both sides are empty; a constrained side always
// contributes its members.
func (s LoanTypeSet) Union(other LoanTypeSet) LoanTypeSet {
	if !s.Constrained && !other.Constrained {
		return Unconstrained()
	}
	if !s.Constrained {
		return other
	}
	if !other.Constrained {
		return s
	}
	return ConstrainedTo(append(append([]LoanType{}, s.Types...), other.Types...)...)
}

// Condition is one closing-condition catalog record. Records are built once
// at catalog load time and never mutated afterward; a reload produces a
// fresh slice of records.
type Condition struct {
	Code                        string      `json:"code"`
	Stage                       Stage       `json:"stage"`
	RuleText                    string      `json:"ruleText"`
	ClassTag                    string      `json:"classTag"`
	Type                        string      `json:"type"`
	Number                      string      `json:"number"`
	Name                        string      `json:"name"`
	DescriptionTemplate         string      `json:"descriptionTemplate"`
	DynamicDescriptionTemplate  string      `json:"dynamicDescriptionTemplate,omitempty"`
	BorrowerDescriptionTemplate string      `json:"borrowerDescriptionTemplate,omitempty"`
	DocumentProvider            string      `json:"documentProvider"`
	Responsibility              string      `json:"responsibility,omitempty"`
	Category                    string      `json:"category"`
	BorrowerScope               string      `json:"borrowerScope,omitempty"`
	DynamicDataTokens           string      `json:"dynamicDataTokens,omitempty"`
	DataForLogic                string      `json:"dataForLogic,omitempty"`
	LogicText                   string      `json:"logicText,omitempty"`
	SupportedLoanTypes          LoanTypeSet `json:"supportedLoanTypes"`
}
