// internal/catalog/loader.go
package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/common/metrics"
	"loan-conditions-engine/internal/engine/loantype"
	"loan-conditions-engine/internal/models"
)

// Column positions in the conditions portal export.
const (
	colCode = iota
	colStage
	colRules
	colClass
	colType
	colNumber
	colName
	colDescription
	colEditableInByte
	colDynamicDescription
	colBorrowerDescription
	colDocumentProvider
	colResponsibility
	colCategory
	colBorrowerScope
	colDynamicData
	colDataForLogic
	colLogicToApply
	colByteFilter

	columnCount
)

// Loader reads the condition catalog from its CSV export. Each load parses
// the full file and derives the supported-loan-type set per condition, so
// the constraint text is never re-parsed during evaluation.
type Loader struct {
	path   string
	logger logger.Logger
}

func NewLoader(path string, log logger.Logger) *Loader {
	return &Loader{path: path, logger: log}
}

// Load reads and parses the whole catalog file.
func (l *Loader) Load() ([]*models.Condition, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(l.path, err)
	}
	defer f.Close()

	conditions, err := l.parse(f)
	if err != nil {
		return nil, err
	}

	l.logger.Info("condition catalog loaded", map[string]interface{}{
		"path":       l.path,
		"conditions": len(conditions),
	})
	for _, stage := range models.Stages {
		n := 0
		for _, c := range conditions {
			if c.Stage == stage {
				n++
			}
		}
		metrics.CatalogSize.WithLabelValues(string(stage)).Set(float64(n))
	}
	return conditions, nil
}

func (l *Loader) parse(r io.Reader) ([]*models.Condition, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var conditions []*models.Condition
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewCatalogParseFailedError(err.Error())
		}

		code := strings.TrimSpace(field(record, colCode))
		if code == "" || code == "Condition Code" {
			continue
		}

		cond := &models.Condition{
			Code:                        code,
			Stage:                       models.Stage(strings.TrimSpace(field(record, colStage))),
			RuleText:                    strings.TrimSpace(field(record, colRules)),
			ClassTag:                    strings.TrimSpace(field(record, colClass)),
			Type:                        strings.TrimSpace(field(record, colType)),
			Number:                      strings.TrimSpace(field(record, colNumber)),
			Name:                        strings.TrimSpace(field(record, colName)),
			DescriptionTemplate:         strings.TrimSpace(field(record, colDescription)),
			DynamicDescriptionTemplate:  strings.TrimSpace(field(record, colDynamicDescription)),
			BorrowerDescriptionTemplate: strings.TrimSpace(field(record, colBorrowerDescription)),
			DocumentProvider:            strings.TrimSpace(field(record, colDocumentProvider)),
			Responsibility:              strings.TrimSpace(field(record, colResponsibility)),
			Category:                    strings.TrimSpace(field(record, colCategory)),
			BorrowerScope:               strings.TrimSpace(field(record, colBorrowerScope)),
			DynamicDataTokens:           strings.TrimSpace(field(record, colDynamicData)),
			DataForLogic:                strings.TrimSpace(field(record, colDataForLogic)),
			LogicText:                   strings.TrimSpace(field(record, colLogicToApply)),
		}
		cond.SupportedLoanTypes = loantype.SupportedTypes(cond.RuleText, cond.LogicText)

		if !cond.Stage.Valid() {
			l.logger.Warn("condition has unrecognized stage", map[string]interface{}{
				"condition_code": cond.Code,
				"stage":          string(cond.Stage),
			})
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
