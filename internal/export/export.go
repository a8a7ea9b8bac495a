// internal/export/export.go

// Package export renders an evaluation result into the document formats the
// closing team consumes: JSON for systems, CSV and XLSX for spreadsheets,
// HTML for review in the browser.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/models"
)

// Format identifies one supported export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a caller-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", apperrors.NewExportFailedError(s, fmt.Errorf("unsupported format"))
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Write renders the result in the given format.
func Write(w io.Writer, format Format, result *models.EvaluationResult) error {
	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(w, result)
	case FormatHTML:
		err = writeHTML(w, result)
	case FormatXLSX:
		err = writeXLSX(w, result)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(result)
	}
	if err != nil {
		return apperrors.NewExportFailedError(string(format), err)
	}
	return nil
}

var csvHeader = []string{
	"Stage", "Condition Code", "Class", "Category",
	"Description", "Borrower Description", "Document Provider", "Reason Applied",
}

func writeCSV(w io.Writer, result *models.EvaluationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, stage := range models.Stages {
		for _, c := range result.Conditions.Bucket(stage) {
			row := []string{
				string(stage), c.Code, c.ClassTag, c.Category,
				c.Description, c.BorrowerDescription, c.DocumentProvider, c.ReasonApplied,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, result *models.EvaluationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Conditions"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, stage := range models.Stages {
		for _, c := range result.Conditions.Bucket(stage) {
			values := []interface{}{
				string(stage), c.Code, c.ClassTag, c.Category,
				c.Description, c.BorrowerDescription, c.DocumentProvider, c.ReasonApplied,
			}
			for i, v := range values {
				cell, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}

	summary := fmt.Sprintf("Loan %s evaluated %s: %d conditions",
		result.LoanID, result.EvaluationDate, result.TotalConditions)
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row+1), summary); err != nil {
		return err
	}

	return f.Write(w)
}
