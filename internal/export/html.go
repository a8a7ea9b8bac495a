// internal/export/html.go
package export

import (
	"html/template"
	"io"

	"loan-conditions-engine/internal/models"
)

var htmlTemplate = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Closing Conditions - {{.Result.LoanID}}</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    h2 { border-bottom: 1px solid #ccc; padding-bottom: 0.25em; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 2em; }
    th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; vertical-align: top; }
    th { background: #f4f4f4; }
    .meta { color: #555; }
  </style>
</head>
<body>
  <h1>Closing Conditions</h1>
  <p class="meta">Loan {{.Result.LoanID}} &middot; evaluated {{.Result.EvaluationDate}} &middot; {{.Result.TotalConditions}} conditions</p>
  {{range .Stages}}
  <h2>{{.Name}} ({{len .Conditions}})</h2>
  {{if .Conditions}}
  <table>
    <tr><th>Code</th><th>Category</th><th>Description</th><th>Provider</th><th>Reason</th></tr>
    {{range .Conditions}}
    <tr>
      <td>{{.Code}}</td>
      <td>{{.Category}}</td>
      <td>{{.Description}}</td>
      <td>{{.DocumentProvider}}</td>
      <td>{{.ReasonApplied}}</td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p class="meta">No conditions.</p>
  {{end}}
  {{end}}
</body>
</html>
`))

type htmlStage struct {
	Name       string
	Conditions []models.ApplicableCondition
}

func writeHTML(w io.Writer, result *models.EvaluationResult) error {
	stages := make([]htmlStage, 0, len(models.Stages))
	for _, stage := range models.Stages {
		stages = append(stages, htmlStage{
			Name:       string(stage),
			Conditions: result.Conditions.Bucket(stage),
		})
	}
	return htmlTemplate.Execute(w, map[string]interface{}{
		"Result": result,
		"Stages": stages,
	})
}
