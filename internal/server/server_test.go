// internal/server/server_test.go
package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"loan-conditions-engine/internal/catalog"
	"loan-conditions-engine/internal/common/config"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

const serverTestCSV = `Condition Code,Stage,Rules,Class,Type,Number,Name,Description,Editable,Dynamic Description,Borrower Description,Document Provider,Responsibility,Category,Borrower Scope,Dynamic Data,Data For Logic,Logic To Apply,Byte Filter
APP100,PTD,Citizenship = anything other than US Citizen,Standard,APP,100,Citizenship Documentation,Provide proof of residency status,Yes,,,Borrower,Processor,Application,Primary,,,,
APP102,PTD,Conventional loans with LTV greater than 80%,Standard,APP,102,Mortgage Insurance,Mortgage insurance required at <ReqMIPercent>,Yes,,,Lender,Underwriter,Application,All,<ReqMIPercent>,,,
CLSNG827,PTF,All VA IRRRL loans,Standard,CLSNG,827,NTB Worksheet,Provide net tangible benefit worksheet,No,,,Lender,Closer,Closing,All,,,"$RefiTypeVA == ""IRRR""",
TITLE901,PTF,Preliminary title report required on every loan,Standard,TITLE,901,Preliminary Title,Provide preliminary title report,No,,,Title Company,Closer,Title,All,,,,
`

const serverTestMISMO = `<?xml version="1.0" encoding="UTF-8"?>
<LOAN_APPLICATION>
  <LOAN LoanIdentifier="LN-9001" LoanPurposeType="Purchase" LoanAmount="400000"
        MortgageType="Conv" LienPriorityType="1" LoanToValuePercent="85"/>
  <BORROWER CitizenshipType="US Citizen" MaritalStatusType="Single" SelfEmployedIndicator="false"/>
  <FINANCIAL EarnestMoneyDepositAmount="10000" PITIAmount="2450"/>
</LOAN_APPLICATION>`

func newTestServer(t *testing.T) (*Server, *catalog.Store) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "conditions.csv")
	require.NoError(t, os.WriteFile(path, []byte(serverTestCSV), 0o644))

	log := logger.NewTestLogger(t)
	store := catalog.NewStore(catalog.NewLoader(path, log), log)

	cfg := &config.Config{}
	cfg.App.Name = "loan-conditions-engine"
	cfg.App.Version = "test"
	cfg.Server.MaxUploadBytes = 1 << 20

	return New(cfg, log, store, Options{}), store
}

func loadedTestServer(t *testing.T) *Server {
	t.Helper()
	srv, store := newTestServer(t)
	require.NoError(t, store.Load())
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestHealth_BeforeCatalogLoad(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvaluate_RawXMLBody(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans/evaluate", bytes.NewBufferString(serverTestMISMO))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, "LN-9001", result.LoanID)
	assert.Equal(t, 2, result.TotalConditions)

	assert.Equal(t, []string{"APP102"}, conditionCodes(result.Conditions.PTD))
	assert.Equal(t, []string{"TITLE901"}, conditionCodes(result.Conditions.PTF))
}

func TestEvaluate_MultipartUpload(t *testing.T) {
	srv := loadedTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("loanFile", "loan.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(serverTestMISMO))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/loans/evaluate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "LN-9001", result.LoanID)
}

func TestEvaluate_MalformedXML(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans/evaluate", bytes.NewBufferString("<LOAN_APPLICATION"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FACTS_PARSE_FAILED", body.Code)
}

func TestEvaluate_CatalogNotLoaded(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans/evaluate", bytes.NewBufferString(serverTestMISMO))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvaluateFacts(t *testing.T) {
	srv := loadedTestServer(t)

	payload := `{"loanId":"LN-9002","mortgageType":"VA","loanPurpose":"Refinance","vaRefiType":"IRRRL","lienPosition":1,"ltv":90}`
	rec := doRequest(t, srv, http.MethodPost, "/api/loans/evaluate-facts", bytes.NewBufferString(payload))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "LN-9002", result.LoanID)
	assert.Contains(t, conditionCodes(result.Conditions.PTF), "CLSNG827")
}

func TestEvaluateFacts_ValidationFailure(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans/evaluate-facts", bytes.NewBufferString(`{"mortgageType":12}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FACTS_VALIDATION_FAILED", body.Code)
}

func TestConditionDetails(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions/APP102", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cond models.Condition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cond))
	assert.Equal(t, "Mortgage Insurance", cond.Name)
}

func TestConditionDetails_NotFound(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions/NOPE999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConditionSearch(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions/search?q=title", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int                `json:"count"`
		Results []models.Condition `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "TITLE901", body.Results[0].Code)
}

func TestConditionSearch_MissingQuery(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConditionStats(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Catalog catalog.Stats `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Catalog.Total)
	assert.Equal(t, 2, body.Catalog.ByStage["PTD"])
}

func TestConditionList(t *testing.T) {
	srv := loadedTestServer(t)

	var body struct {
		Count      int                `json:"count"`
		Conditions []models.Condition `json:"conditions"`
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Count)

	rec = doRequest(t, srv, http.MethodGet, "/api/conditions?stage=PTF", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rec = doRequest(t, srv, http.MethodGet, "/api/conditions?loanType=VA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	codes := make([]string, 0, body.Count)
	for _, c := range body.Conditions {
		codes = append(codes, c.Code)
	}
	assert.NotContains(t, codes, "APP102")
	assert.Contains(t, codes, "CLSNG827")
}

func TestConditionList_InvalidStage(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/conditions?stage=NOPE", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentAudit_NotConfigured(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/audit/recent", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestReload(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/conditions/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reloaded bool `json:"reloaded"`
		Total    int  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Reloaded)
	assert.Equal(t, 4, body.Total)
}

func TestExportFormats(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/loans/export/formats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "xlsx")
}

func TestExport_CSV(t *testing.T) {
	srv := loadedTestServer(t)

	result := &models.EvaluationResult{
		LoanID:         "LN-9003",
		EvaluationDate: "2026-03-15T10:00:00Z",
		Conditions: models.StageBuckets{
			PTD: []models.ApplicableCondition{
				{Code: "APP102", ClassTag: "Standard", Category: "Application"},
			},
		},
		TotalConditions: 1,
	}
	payload, err := json.Marshal(map[string]interface{}{"format": "csv", "result": result})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans/export", bytes.NewBuffer(payload))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "LN-9003")
	assert.True(t, strings.Contains(rec.Body.String(), "APP102"))
}

func TestExport_XLSXBodyIsComplete(t *testing.T) {
	srv := loadedTestServer(t)

	result := &models.EvaluationResult{
		LoanID:         "LN-9004",
		EvaluationDate: "2026-03-15T10:00:00Z",
		Conditions: models.StageBuckets{
			PTD: []models.ApplicableCondition{
				{Code: "APP102", ClassTag: "Standard", Category: "Application"},
			},
		},
		TotalConditions: 1,
	}
	payload, err := json.Marshal(map[string]interface{}{"format": "xlsx", "result": result})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/loans/export", bytes.NewBuffer(payload))
	require.Equal(t, http.StatusOK, rec.Code)

	// The response must be a whole workbook, not a partial stream.
	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Conditions")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "APP102", rows[1][1])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	srv := loadedTestServer(t)

	payload := `{"format":"pdf","result":{"evaluationDate":"2026-03-15T10:00:00Z","conditions":{},"totalConditions":0}}`
	rec := doRequest(t, srv, http.MethodPost, "/api/loans/export", bytes.NewBufferString(payload))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoanAudit_NotConfigured(t *testing.T) {
	srv := loadedTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/loans/LN-9001/audit", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func conditionCodes(conds []models.ApplicableCondition) []string {
	var codes []string
	for _, c := range conds {
		codes = append(codes, c.Code)
	}
	return codes
}
