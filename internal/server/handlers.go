// internal/server/handlers.go
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/metrics"
	"loan-conditions-engine/internal/engine/loantype"
	"loan-conditions-engine/internal/export"
	"loan-conditions-engine/internal/facts"
	"loan-conditions-engine/internal/models"
	"loan-conditions-engine/internal/resultcache"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !s.store.Loaded() {
		status = "catalog not loaded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleEvaluate accepts a MISMO XML loan document, either as the multipart
// field "loanFile" or as the raw request body.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	document, err := s.readLoanDocument(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(document) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no loan document provided"})
		return
	}

	cacheKey := resultcache.Key(document)
	if s.cache != nil {
		if cached := s.cache.Get(r.Context(), cacheKey); cached != nil {
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	loanFacts, err := s.parser.ParseLoanFile(document)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	s.evaluateAndRespond(w, r, loanFacts, cacheKey)
}

// handleEvaluateFacts accepts pre-extracted loan facts as JSON, bypassing
// the MISMO parser.
func (s *Server) handleEvaluateFacts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(s.cfg.Server.MaxUploadBytes)))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	loanFacts, err := facts.Parse(body)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	s.evaluateAndRespond(w, r, loanFacts, "")
}

func (s *Server) evaluateAndRespond(w http.ResponseWriter, r *http.Request, loanFacts *models.LoanFacts, cacheKey string) {
	conditions, err := s.store.Conditions()
	if err != nil {
		writeError(w, err)
		return
	}

	result := s.engine.Evaluate(conditions, loanFacts)

	if s.cache != nil && cacheKey != "" {
		s.cache.Set(r.Context(), cacheKey, result)
	}
	if s.audit != nil {
		if _, err := s.audit.RecordEvaluation(r.Context(), result, loanFacts); err != nil {
			s.logger.Warn("audit write failed, continuing", map[string]interface{}{
				"loan_id": result.LoanID,
			})
		}
	}
	if s.notifier != nil {
		if recipients := splitRecipients(r.URL.Query().Get("notify")); len(recipients) > 0 {
			if err := s.notifier.SendEvaluationReport(r.Context(), recipients, result); err != nil {
				s.logger.Warn("report notification failed, continuing", map[string]interface{}{
					"loan_id":    result.LoanID,
					"recipients": len(recipients),
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, result)
}

type exportRequest struct {
	Format string                   `json:"format"`
	Result *models.EvaluationResult `json:"result"`
}

// handleExport re-renders a previously returned evaluation result in
// another format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid export request body"})
		return
	}
	if req.Result == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "export request must include a result"})
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, err)
		return
	}

	// Render into memory first so a failure can still produce a clean
	// error response instead of a truncated body with a committed 200.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, req.Result); err != nil {
		s.logger.Error("export failed", map[string]interface{}{
			"format": string(format),
			"error":  err.Error(),
		})
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatJSON && format != export.FormatHTML {
		filename := fmt.Sprintf("conditions-%s.%s", req.Result.LoanID, format)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats": []string{
			string(export.FormatJSON),
			string(export.FormatCSV),
			string(export.FormatHTML),
			string(export.FormatXLSX),
		},
	})
}

func (s *Server) handleLoanAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "audit store not configured"})
		return
	}
	records, err := s.audit.EvaluationsByLoan(r.Context(), r.PathValue("loanId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loanId":  r.PathValue("loanId"),
		"records": records,
	})
}

func (s *Server) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "audit store not configured"})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := s.audit.RecentEvaluations(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// handleConditionList returns the active catalog, optionally narrowed by
// stage or loan type.
func (s *Server) handleConditionList(w http.ResponseWriter, r *http.Request) {
	var (
		conditions []*models.Condition
		err        error
	)
	switch {
	case r.URL.Query().Get("stage") != "":
		stage := models.Stage(r.URL.Query().Get("stage"))
		if !stage.Valid() {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown stage %q", stage)})
			return
		}
		conditions, err = s.store.ByStage(stage)
	case r.URL.Query().Get("loanType") != "":
		lt, _ := loantype.Normalize(r.URL.Query().Get("loanType"))
		conditions, err = s.store.ByLoanType(lt)
	default:
		conditions, err = s.store.Conditions()
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(conditions),
		"conditions": conditions,
	})
}

func (s *Server) handleConditionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	payload := map[string]interface{}{"catalog": stats}
	if s.cache != nil {
		if cached, err := s.cache.Stats(r.Context()); err == nil {
			payload["cachedResults"] = cached
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleConditionSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query parameter 'q' is required"})
		return
	}
	results, err := s.store.Search(term)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   term,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleConditionDetails(w http.ResponseWriter, r *http.Request) {
	cond, err := s.store.Lookup(r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cond)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Load(); err != nil {
		writeError(w, err)
		return
	}
	if s.cache != nil {
		s.cache.InvalidateAll(r.Context())
	}
	if s.indexer != nil {
		if conditions, err := s.store.Conditions(); err == nil {
			s.indexer.IndexCatalog(r.Context(), conditions)
		}
	}

	stats, err := s.store.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"total":    stats.Total,
		"byStage":  stats.ByStage,
	})
}

func splitRecipients(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// readLoanDocument pulls the MISMO payload from a multipart upload or the
// raw body, capped at the configured upload size.
func (s *Server) readLoanDocument(r *http.Request) ([]byte, error) {
	limit := int64(s.cfg.Server.MaxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(limit); err != nil {
			return nil, apperrors.NewFactsParseFailedError(err)
		}
		file, _, err := r.FormFile("loanFile")
		if err != nil {
			return nil, apperrors.NewFactsParseFailedError(err)
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, limit))
	}

	return io.ReadAll(io.LimitReader(r.Body, limit))
}
