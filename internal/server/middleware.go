// internal/server/middleware.go
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "loan-conditions-engine/internal/common/errors"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("http request", map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps a StandardError code onto an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	stdErr, ok := err.(*apperrors.StandardError)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch stdErr.Code {
	case apperrors.ErrCodeFactsParseFailed, apperrors.ErrCodeFactsValidationFailed, apperrors.ErrCodeExportFailed:
		status = http.StatusBadRequest
	case apperrors.ErrCodeConditionNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeCatalogNotLoaded:
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, errorResponse{
		Error:   stdErr.Message,
		Code:    string(stdErr.Code),
		Details: stdErr.Details,
	})
}
