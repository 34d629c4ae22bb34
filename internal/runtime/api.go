package runtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/oratio-labs/oratio-core/internal/assess"
	"github.com/oratio-labs/oratio-core/internal/history"
	"github.com/oratio-labs/oratio-core/internal/protocol"
)

type apiError struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (r *Runtime) handleAssessments(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.handleAssess(w, req)
	case http.MethodGet:
		r.handleListAssessments(w, req)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

// handleAssess accepts a multipart submission and runs the pipeline
// synchronously. Fatal pipeline errors come back as 422 with the error
// taxonomy code; malformed requests are 400.
func (r *Runtime) handleAssess(w http.ResponseWriter, req *http.Request) {
	started := time.Now()

	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.HTTP.MaxUploadBytes)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "expected multipart form with a file field"})
		return
	}
	defer func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := req.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing file field"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read upload"})
		return
	}

	var windowSeconds float64
	if v := req.FormValue("window_seconds"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "window_seconds must be a positive number"})
			return
		}
		windowSeconds = parsed
	}

	result := r.assessor.Assess(req.Context(), assess.Request{
		Audio:         raw,
		Filename:      header.Filename,
		ReferenceText: req.FormValue("reference_text"),
		Language:      req.FormValue("language"),
		WindowSeconds: windowSeconds,
	})

	r.recordOutcome(req, header.Filename, result, time.Since(started))

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (r *Runtime) handleListAssessments(w http.ResponseWriter, req *http.Request) {
	limit := 50
	if v := req.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := r.store.ListRecent(req.Context(), limit)
	if err != nil {
		r.logger.Error("history list failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to list assessments"})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// recordOutcome updates metrics, appends history and announces the result
// on the bus. All of it is best-effort; the response to the caller is
// already decided.
func (r *Runtime) recordOutcome(req *http.Request, filename string, result assess.Result, elapsed time.Duration) {
	outcome := "success"
	if !result.Success {
		outcome = result.ErrorCode
	}
	if r.assessCounter != nil {
		r.assessCounter.Add(req.Context(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	if r.assessDuration != nil {
		r.assessDuration.Record(req.Context(), elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	}

	if err := r.store.Append(req.Context(), history.Record{
		ID:              result.ID,
		Filename:        filename,
		DurationSeconds: result.DurationSeconds,
		Transcript:      result.RecognizedText,
		Overall:         result.Scores.Overall,
		Accuracy:        result.Scores.Accuracy,
		Fluency:         result.Scores.Fluency,
		Completeness:    result.Scores.Completeness,
		Prosody:         result.Scores.Prosody,
		Band:            result.Intelligibility.ID,
		CEFR:            result.ScaleEquivalents.CEFR,
		Success:         result.Success,
		Error:           result.Error,
	}); err != nil {
		r.logger.Warn("history append failed",
			slog.String("id", result.ID),
			slog.String("error", err.Error()))
	}

	if err := r.busClient.PublishCompleted(protocol.AssessmentCompleted{
		ID:              result.ID,
		Filename:        filename,
		DurationSeconds: result.DurationSeconds,
		Overall:         result.Scores.Overall,
		Accuracy:        result.Scores.Accuracy,
		Fluency:         result.Scores.Fluency,
		Completeness:    result.Scores.Completeness,
		Prosody:         result.Scores.Prosody,
		Band:            result.Intelligibility.ID,
		CEFR:            result.ScaleEquivalents.CEFR,
		Success:         result.Success,
		Timestamp:       time.Now().UTC(),
	}); err != nil {
		r.logger.Warn("bus publish failed",
			slog.String("id", result.ID),
			slog.String("error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Debug("write response failed", slog.String("error", err.Error()))
	}
}
