// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler normalizes errors and writes them as JSON API responses.
type Handler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Respond normalizes err to a StandardError, logs it and writes the mapped
// HTTP status with a JSON body.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"method":    r.Method,
		"path":      r.URL.Path,
		"errorCode": string(stdErr.Code),
		"status":    status,
		"retryable": stdErr.Retryable,
	}
	if stdErr.Details != "" {
		fields["details"] = stdErr.Details
	}
	if status >= 500 {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   stdErr.Message,
		Code:    string(stdErr.Code),
		Details: publicDetails(stdErr),
	})
}

// normalizeError ensures we always have a StandardError.
func (h *Handler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      CodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// publicDetails hides internals for 5xx responses; client errors keep their
// details so the UI can surface them.
func publicDetails(e *StandardError) string {
	if HTTPStatus(e.Code) >= 500 {
		return ""
	}
	return e.Details
}
