// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// Logger is the subset of logger.Logger needed here.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler renders StandardErrors as HTTP responses.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorBody is the single-message response shape.
type errorBody struct {
	Error string `json:"error"`
}

// validationBody is the field-list response shape used for 400s.
type validationBody struct {
	Errors []FieldError `json:"errors"`
}

// Handle writes err to w and logs server-side failures.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError && h.logger != nil {
		fields := map[string]interface{}{
			"code":      stdErr.Code,
			"category":  GetErrorCategory(stdErr.Code),
			"details":   stdErr.Details,
			"retryable": stdErr.Retryable,
		}
		if r != nil {
			fields["method"] = r.Method
			fields["path"] = r.URL.Path
		}
		h.logger.Error("Request failed", fields)
	}

	WriteError(w, stdErr)
}

// WriteError writes the client-facing JSON body for err.
// Internal details never leave the process: 5xx bodies are always "Server error".
func WriteError(w http.ResponseWriter, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	switch {
	case len(stdErr.Fields) > 0 && status == http.StatusBadRequest:
		WriteJSON(w, status, validationBody{Errors: stdErr.Fields})
	case status >= http.StatusInternalServerError:
		WriteJSON(w, status, errorBody{Error: "Server error"})
	default:
		WriteJSON(w, status, errorBody{Error: stdErr.Message})
	}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
