// Package httputil writes the storefront API's JSON envelopes:
// {"data": ...} on success and {"error": {...}} on failure.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
	"github.com/prbretas/JEWELRY/pkg/logger"
	"github.com/prbretas/JEWELRY/pkg/validator"
)

// Response is the JSON envelope of every API response.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope. RequestID echoes the
// X-Correlation-ID of the request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON encodes v with the given status. Encoding errors are dropped:
// the header is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorCode writes an error envelope carrying the request's
// correlation id.
func WriteErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, Response{Error: &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// sentinelCodes maps bare sentinel errors to envelope codes. An empty message
// means the error text itself is shown.
var sentinelCodes = []struct {
	err     error
	code    string
	message string
}{
	{apperrors.ErrNotFound, "NOT_FOUND", "resource not found"},
	{apperrors.ErrConflict, "CONFLICT", "resource conflict"},
	{apperrors.ErrInvalidInput, "INVALID_INPUT", ""},
	{apperrors.ErrUnprocessable, "UNPROCESSABLE", ""},
	{apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE", "service temporarily unavailable"},
}

// WriteError maps err to an envelope. An *AppError keeps its own code and
// status; sentinels get a generic code; anything else is a 500 whose detail
// stays in the log. Server errors are logged with the request-scoped logger
// when RequestLogger installed one, else with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status, code, message = appErr.Status, appErr.Code, appErr.Message
	} else {
		for _, s := range sentinelCodes {
			if errors.Is(err, s.err) {
				status, code, message = apperrors.HTTPStatus(s.err), s.code, s.message
				if message == "" {
					message = err.Error()
				}
				break
			}
		}
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteErrorCode(w, r, status, code, message)
}

// WriteValidationError writes a 400. A *validator.ValidationError lists the
// offending fields under VALIDATION_ERROR; any other error, such as a
// malformed body, is INVALID_INPUT.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}})
		return
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
		Code:    "INVALID_INPUT",
		Message: err.Error(),
	}})
}

// ParseID parses a positive integer path parameter. On failure it writes a
// 400 INVALID_PARAMETER and returns false.
func ParseID(w http.ResponseWriter, param string) (int, bool) {
	id, err := strconv.Atoi(param)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid id: " + param,
		}})
		return 0, false
	}
	return id, true
}
