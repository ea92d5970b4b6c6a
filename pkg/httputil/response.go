package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/reelreviews/pkg/errors"
	"github.com/utafrali/reelreviews/pkg/logger"
	"github.com/utafrali/reelreviews/pkg/validator"
)

// MaxBodyBytes caps every decoded request body.
const MaxBodyBytes = 1 << 20

// Response is the JSON envelope returned by every endpoint.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a successful envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// DecodeJSON decodes a size-limited request body into dst. Unknown fields are
// rejected so that misspelled variables surface as invalid input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

// WriteError maps err onto the envelope. Typed application errors are written
// with their own code and status; anything else collapses to INTERNAL_ERROR
// and is logged with the request-scoped logger when one is available.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContextOr(r.Context(), fallback)
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	appErr := toAppError(err)
	status := appErr.Status
	body := &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("code", body.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{
			Code:      "VALIDATION_ERROR",
			Message:   "request validation failed",
			Fields:    valErr.Fields(),
			RequestID: requestID,
		},
	})
}

// toAppError returns the AppError carried by err. Bare sentinels get the
// generic code for their status; anything else becomes INTERNAL_ERROR.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch status := apperrors.HTTPStatus(err); status {
	case http.StatusNotFound:
		return apperrors.New("NOT_FOUND", "resource not found", status, err)
	case http.StatusConflict:
		return apperrors.New("ALREADY_EXISTS", "resource already exists", status, err)
	case http.StatusBadRequest:
		return apperrors.New("INVALID_INPUT", err.Error(), status, err)
	case http.StatusUnauthorized:
		return apperrors.New("UNAUTHENTICATED", "authentication required", status, err)
	case http.StatusForbidden:
		return apperrors.New("FORBIDDEN", "forbidden", status, err)
	case http.StatusBadGateway:
		return apperrors.New("UPSTREAM_UNAVAILABLE", "upstream is unavailable", status, err)
	default:
		return apperrors.Internal(err)
	}
}
