package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rtsim/internal/sched"
	"rtsim/internal/store"
)

// ErrorCode is the machine-readable part of an API error.
type ErrorCode string

const (
	ErrValidation  ErrorCode = "VALIDATION_ERROR"
	ErrNotFound    ErrorCode = "NOT_FOUND"
	ErrUnavailable ErrorCode = "UNAVAILABLE"
	ErrInternal    ErrorCode = "INTERNAL_ERROR"
)

// APIError is the error object of the response envelope.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError points at the offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Response is the envelope around every JSON body.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
}

func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil)
}

func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil)
}

func respondError(w http.ResponseWriter, reqID string, status int, apiErr *APIError) {
	respondJSON(w, status, reqID, nil, apiErr)
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, apiErr *APIError) {
	resp := Response{
		Status:    "ok",
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Error:     apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// classify maps a domain error to an HTTP status and API error.
func classify(err error) (int, *APIError) {
	var verr *sched.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, &APIError{
			Code:    ErrValidation,
			Message: err.Error(),
			Details: []FieldError{{Field: verr.Field, Message: verr.Reason}},
		}
	case errors.Is(err, sched.ErrPolicyParam):
		return http.StatusBadRequest, &APIError{Code: ErrValidation, Message: err.Error()}
	case errors.Is(err, sched.ErrUnknownPreset), errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound, &APIError{Code: ErrNotFound, Message: err.Error()}
	case errors.Is(err, sched.ErrRunnerStopped):
		return http.StatusServiceUnavailable, &APIError{Code: ErrUnavailable, Message: err.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: ErrInternal, Message: err.Error()}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	respondError(w, RequestIDFromContext(r.Context()), status, apiErr)
}
