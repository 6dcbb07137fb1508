package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Tijndh/Mallow/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps the domain error taxonomy onto HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, domain.ErrInvalidWebhook):
		httpStatus = http.StatusBadRequest
		code = "invalid_webhook"
	case errors.Is(err, domain.ErrInvalidState):
		httpStatus = http.StatusBadRequest
		code = "invalid_state"
	case errors.Is(err, domain.ErrInvalidArgument):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, domain.ErrUpstream):
		httpStatus = http.StatusBadGateway
		code = "upstream_error"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		log.Printf("[%s] %s %s: %v", getRequestID(r.Context()), r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

// decodeJSON reads a JSON body into v. It reports false after writing a 400
// when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeBody(r, v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
