package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Description }

// NewAPIError builds an APIError.
func NewAPIError(status int, code, description string) *APIError {
	return &APIError{Status: status, Code: code, Description: description}
}

// WriteError writes e as JSON using its status.
func WriteError(w http.ResponseWriter, e *APIError) {
	WriteJSON(w, e.Status, e)
}

// SetRetryAfter sets Retry-After in whole seconds, never less than one.
func SetRetryAfter(w http.ResponseWriter, d time.Duration) {
	secs := int((d + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
}

var (
	ErrBadRequest   = NewAPIError(http.StatusBadRequest, "invalid_request", "The request is malformed.")
	ErrUnauthorized = NewAPIError(http.StatusUnauthorized, "unauthorized", "Authentication required.")
	ErrForbidden    = NewAPIError(http.StatusForbidden, "forbidden", "Insufficient authentication level.")
	ErrCSRF         = NewAPIError(http.StatusForbidden, "invalid_csrf_token", "Invalid CSRF token.")
	ErrRateLimited  = NewAPIError(http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
	ErrInternal     = NewAPIError(http.StatusInternalServerError, "server_error", "An internal error occurred.")
)
