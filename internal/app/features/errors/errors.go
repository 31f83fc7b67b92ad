// internal/app/features/errors/errors.go

// Package errors defines the JSON error surface for the API. Every
// procedure failure falls into a small taxonomy: unauthenticated (401),
// forbidden (403), bad_request (400), internal (500). Handle
// availability is a boolean result, never an error.
package errors

import (
	"encoding/json"
	"net/http"
)

// Error codes surfaced to API clients.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeBadRequest      = "bad_request"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write sends a JSON error response with the given status, code, and
// human-readable message.
func Write(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// Unauthenticated rejects a request that carries no valid session.
func Unauthenticated(w http.ResponseWriter) {
	Write(w, http.StatusUnauthorized, CodeUnauthenticated, "sign in required")
}

// Forbidden rejects a signed-in request that lacks privilege.
func Forbidden(w http.ResponseWriter) {
	Write(w, http.StatusForbidden, CodeForbidden, "insufficient privilege")
}

// BadRequest rejects a request with a caller-facing reason.
func BadRequest(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, CodeBadRequest, message)
}

// Internal reports a server-side failure without leaking detail.
func Internal(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, CodeInternal, "a server error occurred")
}
