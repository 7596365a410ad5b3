// Package jsonutil writes JSON API responses with consistent error shapes.
//
// Error bodies are {"error": code} with an optional "detail", or
// {"error": "validation failed", "issues": [...]} for rejected documents.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrBodyTooLarge is returned by DecodeLimited when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes {"error": code}.
func Error(w http.ResponseWriter, status int, code string) {
	JSON(w, status, map[string]string{"error": code})
}

// ErrorDetail writes {"error": code, "detail": detail}.
func ErrorDetail(w http.ResponseWriter, status int, code, detail string) {
	if detail == "" {
		Error(w, status, code)
		return
	}
	JSON(w, status, map[string]string{"error": code, "detail": detail})
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, code string) {
	Error(w, http.StatusBadRequest, code)
}

// Unauthorized writes a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, code string) {
	Error(w, http.StatusUnauthorized, code)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, code string) {
	Error(w, http.StatusNotFound, code)
}

// Conflict writes a 409 Conflict error response.
func Conflict(w http.ResponseWriter, code string) {
	Error(w, http.StatusConflict, code)
}

// InternalError writes a 500 Internal Server Error response.
// Log the actual error separately; do not expose it here.
func InternalError(w http.ResponseWriter, code string) {
	Error(w, http.StatusInternalServerError, code)
}

// ValidationIssues writes a 400 response listing every issue found.
func ValidationIssues(w http.ResponseWriter, issues any) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"issues": issues,
	})
}

// Decode reads and decodes JSON from the request body into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// DecodeLimited is Decode with a cap on the body size. Bodies over max
// bytes return ErrBodyTooLarge.
func DecodeLimited(r *http.Request, v any, max int64) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, max+1))
	if err != nil {
		return err
	}
	if int64(len(body)) > max {
		return ErrBodyTooLarge
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
