// Package web contains small helpers for building the bot's HTTP surface:
// sentinel status errors, JSON responses and a server with graceful
// shutdown and health endpoints.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// StatusErr is a sentinel error type used to represent HTTP status code errors.
type StatusErr int

// Error implements the error interface.
// It returns a lowercase representation of the HTTP status text for the wrapped code.
func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

const (
	// ErrBadRequest represents a bad request error (HTTP 400).
	ErrBadRequest StatusErr = http.StatusBadRequest
	// ErrNotFound represents a not found error (HTTP 404).
	ErrNotFound StatusErr = http.StatusNotFound
	// ErrMethodNotAllowed represents a method not allowed error (HTTP 405).
	ErrMethodNotAllowed StatusErr = http.StatusMethodNotAllowed
	// ErrInternalServerError represents an internal server error (HTTP 500).
	ErrInternalServerError StatusErr = http.StatusInternalServerError
	// ErrServiceUnavailable represents a temporary, retryable failure (HTTP 503).
	ErrServiceUnavailable StatusErr = http.StatusServiceUnavailable
)

// errorResponse is a struct used to represent an error response in JSON format.
type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RespondJSON marshals the provided response object as JSON and writes it to
// the http.ResponseWriter.
func RespondJSON(w http.ResponseWriter, response any) { respondJSON(w, response, false) }

func respondJSON(w http.ResponseWriter, response any, wroteStatus bool) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		if !wroteStatus {
			w.WriteHeader(http.StatusInternalServerError)
		}
		fmt.Fprintf(w, `{"status":"error","error":%q}`, "JSON marshal error: "+err.Error())
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

// RespondJSONError writes an error response in JSON format to w.
//
// If the error is a StatusErr or wraps it, the HTTP status code is taken from
// it; otherwise the response status is 500 and the error is logged.
//
// Wrap any error with fmt.Errorf to set a specific status code:
//
//	web.RespondJSONError(log, w, fmt.Errorf("session %w", web.ErrNotFound))
func RespondJSONError(l zerolog.Logger, w http.ResponseWriter, err error) {
	var se StatusErr
	if !errors.As(err, &se) {
		se = ErrInternalServerError
	}
	w.WriteHeader(int(se))
	if se == ErrInternalServerError {
		l.Error().Err(err).Int("status", int(se)).Msg("internal server error")
	}
	respondJSON(w, &errorResponse{Status: "error", Error: err.Error()}, true)
}

// OK writes the canonical {"status":"ok"} success body.
func OK(w http.ResponseWriter) {
	RespondJSON(w, map[string]string{"status": "ok"})
}
