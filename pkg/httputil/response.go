// Package httputil provides shared HTTP helpers for consistent response writing.
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the envelope for every error response: {"error": "..."}.
type ErrorBody struct {
	Error string `json:"error"`
}

// InternalErrorMessage is the only text a client sees for unexpected failures.
const InternalErrorMessage = "Internal server error"

// WriteJSON writes data as JSON with the given status.
// A nil data writes the status with an empty body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		WriteEmpty(w, status)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, InternalErrorMessage)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteEmpty writes only the status line and headers.
func WriteEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// WriteError writes {"error": message} with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: message})
}

// WriteOK writes a 200 response.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes the generic 500 body. Callers log the cause.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, InternalErrorMessage)
}
