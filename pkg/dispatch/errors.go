package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/mockapi/pkg/httputil"
)

// Client-facing messages.
const (
	MsgItemNotFound     = "Item not found"
	MsgNoData           = "No data generated for this resource yet"
	MsgMethodNotAllowed = "Method not allowed"
	MsgBodyTooLarge     = "Request body too large"
)

// NotFoundError is returned when an item id is not in its resource collection.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q item %q not found", e.Resource, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// Message returns the client-facing error text.
func (e *NotFoundError) Message() string { return MsgItemNotFound }

// Hint returns a suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	return fmt.Sprintf("Use GET /%s to list the ids that exist.", e.Resource)
}

// NoDataError is returned when a resource is defined but no collection was
// ever stored for it.
type NoDataError struct {
	Resource string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("resource %q has no data", e.Resource)
}

// StatusCode returns the HTTP status code for this error.
func (e *NoDataError) StatusCode() int { return http.StatusNotFound }

// Message returns the client-facing error text.
func (e *NoDataError) Message() string { return MsgNoData }

// Hint returns a suggestion for resolving this error.
func (e *NoDataError) Hint() string {
	return fmt.Sprintf("Generate data with POST /__mockapi/resources/%s/generate or seed records in the catalog.", e.Resource)
}

// BodyError wraps a request body that could not be read or decoded where a
// body is required. Decode failures surface as internal errors.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return "request body: " + e.Err.Error()
}

func (e *BodyError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status code for this error.
func (e *BodyError) StatusCode() int {
	if e.tooLarge() {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing error text.
func (e *BodyError) Message() string {
	if e.tooLarge() {
		return MsgBodyTooLarge
	}
	return httputil.InternalErrorMessage
}

// Hint returns a suggestion for resolving this error.
func (e *BodyError) Hint() string {
	if e.tooLarge() {
		return "Reduce the request body size."
	}
	return "Send a JSON object as the request body."
}

func (e *BodyError) tooLarge() bool {
	var mbe *http.MaxBytesError
	return errors.As(e.Err, &mbe)
}

// statusError is implemented by every error type above.
type statusError interface {
	error
	StatusCode() int
	Message() string
	Hint() string
}
