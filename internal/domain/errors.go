package domain

import (
	"errors"
	"fmt"
)

// Local precondition failures, raised before any network call is made.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrEmptyInstruction = errors.New("instruction is empty")
)

// ErrCaptureLost reports that the recorder stopped without a retrievable
// artifact. This is a hard failure, distinct from "no audio captured".
var ErrCaptureLost = errors.New("captured audio lost")

// ErrIncompleteContent reports a story whose title or body is empty for the
// requested language, even though the transport call succeeded.
var ErrIncompleteContent = errors.New("story content incomplete")

// APIError is a failure the server reported with a non-2xx status. Message
// carries the decoded detail field, or the HTTP reason phrase when the body
// had no decodable detail.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// NetworkError reports that a connection could not be established or was
// interrupted before a response arrived.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that the deadline elapsed with no response.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return "request timed out: " + e.Err.Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a success response whose body could not be
// decoded as the expected JSON shape.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a server 404. Callers treat this as a
// valid outcome, not a failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
