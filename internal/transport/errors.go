package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a transport failure.
type ErrorCode string

// Error codes emitted by the transport client.
const (
	CodeNetwork  ErrorCode = "network"  // connection-level failure, no response
	CodeTimeout  ErrorCode = "timeout"  // per-request timeout elapsed
	CodeCanceled ErrorCode = "canceled" // caller canceled the request
	CodeHTTP     ErrorCode = "http"     // backend answered with an error status
	CodeOffline  ErrorCode = "offline"  // rejected locally, no network attempted
	CodeUnknown  ErrorCode = "unknown"
)

// Error is the failure type produced by the transport client. Status is
// only set for CodeHTTP. Op is filled in by callers that wrap the client
// behind a named operation.
type Error struct {
	Code    ErrorCode `json:"code"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
	Op      string    `json:"op,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Status > 0:
		return fmt.Sprintf("%s: [%d] %s", e.Op, e.Status, e.Message)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	case e.Status > 0:
		return fmt.Sprintf("[%d] %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Retryable reports whether the failure is worth another attempt.
// Network failures, timeouts, 408, 429 and all 5xx statuses qualify.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeNetwork, CodeTimeout:
		return true
	case CodeHTTP:
		if e.Status == http.StatusRequestTimeout || e.Status == http.StatusTooManyRequests {
			return true
		}
		return e.Status >= 500
	default:
		return false
	}
}

// IsNotFound checks if the error is a 404 Not Found error.
func (e *Error) IsNotFound() bool {
	return e.Code == CodeHTTP && e.Status == http.StatusNotFound
}

// IsServerError checks if the error is a 5xx server error.
func (e *Error) IsServerError() bool {
	return e.Code == CodeHTTP && e.Status >= 500 && e.Status < 600
}

// IsCanceled reports whether err is a transport cancellation.
func IsCanceled(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == CodeCanceled
}

// IsOffline reports whether err is a local offline rejection.
func IsOffline(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == CodeOffline
}

// OfflineError returns the rejection used when an operation is attempted
// without connectivity.
func OfflineError(op string) *Error {
	return &Error{Code: CodeOffline, Op: op, Message: "cannot operate while offline"}
}

// AsError extracts a *Error from err, classifying unrecognized errors as
// CodeUnknown so callers always get the full taxonomy.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Code: CodeCanceled, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: err.Error()}
	}
	return &Error{Code: CodeUnknown, Message: err.Error()}
}

// parseErrorBody builds an Error from an HTTP error response, preferring
// the backend's error envelope when the body carries one.
func parseErrorBody(status int, body []byte) *Error {
	apiErr := &Error{
		Code:    CodeHTTP,
		Status:  status,
		Message: http.StatusText(status),
	}
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	} else if len(body) > 0 {
		apiErr.Message = string(body)
	}
	return apiErr
}
