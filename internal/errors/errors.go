// Package errors provides standardized error codes for the host application.
//
// Error codes follow the format {domain}.{error} where:
//   - domain: The subsystem that generated the error (auth, server, route, storage)
//   - error: The specific error type within that domain
//
// These codes are stable and can be used by clients and log consumers for
// programmatic error handling. Human-readable messages are provided
// alongside codes.
package errors

import (
	"errors"
	"fmt"
)

// Error codes by domain.
const (
	// Auth domain - credential validation and session admission
	CodeAuthInvalidSecret = "auth.invalid_secret" // Presented secret does not match this run's secret
	CodeAuthInvalidToken  = "auth.invalid_token"  // Reconnection token not present in the table
	CodeAuthMalformed     = "auth.malformed"      // Auth frame was not a usable text payload
	CodeAuthTimeout       = "auth.timeout"        // No auth frame arrived within the window
	CodeAuthBusy          = "auth.busy"           // Another client already holds the connection slot

	// Server domain - WebSocket and network errors
	CodeServerUpgradeFailed  = "server.upgrade_failed"  // WebSocket upgrade failed
	CodeServerSendFailed     = "server.send_failed"     // Failed to send a frame
	CodeServerConnectionLost = "server.connection_lost" // Connection unexpectedly closed

	// Route domain - application message dispatch
	CodeRouteRepoNotFound = "route.repo_not_found" // Requested repository path not in the catalog
	CodeRouteRateLimited  = "route.rate_limited"   // Too many prompt messages per second
	CodeRoutePromptFailed = "route.prompt_failed"  // Prompt runner returned an error

	// Storage domain - registry and audit persistence
	CodeStorageOpenFailed  = "storage.open_failed"  // Database open failed
	CodeStorageQueryFailed = "storage.query_failed" // Database query failed
	CodeStorageSaveFailed  = "storage.save_failed"  // Failed to save data

	// General domain - catch-all errors
	CodeUnknown = "error.unknown" // Unknown error
)

// CodedError wraps an error with a stable error code.
// This allows errors to carry both a code for programmatic handling
// and a message for human consumption.
type CodedError struct {
	Code    string // Stable error code (e.g., "auth.invalid_token")
	Message string // Human-readable error message
	Cause   error  // Underlying error (may be nil)
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a new CodedError with the given code and message.
func New(code, message string) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new CodedError wrapping an existing error.
func Wrap(code, message string, cause error) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// GetCode extracts the error code from an error.
// If the error is a CodedError, returns its code.
// Falls back to CodeUnknown for unrecognized errors.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}

	return CodeUnknown
}

// GetMessage extracts a human-readable message from an error.
// If the error is a CodedError, returns its message.
// Otherwise, returns the error's Error() string.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}
