// Package errors provides the standardized error taxonomy shared by the
// ingestion pipeline, the sync client and the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"

	ErrCodeSyncWriteFailed   ErrorCode = "SYNC_WRITE_FAILED"
	ErrCodeSyncReadFailed    ErrorCode = "SYNC_READ_FAILED"
	ErrCodeSyncNotConfigured ErrorCode = "SYNC_NOT_CONFIGURED"

	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeRecordNotFound    ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"

	ErrCodeNothingToExport ErrorCode = "NOTHING_TO_EXPORT"
	ErrCodeStorageFailed   ErrorCode = "STORAGE_FAILED"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    map[string]string      `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code onto a response status.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeRecordNotFound, ErrCodeNothingToExport:
		return http.StatusNotFound
	case ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeInvalidCredentials, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeExtractionFailed, ErrCodeSyncWriteFailed, ErrCodeSyncReadFailed:
		return http.StatusBadGateway
	case ErrCodeSyncNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// ExtractionFailedMessage is the only text a user sees for any extraction failure.
const ExtractionFailedMessage = "Failed to process form. Please check the image quality and try again."

// NewExtractionFailedError wraps any transport, response or schema problem of
// the extraction service. It is recorded on the record, never retried.
func NewExtractionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   ExtractionFailedMessage,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSyncWriteFailedError reports a push that could not be dispatched.
func NewSyncWriteFailedError(recordID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSyncWriteFailed,
		Message:   "Sync to spreadsheet failed",
		Details:   fmt.Sprintf("recordId: %s", recordID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSyncNotConfiguredError reports a push attempted without a web-hook URL.
func NewSyncNotConfiguredError(recordID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSyncNotConfigured,
		Message:   "Spreadsheet sync is not configured",
		Details:   fmt.Sprintf("recordId: %s", recordID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSyncReadFailedError reports a failed pull of the remote table.
func NewSyncReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSyncReadFailed,
		Message:   "Could not load spreadsheet data",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError carries one message per offending field.
func NewValidationError(fieldErrors map[string]string) *StandardError {
	parts := make([]string, 0, len(fieldErrors))
	for f, msg := range fieldErrors {
		parts = append(parts, f+": "+msg)
	}
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Details:   strings.Join(parts, "; "),
		Retryable: false,
		Fields:    fieldErrors,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "Record not found",
		Details:   fmt.Sprintf("recordId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError rejects a state change the lifecycle forbids.
func NewInvalidTransitionError(id, from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Operation not allowed in the record's current state",
		Details:   fmt.Sprintf("recordId: %s, from: %s, to: %s", id, from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCredentialsError is deliberately generic.
func NewInvalidCredentialsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCredentials,
		Message:   "Invalid ID or Password",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError is returned for missing or expired sessions.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Login required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError is returned when the session role does not unlock a surface.
func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Not available for this role",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNothingToExportError is returned when no completed record exists.
func NewNothingToExportError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNothingToExport,
		Message:   "nothing to export",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageFailedError wraps a key-value store failure.
func NewStorageFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Local storage error",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard unwraps err into a StandardError if one is in its chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "EXTRACTION"):
		return "EXTRACTION"
	case strings.Contains(codeStr, "SYNC"):
		return "SYNC"
	case strings.Contains(codeStr, "CREDENTIALS") || codeStr == string(ErrCodeUnauthorized) || codeStr == string(ErrCodeForbidden):
		return "ACCESS"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
