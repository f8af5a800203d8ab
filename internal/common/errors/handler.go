// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler turns arbitrary errors into StandardErrors and logs them once.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err and returns it with the HTTP status to answer with.
func (h *ErrorHandler) Handle(operation string, err error) (int, *StandardError) {
	stdErr := h.normalizeError(err)
	status := stdErr.HTTPStatus()
	h.logError(operation, status, stdErr)
	return status, stdErr
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(operation string, status int, stdErr *StandardError) {
	fields := map[string]interface{}{
		"operation":     operation,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	// client mistakes are not operator problems
	if status < 500 {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}
