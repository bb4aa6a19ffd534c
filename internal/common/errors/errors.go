// Package errors provides standardized error handling for the demand-radar service.
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
	// Caller errors, surfaced to the API client.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"

	// Recovered locally; logged, never abort a batch.
	ErrCodeMissingData      ErrorCode = "MISSING_DATA"
	ErrCodeConnectorFailed  ErrorCode = "CONNECTOR_FAILURE"
	ErrCodeConnectorTimeout ErrorCode = "CONNECTOR_TIMEOUT"

	// Infrastructure errors.
	ErrCodeDatabaseFailed     ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheFailed        ErrorCode = "CACHE_ERROR"
	ErrCodeSearchFailed       ErrorCode = "SEARCH_ERROR"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_ERROR"
	ErrCodeExportFailed       ErrorCode = "EXPORT_ERROR"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidConfigurationError creates a non-retryable configuration error,
// raised for malformed weight configs (negative weights).
func NewInvalidConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidConfiguration,
		Message:   "Invalid scoring configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable lookup error for an unknown entity id.
func NewNotFoundError(entity string, id int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", entity),
		Details:   fmt.Sprintf("%s id: %d", entity, id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingDataError marks a dimension that had no signal data. Scoring
// recovers from it with a neutral or zero default; it never aborts a call.
func NewMissingDataError(dimension string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingData,
		Message:   "No signal data for dimension",
		Details:   fmt.Sprintf("dimension: %s", dimension),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConnectorFailedError creates a retryable connector error. Collection
// logs it and continues with the remaining sources.
func NewConnectorFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnectorFailed,
		Message:   "Connector fetch failed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewConnectorTimeoutError creates a retryable connector timeout error.
func NewConnectorTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnectorTimeout,
		Message:   "Connector fetch timed out",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a retryable database error.
func NewDatabaseError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseFailed,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheError creates a retryable cache error. Callers fall through to the
// backing source on cache failure.
func NewCacheError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Cache operation failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchError creates a retryable search backend error.
func NewSearchError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Search backend error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationError creates a retryable notification delivery error.
func NewNotificationError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportError creates a non-retryable report export error.
func NewExportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Report export failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// httpStatusMapping maps internal error codes to HTTP response statuses.
// Connector errors never map to a request failure: collection reports them
// inside a successful response body.
var httpStatusMapping = map[ErrorCode]int{
	ErrCodeInvalidConfiguration: http.StatusBadRequest,
	ErrCodeValidationFailed:     http.StatusBadRequest,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeMissingData:          http.StatusOK,
	ErrCodeConnectorFailed:      http.StatusOK,
	ErrCodeConnectorTimeout:     http.StatusOK,
	ErrCodeDatabaseFailed:       http.StatusInternalServerError,
	ErrCodeCacheFailed:          http.StatusInternalServerError,
	ErrCodeSearchFailed:         http.StatusBadGateway,
	ErrCodeNotificationFailed:   http.StatusInternalServerError,
	ErrCodeExportFailed:         http.StatusInternalServerError,
	ErrCodeInternal:             http.StatusInternalServerError,
}

// HTTPStatus returns the response status for an error. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		if status, ok := httpStatusMapping[stdErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError, converting plain errors
// to INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is an unknown-entity lookup failure.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeConnectorFailed,
		ErrCodeConnectorTimeout,
		ErrCodeDatabaseFailed,
		ErrCodeCacheFailed,
		ErrCodeSearchFailed,
		ErrCodeNotificationFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONNECTOR"):
		return "CONNECTOR"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.Contains(codeStr, "MISSING"):
		return "LOOKUP"
	default:
		return "OTHER"
	}
}
