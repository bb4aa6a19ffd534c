// internal/common/errors/handler.go
package errors

// ErrorHandler normalizes and logs errors with consistent fields.
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

// Handle normalizes err to a StandardError and logs it. Transient failure
// classes log at warning level, terminal ones at error level. The
// normalized error is returned so callers can surface it.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	stdErr := AsStandardError(err)
	if IsRetryableErrorCode(stdErr.Code) {
		h.logger.Warn("operation failed", h.fields(operation, stdErr))
	} else {
		h.logger.Error("operation failed", h.fields(operation, stdErr))
	}
	return stdErr
}

// HandleRecovered logs an error that was recovered locally (connector
// fallback, neutral default) at warning level and returns the normalized
// form for reporting.
func (h *ErrorHandler) HandleRecovered(operation string, err error) *StandardError {
	stdErr := AsStandardError(err)
	h.logger.Warn("operation degraded", h.fields(operation, stdErr))
	return stdErr
}

func (h *ErrorHandler) fields(operation string, stdErr *StandardError) map[string]interface{} {
	fields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	return fields
}
