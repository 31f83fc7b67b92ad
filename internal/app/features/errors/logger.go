// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs error responses with structured logging so handlers
// don't repeat the log-then-respond dance.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs an internal failure with request context and
// responds with the generic internal error body.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	e.log.Error(op,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	Internal(w)
}

// LogBadRequest logs a malformed request at info level and responds
// with the caller-facing message.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, op string, err error, message string) {
	e.log.Info(op,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	BadRequest(w, message)
}
