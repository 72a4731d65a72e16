// internal/app/features/errors/errorlogger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs structured logging with the JSON error response so
// handlers do both in one call. The log message carries the detail; the
// user message stays generic.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

// LogServerError logs err at error level and answers 500 server_error.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Error(logMsg,
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Error(err))
	Write(w, http.StatusInternalServerError, KindServer, userMsg)
}

// LogBadRequest logs err at warn level and answers 400 validation_error.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Warn(logMsg,
		zap.String("path", r.URL.Path),
		zap.Error(err))
	Write(w, http.StatusBadRequest, KindValidation, userMsg)
}

// LogWriteFailed logs err at error level and answers 502 write_failed.
// Used when a toggle or profile write could not be persisted.
func (e *ErrorLogger) LogWriteFailed(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Error(logMsg,
		zap.String("path", r.URL.Path),
		zap.Error(err))
	Write(w, http.StatusBadGateway, KindWriteFailed, userMsg)
}

// LogUnavailable logs err at error level and answers 503
// profile_unavailable. Used when identity cannot be resolved from any
// tier.
func (e *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Error(logMsg,
		zap.String("path", r.URL.Path),
		zap.Error(err))
	Write(w, http.StatusServiceUnavailable, KindProfileUnavailable, userMsg)
}
