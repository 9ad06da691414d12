package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"scanmap-server/internal/shared/errors"
)

// Result is the envelope the scan surface always answers with. Both success
// and failure travel as HTTP 200; Type carries the outcome.
type Result struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Success sends a success-typed Result.
func Success(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Result{Message: message, Type: "success"})
}

// Failure logs an error and sends an error-typed Result with HTTP 200.
// This should be the only place where request errors are logged.
func Failure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logError(logger, r, err)
	writeJSON(w, http.StatusOK, Result{Message: errors.Message(err), Type: "error"})
}

// FailureWithMessage logs an error and sends an error-typed Result carrying a
// custom client message instead of the internal error text.
func FailureWithMessage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, clientMessage string) {
	logError(logger, r, err)
	writeJSON(w, http.StatusOK, Result{Message: clientMessage, Type: "error"})
}

// JSON sends an arbitrary JSON payload with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, data)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// If JSON encoding fails, there's not much we can do at this point
	// The status code has already been sent
	_ = json.NewEncoder(w).Encode(data)
}

// logError logs the error with appropriate level and request context
func logError(logger *slog.Logger, r *http.Request, err error) {
	errorType := errors.GetType(err)

	logCtx := logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"error_type", errorType,
	)

	switch errorType {
	case errors.ErrorTypeNotFound:
		// Not found errors are expected, log at debug level
		logCtx.Debug("Resource not found", "error", err)
	case errors.ErrorTypeValidation, errors.ErrorTypeMethodNotAllowed:
		// Client errors, log at debug level
		logCtx.Debug("Validation error", "error", err)
	case errors.ErrorTypeConflict:
		// Duplicate submissions are a normal business condition
		logCtx.Info("Conflict error", "error", err)
	case errors.ErrorTypeExternal:
		// Backing store errors should be investigated, log at error level
		logCtx.Error("External service error", "error", err)
	case errors.ErrorTypeInternal:
		fallthrough
	default:
		logCtx.Error("Internal server error", "error", err)
	}
}
