package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request ID; the client receives
// the coded message from core.MapError.

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/dumpmerge/internal/core"
	"github.com/JonMunkholm/dumpmerge/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	errNoFile      = errors.New("no file provided")
	errRunNotFound = errors.New("run not found")
	errNoStore     = errors.New("output storage is not configured")
)

// respondError logs err and writes its user-facing form. A zero status is
// derived from err.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeError writes a plain error for failures that have no mapped code.
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
	)
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Message: err.Error(),
		Code:    "HTTP" + strconv.Itoa(status),
	})
}

// statusFor maps a run error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch core.MapError(err).Code {
	case "FILE003", "FILE005", "SRC001", "SRC002":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
