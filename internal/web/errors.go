package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler receives an error from the registry
//  2. Calls respondError(w, r, err)
//  3. The status code is chosen from the error kind
//  4. Technical error + context is logged with request ID for correlation
//  5. The client gets core.MapError's user message as JSON

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/mimereg/internal/core"
	"github.com/JonMunkholm/mimereg/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code, Field) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error server-side and writes a JSON
// error with a user-friendly message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	var br *badRequestError
	if errors.As(err, &br) {
		userMsg = msgBadRequest
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	// Typed client errors carry safe detail; anything else stays server-side.
	if e, ok := core.AsError(err); ok && status < http.StatusInternalServerError {
		resp.Field = e.Field
		resp.Detail = e.Msg
	}
	if br != nil {
		resp.Detail = br.msg
	}
	writeJSON(w, r, status, resp)
}

// writeError writes a JSON error that did not come from the registry.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
	)
	writeJSON(w, r, status, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    code,
	})
}

var msgBadRequest = core.UserMessage{
	Message: "The request could not be read",
	Action:  "Check the request parameters and JSON body",
	Code:    "REQ002",
}

// errBadRequest marks malformed requests rejected before reaching the registry.
var errBadRequest = errors.New("bad request")

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return "bad request: " + e.msg }

func (e *badRequestError) Is(target error) bool { return target == errBadRequest }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}
