package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and the request ID, then
// returned to the client as an ErrorResponse built from ingest.MapError. The
// status code comes from statusFor unless the caller already knows it.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/loanledger/internal/core"
	"github.com/JonMunkholm/loanledger/internal/ingest"
	"github.com/JonMunkholm/loanledger/internal/logging"
	"github.com/JonMunkholm/loanledger/internal/session"
)

var (
	errMalformed   = errors.New("malformed request")
	errNoFile      = errors.New("no file provided")
	errRateLimited = errors.New("rate limit exceeded")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by the session.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrNoDocument):
		return http.StatusConflict
	case errors.As(err, &maxErr), errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errMalformed), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrParseFailure),
		errors.Is(err, ingest.ErrHeaderNotFound),
		errors.Is(err, ingest.ErrMissingRequiredColumns),
		errors.Is(err, core.ErrRecordHidden),
		errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrReadOnlyField),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidStatus):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := ingest.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
