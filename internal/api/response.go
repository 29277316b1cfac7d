// internal/api/response.go
package api

import (
	"encoding/json"
	"net/http"

	"sponsorloop-workers/internal/common/errors"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type dataEnvelope struct {
	Data interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, dataEnvelope{Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": msg})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

// writeStandardError maps err's code to an HTTP status.
func writeStandardError(w http.ResponseWriter, err error) {
	stdErr := errors.AsStandardError(err)
	writeJSON(w, statusFor(stdErr.Code), errorEnvelope{Error: apiError{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	}})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidLimit, errors.ErrCodeInvalidFilterFormat,
		errors.ErrCodeInvalidRole, errors.ErrCodeInputValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeViewerResolutionFailed:
		return http.StatusUnauthorized
	case errors.ErrCodeProfileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeProfileStoreFailed, errors.ErrCodeEventPublishFailed, errors.ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
