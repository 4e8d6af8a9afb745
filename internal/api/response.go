// Package api serves the public HTTP interface on a chi router.
package api

import (
	"net/http"

	"excelytics/internal/errors"
	"excelytics/internal/logging"

	"github.com/goccy/go-json"
)

// APIResponse is the envelope of every response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &APIResponse{Success: true, Data: data})
}

// respondError maps err onto a status and a message that is safe to show.
// Server-side failures are logged with their cause.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "UNKNOWN" {
		code = errors.CodeInternalError
	}

	log := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("code", code).Str("path", r.URL.Path).Msg("request rejected")
	}

	respondJSON(w, status, &APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   errors.PublicMessage(err),
			RequestID: logging.RequestID(r.Context()),
		},
	})
}
