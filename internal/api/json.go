package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/adr/internal/apperr"
	"github.com/starford/adr/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string `json:"error"`
	Record string `json:"record,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrMissingTitle), errors.Is(err, apperr.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnknownRecord):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateRecord),
		errors.Is(err, apperr.ErrAlreadyInitialized),
		errors.Is(err, apperr.ErrUninitializedStore):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Kinds from apperr keep their
// message; anything else is logged and hidden.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	body := errorBody(err.Error())

	var partial *engine.PartialError
	if errors.As(err, &partial) {
		body.Record = partial.Record.Filename
	}
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		if partial == nil {
			body.Error = "internal error"
		}
	}
	writeJSON(w, status, body)
}
