package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/rs/zerolog"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

const errInvalidBody = "Invalid JSON body"

type errorResponse struct {
	Error          string `json:"error"`
	Status         string `json:"status"`
	TechnicalError string `json:"technical_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err onto a response. A departed client gets nothing.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *chat.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  validationErr.Error(),
			Status: statusError,
		})
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		zerolog.Ctx(r.Context()).Debug().Msg("client went away")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unable to handle chat request")
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, _ *http.Request, err error) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:          s.opts.Apology,
		Status:         statusError,
		TechnicalError: err.Error(),
	})
}
