package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/j0lvera/neuranest/internal/chat"
)

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.RawTurn `json:"history"`
	Stream  bool           `json:"stream"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Status    string `json:"status"`
	Model     string `json:"model"`
	Timestamp string `json:"timestamp"`
}

type legacyResponse struct {
	Reply string `json:"reply"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// decode reads the request body. An empty body decodes to a zero request,
// which the resolver then rejects as having no message. The body must hold
// exactly one JSON value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(&req)
	if err == nil {
		var extra json.RawMessage
		if trailing := dec.Decode(&extra); !errors.Is(trailing, io.EOF) {
			err = errors.New("unexpected data after JSON body")
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  errInvalidBody,
			Status: statusError,
		})
		return chatRequest{}, false
	}

	return req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	if req.Stream {
		s.streamReply(w, r, req)
		return
	}

	reply, err := s.responder.Resolve(r.Context(), req.Message, req.History)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Text,
		Status:    statusSuccess,
		Model:     reply.Model,
		Timestamp: strconv.FormatInt(time.Now().UnixMilli(), 10),
	})

	s.record(r.Context(), req.Message, reply.Text, reply.Source, reply.Model)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.streamReply(w, r, req)
}

func (s *Server) handleLegacyChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	reply, err := s.responder.Resolve(r.Context(), req.Message, req.History)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, legacyResponse{Reply: reply.Text})

	s.record(r.Context(), req.Message, reply.Text, reply.Source, reply.Model)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: s.opts.Service,
	})
}
