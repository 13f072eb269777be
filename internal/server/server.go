// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/j0lvera/neuranest/internal/metrics"
	"github.com/j0lvera/neuranest/internal/resolver"
	"github.com/j0lvera/neuranest/internal/transcript"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies, history included.
const maxBodyBytes = 1 << 20

// Responder answers chat messages.
type Responder interface {
	Resolve(ctx context.Context, message string, history []chat.RawTurn) (resolver.Reply, error)
	Stream(ctx context.Context, message string, history []chat.RawTurn) (<-chan resolver.Fragment, error)
	Model() string
}

// Options are the texts the HTTP surface answers with itself.
type Options struct {
	Service string
	Apology string
}

// Server holds the HTTP handlers.
type Server struct {
	opts      Options
	responder Responder
	recorder  transcript.Recorder
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewServer(opts Options, responder Responder, recorder transcript.Recorder, m *metrics.Metrics, log zerolog.Logger) *Server {
	if recorder == nil {
		recorder = transcript.Noop{}
	}
	return &Server{
		opts:      opts,
		responder: responder,
		recorder:  recorder,
		metrics:   m,
		log:       log,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /chat", s.handleLegacyChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	var h http.Handler = mux
	h = s.recoverer(h)
	h = cors(h)
	h = s.accessLog(h)
	h = s.requestID(h)
	return h
}

func (s *Server) record(ctx context.Context, message, reply string, source resolver.Source, model string) {
	s.recorder.Record(ctx, transcript.Exchange{
		RequestID: RequestID(ctx),
		Channel:   transcript.ChannelHTTP,
		Message:   message,
		Reply:     reply,
		Source:    string(source),
		Model:     model,
		CreatedAt: time.Now().UTC(),
	})
}
