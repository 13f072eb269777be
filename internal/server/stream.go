package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/j0lvera/neuranest/internal/resolver"
	"github.com/rs/zerolog"
)

// streamPrefix tags every line as a text part of the data stream.
const streamPrefix = "0:"

type textDelta struct {
	Type      string `json:"type"`
	TextDelta string `json:"textDelta"`
}

// encodeDelta renders one fragment as a newline-terminated stream line.
func encodeDelta(text string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(streamPrefix)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(textDelta{Type: "text-delta", TextDelta: text}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *Server) streamReply(w http.ResponseWriter, r *http.Request, req chatRequest) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	fragments, err := s.responder.Stream(ctx, req.Message, req.History)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	log := zerolog.Ctx(r.Context())

	var (
		text   strings.Builder
		source resolver.Source
		broken bool
	)
	for f := range fragments {
		if broken {
			// drain until the producer notices the cancellation
			continue
		}

		line, err := encodeDelta(f.Text)
		if err == nil {
			_, err = w.Write(line)
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			log.Debug().Err(err).Msg("stream write failed, stopping producer")
			broken = true
			cancel()
			continue
		}

		text.WriteString(f.Text)
		if source != resolver.SourceDegraded {
			source = f.Source
		}
	}

	if broken || ctx.Err() != nil || text.Len() == 0 {
		return
	}

	model := resolver.RuleBasedModel
	if source == resolver.SourceAI {
		model = s.responder.Model()
	}
	s.record(r.Context(), req.Message, text.String(), source, model)
}
