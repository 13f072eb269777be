package llm

import (
	"context"
	"fmt"

	"github.com/j0lvera/neuranest/internal/chat"
)

// Params carries the generation knobs sent with every request.
type Params struct {
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Request is one prompt: a system turn, the windowed history and the current message.
type Request struct {
	System  string
	History []chat.Turn
	Message string
	Params  Params
}

// Chunk is one streamed fragment. A chunk with Err set is always the last one.
type Chunk struct {
	Text string
	Err  error
}

// Client wraps an upstream language model.
type Client interface {
	// Complete returns the full, trimmed text of the first completion choice.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream relays fragments as they arrive. The channel is closed when the
	// upstream finishes, fails, or ctx is cancelled.
	Stream(ctx context.Context, req Request) <-chan Chunk
	// Model names the upstream model.
	Model() string
}

// UpstreamError wraps any failure of the upstream call: network, auth, quota
// or a malformed response.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
