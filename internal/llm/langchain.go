package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

var errEmptyCompletion = errors.New("empty completion")

// LangChain implements Client on top of a langchaingo model.
type LangChain struct {
	model           llms.Model
	provider        string
	name            string
	completeTimeout time.Duration
	streamTimeout   time.Duration
}

// NewLangChain wraps model. Zero timeouts leave calls bounded only by ctx.
func NewLangChain(model llms.Model, provider, name string, completeTimeout, streamTimeout time.Duration) *LangChain {
	return &LangChain{
		model:           model,
		provider:        provider,
		name:            name,
		completeTimeout: completeTimeout,
		streamTimeout:   streamTimeout,
	}
}

// NewOpenAIModel creates an OpenAI-compatible langchaingo model.
func NewOpenAIModel(apiKey, baseURL, model string, httpClient *http.Client) (llms.Model, error) {
	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// NewOllamaModel creates a langchaingo model backed by an Ollama server.
func NewOllamaModel(serverURL, model string, httpClient *http.Client) (llms.Model, error) {
	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return client, nil
}

// NewHTTPClient bounds connection setup and time to first byte. Body reads
// are bounded by the per-call context instead, so long streams are not cut.
func NewHTTPClient(headerTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: headerTimeout,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Model implements Client.
func (c *LangChain) Model() string {
	return c.name
}

// Complete implements Client.
func (c *LangChain) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, c.completeTimeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, messages(req), options(req.Params)...)
	if err != nil {
		return "", c.upstream(fmt.Errorf("failed to generate content: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", c.upstream(errors.New("no choices returned from model"))
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", c.upstream(errEmptyCompletion)
	}

	return text, nil
}

// Stream implements Client.
func (c *LangChain) Stream(ctx context.Context, req Request) <-chan Chunk {
	ch := make(chan Chunk)

	go func() {
		defer close(ch)

		callCtx, cancel := withTimeout(ctx, c.streamTimeout)
		defer cancel()

		send := func(chunk Chunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		relayed := 0
		streaming := llms.WithStreamingFunc(func(_ context.Context, fragment []byte) error {
			if len(fragment) == 0 {
				return nil
			}
			if !send(Chunk{Text: string(fragment)}) {
				// consumer went away: abort the upstream request
				return ctx.Err()
			}
			relayed++
			return nil
		})

		opts := append(options(req.Params), streaming)
		_, err := c.model.GenerateContent(callCtx, messages(req), opts...)
		if ctx.Err() != nil {
			return
		}

		switch {
		case err != nil:
			send(Chunk{Err: c.upstream(fmt.Errorf("failed to stream content: %w", err))})
		case relayed == 0:
			send(Chunk{Err: c.upstream(errEmptyCompletion)})
		}
	}()

	return ch
}

func (c *LangChain) upstream(err error) error {
	return &UpstreamError{Provider: c.provider, Err: err}
}

// messages orders the prompt: system turn, history, then the current message.
func messages(req Request) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(req.History)+2)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.System))

	for _, turn := range req.History {
		var msgType llms.ChatMessageType
		switch turn.Role {
		case chat.RoleUser:
			msgType = llms.ChatMessageTypeHuman
		case chat.RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		case chat.RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		default:
			continue
		}
		msgs = append(msgs, llms.TextParts(msgType, turn.Text))
	}

	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.Message))
}

func options(p Params) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(p.Temperature)}
	if p.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.MaxTokens))
	}
	if p.TopP > 0 {
		opts = append(opts, llms.WithTopP(p.TopP))
	}
	if p.FrequencyPenalty != 0 {
		opts = append(opts, llms.WithFrequencyPenalty(p.FrequencyPenalty))
	}
	if p.PresencePenalty != 0 {
		opts = append(opts, llms.WithPresencePenalty(p.PresencePenalty))
	}
	return opts
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

var _ Client = (*LangChain)(nil)
