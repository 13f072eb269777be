// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/j0lvera/neuranest/internal/llm"
)

// Client is a scripted llm.Client. Complete returns Text or Err; Stream
// relays Fragments (forever when Endless is set) and then Err, if any.
type Client struct {
	Text      string
	Fragments []string
	Endless   bool
	Err       error
	ModelName string

	mu       sync.Mutex
	requests []llm.Request
}

// Complete implements llm.Client.
func (c *Client) Complete(_ context.Context, req llm.Request) (string, error) {
	c.record(req)
	if c.Err != nil {
		return "", &llm.UpstreamError{Provider: "fake", Err: c.Err}
	}
	return c.Text, nil
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req llm.Request) <-chan llm.Chunk {
	c.record(req)
	ch := make(chan llm.Chunk)

	go func() {
		defer close(ch)

		send := func(chunk llm.Chunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			for _, f := range c.Fragments {
				if !send(llm.Chunk{Text: f}) {
					return
				}
			}
			if !c.Endless || len(c.Fragments) == 0 {
				break
			}
		}

		if c.Err != nil {
			send(llm.Chunk{Err: &llm.UpstreamError{Provider: "fake", Err: c.Err}})
		}
	}()

	return ch
}

// Model implements llm.Client.
func (c *Client) Model() string {
	if c.ModelName == "" {
		return "fake-model"
	}
	return c.ModelName
}

// Requests returns every request seen so far.
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.requests...)
}

func (c *Client) record(req llm.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
}

var _ llm.Client = (*Client)(nil)
