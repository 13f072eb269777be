package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/goleak"
)

// fakeModel is an in-process llms.Model.
type fakeModel struct {
	mu       sync.Mutex
	messages []llms.MessageContent
	opts     llms.CallOptions

	content string
	chunks  []string
	endless bool
	err     error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	f.mu.Lock()
	f.messages = messages
	f.opts = opts
	f.mu.Unlock()

	if opts.StreamingFunc != nil {
		for {
			for _, c := range f.chunks {
				if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
					return nil, err
				}
			}
			if !f.endless {
				break
			}
		}
		if f.err != nil {
			return nil, f.err
		}
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: strings.Join(f.chunks, "")}}}, nil
	}

	if f.err != nil {
		return nil, f.err
	}
	if f.content == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.content, f.err
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func testRequest() Request {
	return Request{
		System: "be nice",
		History: []chat.Turn{
			{Role: chat.RoleUser, Text: "hi"},
			{Role: chat.RoleAssistant, Text: "hello!"},
		},
		Message: "how are you?",
		Params: Params{
			MaxTokens:        1500,
			Temperature:      0.8,
			TopP:             0.95,
			FrequencyPenalty: 0.2,
			PresencePenalty:  0.3,
		},
	}
}

func TestCompleteBuildsOrderedPrompt(t *testing.T) {
	model := &fakeModel{content: "  fine, thanks  \n"}
	client := NewLangChain(model, "openai", "gpt-test", time.Second, time.Second)

	text, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "fine, thanks", text)

	require.Len(t, model.messages, 4)
	wantRoles := []llms.ChatMessageType{
		llms.ChatMessageTypeSystem,
		llms.ChatMessageTypeHuman,
		llms.ChatMessageTypeAI,
		llms.ChatMessageTypeHuman,
	}
	wantTexts := []string{"be nice", "hi", "hello!", "how are you?"}
	for i, msg := range model.messages {
		assert.Equal(t, wantRoles[i], msg.Role)
		assert.Equal(t, wantTexts[i], textOf(t, msg))
	}

	assert.Equal(t, 1500, model.opts.MaxTokens)
	assert.InDelta(t, 0.8, model.opts.Temperature, 1e-9)
	assert.InDelta(t, 0.95, model.opts.TopP, 1e-9)
	assert.InDelta(t, 0.2, model.opts.FrequencyPenalty, 1e-9)
	assert.InDelta(t, 0.3, model.opts.PresencePenalty, 1e-9)
	assert.Nil(t, model.opts.StreamingFunc)
}

func TestCompleteTranslatesFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{name: "transport error", model: &fakeModel{err: errors.New("401 unauthorized")}},
		{name: "no choices", model: &fakeModel{}},
		{name: "blank content", model: &fakeModel{content: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewLangChain(tt.model, "openai", "gpt-test", time.Second, time.Second)

			_, err := client.Complete(context.Background(), testRequest())
			require.Error(t, err)

			var upstreamErr *UpstreamError
			require.ErrorAs(t, err, &upstreamErr)
			assert.Equal(t, "openai", upstreamErr.Provider)
		})
	}
}

func TestCompleteKeepsOriginalMessage(t *testing.T) {
	client := NewLangChain(&fakeModel{err: errors.New("insufficient_quota")}, "openai", "gpt-test", 0, 0)

	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient_quota")
}

func collect(t *testing.T, ch <-chan Chunk) ([]string, error) {
	t.Helper()
	var (
		texts []string
		err   error
	)
	timeout := time.After(2 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return texts, err
			}
			if chunk.Err != nil {
				err = chunk.Err
				continue
			}
			texts = append(texts, chunk.Text)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestStreamRelaysFragmentsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	model := &fakeModel{chunks: []string{"Hel", "", "lo", " world"}}
	client := NewLangChain(model, "openai", "gpt-test", time.Second, time.Second)

	texts, err := collect(t, client.Stream(context.Background(), testRequest()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo", " world"}, texts)
	assert.NotNil(t, model.opts.StreamingFunc)
}

func TestStreamMatchesComplete(t *testing.T) {
	chunks := []string{"The answer ", "is ", "42."}
	streamed := NewLangChain(&fakeModel{chunks: chunks}, "openai", "gpt-test", 0, 0)
	single := NewLangChain(&fakeModel{content: strings.Join(chunks, "")}, "openai", "gpt-test", 0, 0)

	texts, err := collect(t, streamed.Stream(context.Background(), testRequest()))
	require.NoError(t, err)

	text, err := single.Complete(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, text, strings.Join(texts, ""))
}

func TestStreamReportsUpstreamErrorLast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	model := &fakeModel{chunks: []string{"partial"}, err: errors.New("connection reset")}
	client := NewLangChain(model, "openai", "gpt-test", 0, 0)

	texts, err := collect(t, client.Stream(context.Background(), testRequest()))
	assert.Equal(t, []string{"partial"}, texts)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStreamEmptyIsUpstreamError(t *testing.T) {
	client := NewLangChain(&fakeModel{}, "openai", "gpt-test", 0, 0)

	texts, err := collect(t, client.Stream(context.Background(), testRequest()))
	assert.Empty(t, texts)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
}

func TestStreamStopsWhenConsumerLeaves(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	model := &fakeModel{chunks: []string{"tick "}, endless: true}
	client := NewLangChain(model, "openai", "gpt-test", 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	ch := client.Stream(ctx, testRequest())

	for i := 0; i < 3; i++ {
		chunk := <-ch
		require.NoError(t, chunk.Err)
		assert.Equal(t, "tick ", chunk.Text)
	}
	cancel()

	// the producer must close the channel without reporting an error
	for chunk := range ch {
		assert.NoError(t, chunk.Err)
	}
}
