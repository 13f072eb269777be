package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/j0lvera/neuranest/internal/config"
	"github.com/j0lvera/neuranest/internal/llm"
	"github.com/j0lvera/neuranest/internal/metrics"
	"github.com/j0lvera/neuranest/internal/rules"
	"github.com/rs/zerolog"
)

// RuleBasedModel is reported as the model when a reply did not come from upstream.
const RuleBasedModel = "rule-based"

// State is the resolver's configuration state.
type State string

const (
	StateNoKey State = "no_key_configured"
	StateAI    State = "ai_available"
	// StateDegraded only ever applies to a single request.
	StateDegraded State = "degraded"
)

// Source tells where a reply came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceRules    Source = "rules"
	SourceDegraded Source = "degraded"
)

// Reply is a complete resolved reply.
type Reply struct {
	Text   string
	Source Source
	Model  string
}

// Fragment is one piece of a streamed reply.
type Fragment struct {
	Text   string
	Source Source
}

// Options holds everything the resolver needs besides its collaborators.
type Options struct {
	SystemPrompt   string
	DegradedNotice string
	Apology        string
	FallbackPolicy string
	HistoryLimit   int
	Params         llm.Params
}

// OptionsFromConfig maps the process configuration onto resolver options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SystemPrompt:   cfg.Prompts.System,
		DegradedNotice: cfg.Prompts.Degraded,
		Apology:        cfg.Prompts.Apology,
		FallbackPolicy: cfg.FallbackPolicy,
		HistoryLimit:   cfg.HistoryLimit,
		Params: llm.Params{
			MaxTokens:        cfg.MaxTokens,
			Temperature:      cfg.Temperature,
			TopP:             cfg.TopP,
			FrequencyPenalty: cfg.FrequencyPenalty,
			PresencePenalty:  cfg.PresencePenalty,
		},
	}
}

// Resolver decides between the upstream model and the rule table.
type Resolver struct {
	opts    Options
	rules   *rules.Table
	client  llm.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewResolver creates a resolver. A nil client selects rule-based replies only.
func NewResolver(opts Options, table *rules.Table, client llm.Client, m *metrics.Metrics, logger zerolog.Logger) *Resolver {
	return &Resolver{
		opts:    opts,
		rules:   table,
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// State reports whether an upstream model is configured.
func (r *Resolver) State() State {
	if r.client == nil {
		return StateNoKey
	}
	return StateAI
}

// Model names the model answering in the current state.
func (r *Resolver) Model() string {
	if r.client == nil {
		return RuleBasedModel
	}
	return r.client.Model()
}

// Resolve produces exactly one reply for message. The only errors returned
// are validation errors and cancellation of ctx; upstream failures are
// answered through the fallback policy.
func (r *Resolver) Resolve(ctx context.Context, message string, history []chat.RawTurn) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, chat.NoMessage()
	}

	if r.client == nil {
		return r.count(r.ruleReply(message)), nil
	}

	req := r.request(message, history)

	start := time.Now()
	text, err := r.client.Complete(ctx, req)
	r.metrics.ObserveUpstream("complete", start, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Reply{}, ctxErr
		}
		r.logUpstream(err, len(req.History))
		return r.count(r.degradedReply(message)), nil
	}

	return r.count(Reply{Text: text, Source: SourceAI, Model: r.client.Model()}), nil
}

// Stream produces the reply as fragments. The channel is closed once the reply
// is complete or ctx is cancelled; cancelling ctx also releases the upstream call.
func (r *Resolver) Stream(ctx context.Context, message string, history []chat.RawTurn) (<-chan Fragment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, chat.NoMessage()
	}

	out := make(chan Fragment)

	send := func(f Fragment) bool {
		select {
		case out <- f:
			r.metrics.IncFragment()
			return true
		case <-ctx.Done():
			return false
		}
	}

	if r.client == nil {
		go func() {
			defer close(out)
			reply := r.count(r.ruleReply(message))
			send(Fragment{Text: reply.Text, Source: reply.Source})
		}()
		return out, nil
	}

	req := r.request(message, history)

	go func() {
		defer close(out)

		start := time.Now()
		chunks := r.client.Stream(ctx, req)

		var (
			relayed   int
			upstream  error
			abandoned bool
		)
		for chunk := range chunks {
			if abandoned {
				continue
			}
			if chunk.Err != nil {
				upstream = chunk.Err
				continue
			}
			if chunk.Text == "" {
				continue
			}
			if !send(Fragment{Text: chunk.Text, Source: SourceAI}) {
				// keep draining so the adapter can shut down
				abandoned = true
				continue
			}
			relayed++
		}
		r.metrics.ObserveUpstream("stream", start, upstream)

		if abandoned || ctx.Err() != nil {
			r.logger.Debug().Int("fragments", relayed).Msg("stream consumer went away")
			return
		}

		if upstream == nil {
			r.metrics.IncReply(string(SourceAI))
			return
		}

		r.logUpstream(upstream, len(req.History))
		reply := r.count(r.degradedReply(message))
		text := reply.Text
		if relayed > 0 {
			text = "\n\n" + text
		}
		send(Fragment{Text: text, Source: reply.Source})
	}()

	return out, nil
}

func (r *Resolver) request(message string, history []chat.RawTurn) llm.Request {
	return llm.Request{
		System:  r.opts.SystemPrompt,
		History: chat.Window(history, r.opts.HistoryLimit),
		Message: message,
		Params:  r.opts.Params,
	}
}

func (r *Resolver) ruleReply(message string) Reply {
	return Reply{Text: r.rules.Reply(message), Source: SourceRules, Model: RuleBasedModel}
}

func (r *Resolver) degradedReply(message string) Reply {
	if r.opts.FallbackPolicy == config.FallbackApology {
		return Reply{Text: r.opts.Apology, Source: SourceDegraded, Model: RuleBasedModel}
	}

	text := r.rules.Reply(message)
	if r.opts.DegradedNotice != "" {
		text = r.opts.DegradedNotice + " " + text
	}
	return Reply{Text: text, Source: SourceDegraded, Model: RuleBasedModel}
}

func (r *Resolver) count(reply Reply) Reply {
	r.metrics.IncReply(string(reply.Source))
	return reply
}

func (r *Resolver) logUpstream(err error, historyLen int) {
	var upstreamErr *llm.UpstreamError
	provider := "unknown"
	if errors.As(err, &upstreamErr) {
		provider = upstreamErr.Provider
	}

	r.logger.Error().
		Err(err).
		Str("provider", provider).
		Int("history_len", historyLen).
		Str("policy", r.opts.FallbackPolicy).
		Msg("upstream request failed, falling back")
}
