package llm

import (
	"fmt"

	"github.com/j0lvera/neuranest/internal/config"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/fx"
)

// ModuleParams for creating the upstream client
type ModuleParams struct {
	fx.In

	Config *config.Config
	Logger zerolog.Logger
}

// Result of creating the upstream client. Client is nil when no model is configured.
type Result struct {
	fx.Out

	Client Client
}

// New creates the upstream client based on configuration
func New(p ModuleParams) (Result, error) {
	if !p.Config.AIEnabled() {
		p.Logger.Info().Msg("no api key configured, replies will be rule-based")
		return Result{}, nil
	}

	client, err := NewFromConfig(p.Config)
	if err != nil {
		return Result{}, err
	}

	p.Logger.Info().
		Str("provider", p.Config.Provider).
		Str("model", client.Model()).
		Msg("upstream model configured")

	return Result{Client: client}, nil
}

// NewFromConfig builds a LangChain client for the configured provider.
func NewFromConfig(cfg *config.Config) (*LangChain, error) {
	httpClient := NewHTTPClient(cfg.UpstreamTimeout)

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		model, err = NewOpenAIModel(cfg.APIKey, cfg.BaseURL, cfg.Model, httpClient)
	case config.ProviderOllama:
		model, err = NewOllamaModel(cfg.OllamaURL, cfg.Model, httpClient)
	default:
		err = fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewLangChain(model, cfg.Provider, cfg.Model, cfg.UpstreamTimeout, cfg.StreamTimeout), nil
}

// Module provides the upstream client
func Module() fx.Option {
	return fx.Module(
		"llm",
		fx.Provide(
			New,
		),
	)
}
