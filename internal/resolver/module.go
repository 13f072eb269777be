package resolver

import (
	"github.com/j0lvera/neuranest/internal/config"
	"github.com/j0lvera/neuranest/internal/llm"
	"github.com/j0lvera/neuranest/internal/metrics"
	"github.com/j0lvera/neuranest/internal/rules"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Params for creating the resolver
type Params struct {
	fx.In

	Config  *config.Config
	Rules   *rules.Table
	Client  llm.Client `optional:"true"`
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// New creates the process-wide resolver
func New(p Params) *Resolver {
	r := NewResolver(OptionsFromConfig(p.Config), p.Rules, p.Client, p.Metrics, p.Logger)

	p.Logger.Info().
		Str("state", string(r.State())).
		Str("model", r.Model()).
		Int("history_limit", p.Config.HistoryLimit).
		Msg("response resolver ready")

	return r
}

// Module provides the response resolver
func Module() fx.Option {
	return fx.Module(
		"resolver",
		fx.Provide(
			New,
		),
	)
}
