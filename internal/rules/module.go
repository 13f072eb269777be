package rules

import (
	"github.com/j0lvera/neuranest/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Params for loading the rule table
type Params struct {
	fx.In

	Config *config.Config
	Logger zerolog.Logger
}

// New loads the process-wide rule table once at startup.
func New(p Params) *Table {
	return LoadOrDefault(p.Config.RulesFile, p.Logger)
}

// Module provides the rule table
func Module() fx.Option {
	return fx.Module(
		"rules",
		fx.Provide(
			New,
		),
	)
}
