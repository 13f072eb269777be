package transcript

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/j0lvera/neuranest/internal/db"
)

type Params struct {
	fx.In

	DB     *db.Client `optional:"true"`
	Logger zerolog.Logger
}

func New(lc fx.Lifecycle, p Params) Recorder {
	if p.DB == nil {
		return Noop{}
	}

	store := NewPGStore(p.DB.Pool, p.Logger)
	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				return store.EnsureSchema(ctx)
			},
		},
	)

	return store
}

func Module() fx.Option {
	return fx.Module(
		"transcript",
		fx.Provide(New),
	)
}
