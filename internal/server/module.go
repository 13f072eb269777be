package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/j0lvera/neuranest/internal/config"
	"github.com/j0lvera/neuranest/internal/metrics"
	"github.com/j0lvera/neuranest/internal/resolver"
	"github.com/j0lvera/neuranest/internal/transcript"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config   *config.Config
	Resolver *resolver.Resolver
	Recorder transcript.Recorder
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

func New(lc fx.Lifecycle, p Params) *http.Server {
	s := NewServer(
		Options{Service: p.Config.Prompts.Service, Apology: p.Config.Prompts.Apology},
		p.Resolver,
		p.Recorder,
		p.Metrics,
		p.Logger,
	)

	srv := &http.Server{
		Addr:              p.Config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// streamed replies may run up to the stream timeout
		WriteTimeout: p.Config.StreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					return fmt.Errorf("unable to listen on %s: %w", srv.Addr, err)
				}

				p.Logger.Info().Str("addr", ln.Addr().String()).Msg("starting http server...")
				go func() {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						p.Logger.Error().Err(err).Msg("http server stopped unexpectedly")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				p.Logger.Info().Msg("stopping http server...")
				return srv.Shutdown(ctx)
			},
		},
	)

	return srv
}

func Module() fx.Option {
	return fx.Module(
		"server",
		fx.Provide(
			New,
		),
		fx.Invoke(
			func(*http.Server) {},
		),
	)
}
