package main

import (
	"github.com/j0lvera/neuranest/internal/bot"
	"github.com/j0lvera/neuranest/internal/config"
	"github.com/j0lvera/neuranest/internal/db"
	"github.com/j0lvera/neuranest/internal/llm"
	"github.com/j0lvera/neuranest/internal/log"
	"github.com/j0lvera/neuranest/internal/metrics"
	"github.com/j0lvera/neuranest/internal/resolver"
	"github.com/j0lvera/neuranest/internal/rules"
	"github.com/j0lvera/neuranest/internal/server"
	"github.com/j0lvera/neuranest/internal/transcript"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// coreModules resolve messages; every command needs them.
func coreModules() fx.Option {
	return fx.Options(
		config.Module(),
		log.Module(),
		metrics.Module(),
		rules.Module(),
		llm.Module(),
		resolver.Module(),
		db.Module(),
		transcript.Module(),
	)
}

// serveModules add the long-running channels to the core.
func serveModules() fx.Option {
	return fx.Options(
		coreModules(),
		server.Module(),
		bot.Module(),
	)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when configured, the Telegram bot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fx.New(
				fx.WithLogger(log.FxLogger),
				serveModules(),
			).Run()
		},
	}
}
