package log

import (
	"io"
	"os"
	"time"

	"github.com/ipfans/fxlogger"
	"github.com/j0lvera/neuranest/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// NewLogger creates a configured zerolog.Logger instance
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(os.Stdout, cfg.LogFormat, cfg.Debug)
}

func newLogger(out io.Writer, format string, debug bool) zerolog.Logger {
	var logWriter io.Writer = out
	if format != "json" {
		logWriter = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(logWriter).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// FxLogger routes fx lifecycle events through the application logger.
func FxLogger(log zerolog.Logger) fxevent.Logger {
	return fxlogger.WithZerolog(log)()
}

// Module provides the application logger
func Module() fx.Option {
	return fx.Module(
		"log",
		fx.Provide(
			NewLogger,
		),
	)
}
