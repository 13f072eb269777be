package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/j0lvera/neuranest/internal/resolver"
	"github.com/j0lvera/neuranest/internal/transcript"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newAskCmd() *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Answer a single message and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), stream)
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it is generated")
	return cmd
}

func runAsk(cmd *cobra.Command, message string, stream bool) error {
	var (
		res *resolver.Resolver
		rec transcript.Recorder
	)

	app := fx.New(
		fx.NopLogger,
		coreModules(),
		// keep stdout for the reply
		fx.Decorate(func(l zerolog.Logger) zerolog.Logger {
			return l.Level(zerolog.WarnLevel)
		}),
		fx.Populate(&res, &rec),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	out := cmd.OutOrStdout()

	reply := resolver.Reply{Model: res.Model()}
	if stream {
		fragments, err := res.Stream(ctx, message, nil)
		if err != nil {
			return err
		}

		var text strings.Builder
		for f := range fragments {
			fmt.Fprint(out, f.Text)
			text.WriteString(f.Text)
			reply.Source = f.Source
		}
		fmt.Fprintln(out)

		if err := ctx.Err(); err != nil {
			return err
		}
		reply.Text = text.String()
		if reply.Source != resolver.SourceAI {
			reply.Model = resolver.RuleBasedModel
		}
	} else {
		var err error
		reply, err = res.Resolve(ctx, message, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Text)
	}

	rec.Record(ctx, transcript.Exchange{
		RequestID: uuid.NewString(),
		Channel:   transcript.ChannelCLI,
		Message:   message,
		Reply:     reply.Text,
		Source:    string(reply.Source),
		Model:     reply.Model,
		CreatedAt: time.Now().UTC(),
	})

	return nil
}
