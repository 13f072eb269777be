package bot

import (
	"context"
	"time"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/j0lvera/neuranest/internal/config"
	"github.com/j0lvera/neuranest/internal/resolver"
	"github.com/j0lvera/neuranest/internal/transcript"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	clearCommand = "/clear"
	clearedReply = "Conversation cleared. Starting fresh!"
)

type Params struct {
	fx.In

	Config   *config.Config
	Resolver *resolver.Resolver
	Recorder transcript.Recorder
	Logger   zerolog.Logger
}

type Result struct {
	fx.Out

	// Bot is nil when TELEGRAM_API_TOKEN is unset.
	Bot *tbot.Bot
}

func New(lc fx.Lifecycle, p Params) (Result, error) {
	log := p.Logger.With().Str("channel", transcript.ChannelTelegram).Logger()

	if p.Config.TelegramToken == "" {
		log.Info().Msg("TELEGRAM_API_TOKEN not set, telegram channel disabled")
		return Result{}, nil
	}

	handler := NewHandler(
		p.Resolver,
		NewStore(2*p.Config.HistoryLimit),
		p.Recorder,
		p.Config.Prompts.Apology,
		log,
	)

	opts := []tbot.Option{
		tbot.WithDefaultHandler(
			func(ctx context.Context, tg *tbot.Bot, update *models.Update) {
				handler.Handle(ctx, tg, update)
			},
		),
	}

	tg, err := tbot.New(p.Config.TelegramToken, opts...)
	if err != nil {
		return Result{}, err
	}

	var cancel context.CancelFunc
	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				log.Info().Msg("starting telegram bot...")
				var runCtx context.Context
				runCtx, cancel = context.WithCancel(context.Background())
				go tg.Start(runCtx)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("stopping telegram bot...")
				if cancel != nil {
					cancel()
				}
				return nil
			},
		},
	)

	return Result{Bot: tg}, nil
}

func Module() fx.Option {
	return fx.Module(
		"bot",
		fx.Provide(
			New,
		),
		fx.Invoke(
			func(*tbot.Bot) {},
		),
	)
}

// Handler answers Telegram text messages through the resolver.
type Handler struct {
	responder Responder
	store     *Store
	recorder  transcript.Recorder
	apology   string
	log       zerolog.Logger
}

func NewHandler(responder Responder, store *Store, recorder transcript.Recorder, apology string, log zerolog.Logger) *Handler {
	if recorder == nil {
		recorder = transcript.Noop{}
	}
	return &Handler{
		responder: responder,
		store:     store,
		recorder:  recorder,
		apology:   apology,
		log:       log,
	}
}

func (h *Handler) Handle(ctx context.Context, tg Sender, update *models.Update) {
	// Guard against non-text updates
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if text == clearCommand {
		h.store.Clear(chatID)
		h.send(ctx, tg, chatID, clearedReply)
		h.log.Info().Int64("chat_id", chatID).Msg("history cleared by user")
		return
	}

	if _, err := tg.SendChatAction(ctx, &tbot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}); err != nil {
		h.log.Debug().Err(err).Int64("chat_id", chatID).Msg("unable to send typing action")
	}

	history := h.store.History(chatID)

	h.log.Info().Int64("chat_id", chatID).Int("history_len", len(history)).Msg("resolving reply")
	reply, err := h.responder.Resolve(ctx, text, history)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("unable to resolve reply")
		h.send(ctx, tg, chatID, h.apology)
		return
	}

	h.store.AddUserMessage(chatID, text)
	h.store.AddBotMessage(chatID, reply.Text)

	h.send(ctx, tg, chatID, reply.Text)

	h.recorder.Record(ctx, transcript.Exchange{
		RequestID: uuid.NewString(),
		Channel:   transcript.ChannelTelegram,
		Message:   text,
		Reply:     reply.Text,
		Source:    string(reply.Source),
		Model:     reply.Model,
		CreatedAt: time.Now().UTC(),
	})
}

func (h *Handler) send(ctx context.Context, tg Sender, chatID int64, text string) {
	if _, err := tg.SendMessage(ctx, &tbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("unable to send message")
	}
}
