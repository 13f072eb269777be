package bot

import (
	"context"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/j0lvera/neuranest/internal/chat"
	"github.com/j0lvera/neuranest/internal/resolver"
)

// BotSender labels the bot's own turns in stored history.
const BotSender = "bot"

// Responder defines what the bot needs from the response resolver
type Responder interface {
	Resolve(ctx context.Context, message string, history []chat.RawTurn) (resolver.Reply, error)
}

// Sender is the part of the Telegram API the handler talks to
type Sender interface {
	SendMessage(ctx context.Context, params *tbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tbot.SendChatActionParams) (bool, error)
}

var _ Sender = (*tbot.Bot)(nil)
