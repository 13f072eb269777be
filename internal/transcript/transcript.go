// Package transcript keeps an append-only audit log of completed exchanges.
// The log is never read back as conversation history.
package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	ChannelHTTP     = "http"
	ChannelTelegram = "telegram"
	ChannelCLI      = "cli"
)

// Exchange is one answered message.
type Exchange struct {
	RequestID string
	Channel   string
	Message   string
	Reply     string
	Source    string
	Model     string
	CreatedAt time.Time
}

// Recorder stores exchanges. Implementations never fail the caller.
type Recorder interface {
	Record(ctx context.Context, e Exchange)
}

// Noop discards every exchange.
type Noop struct{}

func (Noop) Record(context.Context, Exchange) {}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const schema = `CREATE TABLE IF NOT EXISTS chat_exchanges (
	id         BIGSERIAL PRIMARY KEY,
	request_id TEXT NOT NULL,
	channel    TEXT NOT NULL,
	message    TEXT NOT NULL,
	reply      TEXT NOT NULL,
	source     TEXT NOT NULL,
	model      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertExchange = `INSERT INTO chat_exchanges
	(request_id, channel, message, reply, source, model, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// PGStore writes exchanges to the chat_exchanges table.
type PGStore struct {
	db      execer
	timeout time.Duration
	log     zerolog.Logger
}

func NewPGStore(db execer, log zerolog.Logger) *PGStore {
	return &PGStore{
		db:      db,
		timeout: 5 * time.Second,
		log:     log,
	}
}

// EnsureSchema creates the table if it does not exist yet.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("unable to create chat_exchanges: %w", err)
	}
	return nil
}

// Insert writes a single exchange.
func (s *PGStore) Insert(ctx context.Context, e Exchange) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, insertExchange,
		e.RequestID, e.Channel, e.Message, e.Reply, e.Source, e.Model, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("unable to insert exchange: %w", err)
	}
	return nil
}

// Record implements Recorder. The write outlives a cancelled request but is
// bounded by the store timeout; failures are only logged.
func (s *PGStore) Record(ctx context.Context, e Exchange) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.Insert(ctx, e); err != nil {
		s.log.Error().
			Err(err).
			Str("request_id", e.RequestID).
			Str("channel", e.Channel).
			Msg("unable to record exchange")
	}
}

var (
	_ Recorder = Noop{}
	_ Recorder = (*PGStore)(nil)
)
