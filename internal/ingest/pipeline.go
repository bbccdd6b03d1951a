package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mhrezaei/telescribe/internal/database"
)

// Result is the pipeline outcome for one raw message.
type Result int

const (
	// ResultInserted means the message was stored for the first time.
	ResultInserted Result = iota
	// ResultDuplicate means the dedup key was already stored; nothing changed.
	ResultDuplicate
	// ResultSkipped means the message carries no text and was not stored.
	ResultSkipped
)

// Gateway is the narrow slice of the store the pipeline writes through.
type Gateway interface {
	Ingest(ctx context.Context, chat *database.Chat, user *database.User, message *database.Message) (database.InsertResult, error)
}

// Pipeline runs the normalize → hash → store sequence for raw messages.
// Backfill pages and live notifications go through the same instance; the
// store's uniqueness constraint makes redelivery across the two paths safe.
type Pipeline struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewPipeline creates a pipeline writing through the given gateway.
func NewPipeline(gateway Gateway, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		gateway: gateway,
		logger:  logger.With("component", "pipeline"),
	}
}

// Ingest processes one raw message. Only text messages are stored; a
// redelivered message surfaces as ResultDuplicate and is absorbed silently.
func (p *Pipeline) Ingest(ctx context.Context, raw RawMessage) (Result, error) {
	if raw.Text == "" {
		p.logger.DebugContext(ctx, "Skipping message without text",
			"chat_id", raw.Chat.ID, "message_id", raw.MessageID)
		return ResultSkipped, nil
	}

	msg := NormalizeMessage(raw)
	msg.DedupKey = MessageKey(raw.MessageID, raw.Chat.ID, raw.Text)

	res, err := p.gateway.Ingest(ctx, NormalizeChat(raw.Chat), NormalizeUser(raw.Sender), msg)
	if err != nil {
		return 0, fmt.Errorf("failed to ingest message %d in chat %d: %w",
			raw.MessageID, raw.Chat.ID, err)
	}

	if res == database.Duplicate {
		return ResultDuplicate, nil
	}

	p.logger.DebugContext(ctx, "New message stored",
		"chat_id", raw.Chat.ID, "message_id", raw.MessageID)
	return ResultInserted, nil
}
