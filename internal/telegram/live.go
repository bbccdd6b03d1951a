package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mhrezaei/telescribe/internal/ingest"
)

type liveHandler struct {
	logger   *slog.Logger
	pipeline *ingest.Pipeline
}

// NewLiveHandler returns the default update handler: every new group or
// channel message is pushed through the same normalize → hash → store
// sequence as backfill. The stream is at-least-once; redeliveries surface as
// duplicates and are absorbed without logging noise.
func NewLiveHandler(pipeline *ingest.Pipeline, logger *slog.Logger) bot.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	h := liveHandler{
		logger:   logger.With("component", "live_adapter"),
		pipeline: pipeline,
	}
	return h.Handle
}

func (h liveHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		h.logger.DebugContext(ctx, "Ignoring update without message payload", "update_id", update.ID)
		return
	}

	raw, ok := rawFromMessage(msg)
	if !ok {
		h.logger.DebugContext(ctx, "Ignoring message outside group/channel scope",
			"update_id", update.ID, "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)
		return
	}

	res, err := h.pipeline.Ingest(ctx, raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to ingest live message",
			"chat_id", raw.Chat.ID, "message_id", raw.MessageID, "error", err)
		return
	}

	switch res {
	case ingest.ResultInserted:
		h.logger.InfoContext(ctx, "Live message stored",
			"chat_id", raw.Chat.ID, "message_id", raw.MessageID)
	case ingest.ResultDuplicate:
		h.logger.DebugContext(ctx, "Live message redelivered, absorbed",
			"chat_id", raw.Chat.ID, "message_id", raw.MessageID)
	case ingest.ResultSkipped:
		h.logger.DebugContext(ctx, "Live message skipped",
			"chat_id", raw.Chat.ID, "message_id", raw.MessageID)
	}
}

// rawFromMessage maps a Telegram update message to the transport-neutral raw
// record. Returns false for private chats, which are out of archive scope.
func rawFromMessage(msg *models.Message) (ingest.RawMessage, bool) {
	switch msg.Chat.Type {
	case models.ChatTypeGroup, models.ChatTypeSupergroup, models.ChatTypeChannel:
	default:
		return ingest.RawMessage{}, false
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	raw := ingest.RawMessage{
		MessageID: int64(msg.ID),
		Chat: ingest.RawChat{
			ID:       msg.Chat.ID,
			Title:    msg.Chat.Title,
			Username: msg.Chat.Username,
			Type:     string(msg.Chat.Type),
		},
		Text:      text,
		Date:      time.Unix(int64(msg.Date), 0).UTC(),
		MediaType: mediaType(msg),
	}

	if msg.From != nil {
		raw.Sender = &ingest.RawUser{
			ID:        msg.From.ID,
			Username:  msg.From.Username,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
			IsBot:     msg.From.IsBot,
		}
	}
	if msg.ReplyToMessage != nil {
		raw.ReplyToMessageID = int64(msg.ReplyToMessage.ID)
	}
	if msg.ForwardOrigin != nil {
		if origin := msg.ForwardOrigin.MessageOriginChannel; origin != nil {
			raw.ForwardFromChatID = origin.Chat.ID
		} else if origin := msg.ForwardOrigin.MessageOriginChat; origin != nil {
			raw.ForwardFromChatID = origin.SenderChat.ID
		}
	}

	return raw, true
}

func mediaType(msg *models.Message) string {
	switch {
	case len(msg.Photo) > 0:
		return "photo"
	case msg.Video != nil:
		return "video"
	case msg.Voice != nil:
		return "voice"
	case msg.Audio != nil:
		return "audio"
	case msg.Animation != nil:
		return "animation"
	case msg.Sticker != nil:
		return "sticker"
	case msg.Document != nil:
		return "document"
	default:
		return ""
	}
}
