package ingest

import (
	"database/sql"
	"fmt"

	"github.com/mhrezaei/telescribe/internal/database"
)

// NormalizeChat converts raw chat metadata into its canonical row. Missing
// optional fields become NULLs, never inferred values; the invite link is
// derived from the public username when present.
func NormalizeChat(raw RawChat) *database.Chat {
	chat := &database.Chat{
		ChatID:      raw.ID,
		Title:       nullString(raw.Title),
		Username:    nullString(raw.Username),
		ChatType:    raw.Type,
		Description: nullString(raw.Description),
	}
	if raw.MembersCount > 0 {
		chat.MembersCount = sql.NullInt64{Int64: raw.MembersCount, Valid: true}
	}
	if raw.Username != "" {
		chat.InviteLink = nullString(fmt.Sprintf("https://t.me/%s", raw.Username))
	}
	return chat
}

// NormalizeUser converts raw sender metadata into its canonical row.
// Returns nil when the message has no resolvable sender.
func NormalizeUser(raw *RawUser) *database.User {
	if raw == nil {
		return nil
	}
	return &database.User{
		UserID:    raw.ID,
		Username:  nullString(raw.Username),
		FirstName: nullString(raw.FirstName),
		LastName:  nullString(raw.LastName),
		Phone:     nullString(raw.Phone),
		IsBot:     raw.IsBot,
	}
}

// NormalizeMessage converts a raw message into its canonical row, without
// the dedup key (computed separately by MessageKey).
func NormalizeMessage(raw RawMessage) *database.Message {
	msg := &database.Message{
		MessageID: raw.MessageID,
		ChatID:    raw.Chat.ID,
		Text:      raw.Text,
		Date:      raw.Date.UTC(),
		MediaType: nullString(raw.MediaType),
	}
	if raw.Sender != nil {
		msg.SenderID = sql.NullInt64{Int64: raw.Sender.ID, Valid: true}
	}
	if raw.ReplyToMessageID != 0 {
		msg.ReplyToMessageID = sql.NullInt64{Int64: raw.ReplyToMessageID, Valid: true}
	}
	if raw.ForwardFromChatID != 0 {
		msg.ForwardFromChatID = sql.NullInt64{Int64: raw.ForwardFromChatID, Valid: true}
	}
	return msg
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
