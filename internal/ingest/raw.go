package ingest

import (
	"context"
	"time"
)

// RawUser is sender metadata as delivered by the transport layer. Empty
// strings mean the field could not be resolved.
type RawUser struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Phone     string
	IsBot     bool
}

// RawChat is group/channel metadata as delivered by the transport layer.
// MembersCount <= 0 means unknown.
type RawChat struct {
	ID           int64
	Title        string
	Username     string
	Type         string
	MembersCount int64
	Description  string
}

// RawMessage is one message record as delivered by the transport layer,
// either from a history page or a live notification. Sender is nil for
// channel posts without an author.
type RawMessage struct {
	MessageID int64
	Chat      RawChat
	Sender    *RawUser
	Text      string
	Date      time.Time

	ReplyToMessageID  int64 // 0 when not a reply
	ForwardFromChatID int64 // 0 when not forwarded
	MediaType         string
}

// Source provides historical messages for backfill. Implementations wrap a
// long-lived authenticated transport session; the Bot API exposes no history
// pagination, so sources are typically MTProto clients or saved history
// dumps.
type Source interface {
	// Dialogs lists the groups and channels visible to the session.
	Dialogs(ctx context.Context) ([]RawChat, error)

	// HistoryPage returns up to pageSize messages of chatID older than
	// offsetID, newest first. offsetID 0 starts from the most recent
	// message. The returned offset feeds the next call; 0 means the history
	// is exhausted.
	HistoryPage(ctx context.Context, chatID, offsetID int64, pageSize int) ([]RawMessage, int64, error)
}
