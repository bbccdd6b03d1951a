// Package source provides history providers for backfill. The Bot API
// exposes no history pagination, so backfill reads saved history dumps; any
// MTProto client can implement ingest.Source directly instead.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/mhrezaei/telescribe/internal/ingest"
)

// dump is the on-disk layout of a history export file.
type dump struct {
	Chats []dumpChat `json:"chats"`
}

type dumpChat struct {
	ChatID       int64         `json:"chat_id"`
	Title        string        `json:"title"`
	Username     string        `json:"username"`
	Type         string        `json:"type"`
	MembersCount int64         `json:"members_count"`
	Description  string        `json:"description"`
	Messages     []dumpMessage `json:"messages"`
}

type dumpMessage struct {
	MessageID         int64     `json:"message_id"`
	Text              string    `json:"text"`
	Date              time.Time `json:"date"`
	Sender            *dumpUser `json:"sender"`
	ReplyToMessageID  int64     `json:"reply_to_message_id"`
	ForwardFromChatID int64     `json:"forward_from_chat_id"`
	MediaType         string    `json:"media_type"`
}

type dumpUser struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	IsBot     bool   `json:"is_bot"`
}

// FileSource serves backfill pages from a JSON history dump.
type FileSource struct {
	chats  map[int64]*dumpChat
	order  []int64
	logger *slog.Logger
}

// NewFileSource loads a history dump from path. Each chat's messages are
// ordered newest first regardless of file order.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "file_source")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history dump: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn("Error closing history dump", "path", path, "error", closeErr)
		}
	}()

	var d dump
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse history dump %s: %w", path, err)
	}

	s := &FileSource{
		chats:  make(map[int64]*dumpChat, len(d.Chats)),
		logger: log,
	}
	for i := range d.Chats {
		chat := &d.Chats[i]
		sort.Slice(chat.Messages, func(a, b int) bool {
			return chat.Messages[a].MessageID > chat.Messages[b].MessageID
		})
		s.chats[chat.ChatID] = chat
		s.order = append(s.order, chat.ChatID)
	}

	log.Info("History dump loaded", "path", path, "chats", len(s.order))
	return s, nil
}

// Dialogs lists the chats present in the dump, in file order.
func (s *FileSource) Dialogs(ctx context.Context) ([]ingest.RawChat, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	dialogs := make([]ingest.RawChat, 0, len(s.order))
	for _, id := range s.order {
		dialogs = append(dialogs, rawChat(s.chats[id]))
	}
	return dialogs, nil
}

// HistoryPage returns up to pageSize messages of chatID older than offsetID,
// newest first. The returned offset is the id of the last message served;
// 0 means the chat's history is exhausted.
func (s *FileSource) HistoryPage(ctx context.Context, chatID, offsetID int64, pageSize int) ([]ingest.RawMessage, int64, error) {
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, 0, fmt.Errorf("chat %d not present in history dump", chatID)
	}
	if pageSize <= 0 {
		return nil, 0, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	start := 0
	if offsetID > 0 {
		start = sort.Search(len(chat.Messages), func(i int) bool {
			return chat.Messages[i].MessageID < offsetID
		})
	}

	end := start + pageSize
	if end > len(chat.Messages) {
		end = len(chat.Messages)
	}
	if start >= end {
		return nil, 0, nil
	}

	page := make([]ingest.RawMessage, 0, end-start)
	for _, m := range chat.Messages[start:end] {
		page = append(page, rawMessage(chat, m))
	}

	var next int64
	if end < len(chat.Messages) {
		next = page[len(page)-1].MessageID
	}
	return page, next, nil
}

func rawChat(chat *dumpChat) ingest.RawChat {
	return ingest.RawChat{
		ID:           chat.ChatID,
		Title:        chat.Title,
		Username:     chat.Username,
		Type:         chat.Type,
		MembersCount: chat.MembersCount,
		Description:  chat.Description,
	}
}

func rawMessage(chat *dumpChat, m dumpMessage) ingest.RawMessage {
	raw := ingest.RawMessage{
		MessageID:         m.MessageID,
		Chat:              rawChat(chat),
		Text:              m.Text,
		Date:              m.Date,
		ReplyToMessageID:  m.ReplyToMessageID,
		ForwardFromChatID: m.ForwardFromChatID,
		MediaType:         m.MediaType,
	}
	if m.Sender != nil {
		raw.Sender = &ingest.RawUser{
			ID:        m.Sender.UserID,
			Username:  m.Sender.Username,
			FirstName: m.Sender.FirstName,
			LastName:  m.Sender.LastName,
			Phone:     m.Sender.Phone,
			IsBot:     m.Sender.IsBot,
		}
	}
	return raw
}
