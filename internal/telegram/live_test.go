package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestRawFromMessage_ScopeFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		chatType models.ChatType
		want     bool
	}{
		{"group accepted", models.ChatTypeGroup, true},
		{"supergroup accepted", models.ChatTypeSupergroup, true},
		{"channel accepted", models.ChatTypeChannel, true},
		{"private rejected", models.ChatTypePrivate, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := &models.Message{
				ID:   1,
				Chat: models.Chat{ID: 100, Type: tt.chatType},
				Text: "hi",
			}
			_, ok := rawFromMessage(msg)
			if ok != tt.want {
				t.Errorf("rawFromMessage ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestRawFromMessage_MapsFields(t *testing.T) {
	t.Parallel()

	msg := &models.Message{
		ID:   42,
		Date: 1755684600,
		Chat: models.Chat{
			ID:       -100123,
			Type:     models.ChatTypeSupergroup,
			Title:    "Team",
			Username: "teamchat",
		},
		From: &models.User{
			ID:        7,
			Username:  "alice",
			FirstName: "Alice",
			LastName:  "Doe",
		},
		Text:           "hello",
		ReplyToMessage: &models.Message{ID: 41},
	}

	raw, ok := rawFromMessage(msg)
	if !ok {
		t.Fatal("rawFromMessage rejected a supergroup message")
	}
	if raw.MessageID != 42 {
		t.Errorf("MessageID = %d, want 42", raw.MessageID)
	}
	if raw.Chat.ID != -100123 || raw.Chat.Title != "Team" || raw.Chat.Username != "teamchat" {
		t.Errorf("chat mapped wrong: %+v", raw.Chat)
	}
	if raw.Sender == nil || raw.Sender.ID != 7 || raw.Sender.Username != "alice" {
		t.Errorf("sender mapped wrong: %+v", raw.Sender)
	}
	if raw.Text != "hello" {
		t.Errorf("Text = %q, want hello", raw.Text)
	}
	if raw.ReplyToMessageID != 41 {
		t.Errorf("ReplyToMessageID = %d, want 41", raw.ReplyToMessageID)
	}
	if raw.Date.Unix() != 1755684600 {
		t.Errorf("Date = %v, want unix 1755684600", raw.Date)
	}
}

func TestRawFromMessage_CaptionFallback(t *testing.T) {
	t.Parallel()

	msg := &models.Message{
		ID:      5,
		Chat:    models.Chat{ID: 100, Type: models.ChatTypeGroup},
		Caption: "photo caption",
		Photo:   []models.PhotoSize{{FileID: "f"}},
	}

	raw, ok := rawFromMessage(msg)
	if !ok {
		t.Fatal("rawFromMessage rejected a group message")
	}
	if raw.Text != "photo caption" {
		t.Errorf("Text = %q, want the caption", raw.Text)
	}
	if raw.MediaType != "photo" {
		t.Errorf("MediaType = %q, want photo", raw.MediaType)
	}
}

func TestRawFromMessage_SenderlessChannelPost(t *testing.T) {
	t.Parallel()

	msg := &models.Message{
		ID:   9,
		Chat: models.Chat{ID: -100999, Type: models.ChatTypeChannel, Title: "News"},
		Text: "announcement",
	}

	raw, ok := rawFromMessage(msg)
	if !ok {
		t.Fatal("rawFromMessage rejected a channel post")
	}
	if raw.Sender != nil {
		t.Errorf("Sender = %+v, want nil for an authorless channel post", raw.Sender)
	}
}

func TestMediaType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{"plain text", models.Message{Text: "hi"}, ""},
		{"photo", models.Message{Photo: []models.PhotoSize{{FileID: "f"}}}, "photo"},
		{"video", models.Message{Video: &models.Video{}}, "video"},
		{"voice", models.Message{Voice: &models.Voice{}}, "voice"},
		{"document", models.Message{Document: &models.Document{}}, "document"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mediaType(&tt.msg); got != tt.want {
				t.Errorf("mediaType = %q, want %q", got, tt.want)
			}
		})
	}
}
