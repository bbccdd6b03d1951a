package ingest_test

import (
	"testing"

	"github.com/mhrezaei/telescribe/internal/ingest"
)

func TestMessageKey_Deterministic(t *testing.T) {
	t.Parallel()

	first := ingest.MessageKey(1, 100, "hi")
	second := ingest.MessageKey(1, 100, "hi")

	if first != second {
		t.Errorf("MessageKey not deterministic: %q != %q", first, second)
	}
	if len(first) != 64 {
		t.Errorf("MessageKey length = %d, want 64 hex chars", len(first))
	}
}

func TestMessageKey_FieldSensitivity(t *testing.T) {
	t.Parallel()

	base := ingest.MessageKey(1, 100, "hi")

	tests := []struct {
		name      string
		messageID int64
		chatID    int64
		text      string
	}{
		{"different message id", 2, 100, "hi"},
		{"different chat id", 1, 101, "hi"},
		{"edited text", 1, 100, "hi edited"},
		{"empty text", 1, 100, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key := ingest.MessageKey(tt.messageID, tt.chatID, tt.text)
			if key == base {
				t.Errorf("MessageKey(%d, %d, %q) collides with base key",
					tt.messageID, tt.chatID, tt.text)
			}
		})
	}
}

func TestMessageKey_SameKeyAcrossChatsRequiresSameChat(t *testing.T) {
	t.Parallel()

	// Same platform message id and text in two different chats must produce
	// two different identities: platform ids are only unique per chat.
	a := ingest.MessageKey(42, 100, "hello")
	b := ingest.MessageKey(42, 200, "hello")
	if a == b {
		t.Error("messages in different chats share a dedup key")
	}
}
