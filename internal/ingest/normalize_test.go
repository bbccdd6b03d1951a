package ingest_test

import (
	"testing"
	"time"

	"github.com/mhrezaei/telescribe/internal/ingest"
)

func TestNormalizeChat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  ingest.RawChat
		// expectations
		wantUsernameValid bool
		wantMembersValid  bool
		wantInviteLink    string
	}{
		{
			name: "public chat with members",
			raw: ingest.RawChat{
				ID: 100, Title: "Team", Username: "teamchat",
				Type: "supergroup", MembersCount: 25,
			},
			wantUsernameValid: true,
			wantMembersValid:  true,
			wantInviteLink:    "https://t.me/teamchat",
		},
		{
			name: "private group without optionals",
			raw:  ingest.RawChat{ID: 200, Title: "Secret", Type: "group"},
		},
		{
			name: "unknown member count stays NULL",
			raw:  ingest.RawChat{ID: 300, Title: "Chan", Type: "channel", MembersCount: 0},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chat := ingest.NormalizeChat(tt.raw)
			if chat.ChatID != tt.raw.ID {
				t.Errorf("ChatID = %d, want %d", chat.ChatID, tt.raw.ID)
			}
			if chat.Username.Valid != tt.wantUsernameValid {
				t.Errorf("Username.Valid = %v, want %v", chat.Username.Valid, tt.wantUsernameValid)
			}
			if chat.MembersCount.Valid != tt.wantMembersValid {
				t.Errorf("MembersCount.Valid = %v, want %v", chat.MembersCount.Valid, tt.wantMembersValid)
			}
			if chat.InviteLink.String != tt.wantInviteLink {
				t.Errorf("InviteLink = %q, want %q", chat.InviteLink.String, tt.wantInviteLink)
			}
		})
	}
}

func TestNormalizeUser(t *testing.T) {
	t.Parallel()

	if got := ingest.NormalizeUser(nil); got != nil {
		t.Fatalf("NormalizeUser(nil) = %v, want nil", got)
	}

	user := ingest.NormalizeUser(&ingest.RawUser{
		ID: 7, Username: "alice", FirstName: "Alice", IsBot: false,
	})
	if user.UserID != 7 {
		t.Errorf("UserID = %d, want 7", user.UserID)
	}
	if !user.Username.Valid || user.Username.String != "alice" {
		t.Errorf("Username = %+v, want valid 'alice'", user.Username)
	}
	if user.Phone.Valid {
		t.Error("missing phone must stay NULL, not be inferred")
	}
	if user.LastName.Valid {
		t.Error("missing last name must stay NULL")
	}
}

func TestNormalizeMessage(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	raw := ingest.RawMessage{
		MessageID:        12,
		Chat:             ingest.RawChat{ID: 100, Title: "Team", Type: "group"},
		Sender:           &ingest.RawUser{ID: 7, Username: "alice"},
		Text:             "hello",
		Date:             date,
		ReplyToMessageID: 11,
	}

	msg := ingest.NormalizeMessage(raw)
	if msg.MessageID != 12 || msg.ChatID != 100 {
		t.Errorf("identity fields = (%d, %d), want (12, 100)", msg.MessageID, msg.ChatID)
	}
	if !msg.SenderID.Valid || msg.SenderID.Int64 != 7 {
		t.Errorf("SenderID = %+v, want valid 7", msg.SenderID)
	}
	if !msg.ReplyToMessageID.Valid || msg.ReplyToMessageID.Int64 != 11 {
		t.Errorf("ReplyToMessageID = %+v, want valid 11", msg.ReplyToMessageID)
	}
	if msg.ForwardFromChatID.Valid {
		t.Error("non-forwarded message must have NULL forward_from_chat_id")
	}
	if msg.DedupKey != "" {
		t.Error("normalizer must not compute the dedup key")
	}

	senderless := ingest.NormalizeMessage(ingest.RawMessage{
		MessageID: 13,
		Chat:      ingest.RawChat{ID: 100},
		Text:      "channel post",
		Date:      date,
	})
	if senderless.SenderID.Valid {
		t.Error("channel post without author must have NULL sender_id")
	}
}
