package telegram

import (
	"testing"

	"github.com/go-telegram/bot"
)

func TestNewTelegramBot_EmptyToken(t *testing.T) {
	t.Parallel()

	if _, err := NewTelegramBot("", nil); err == nil {
		t.Fatal("expected error for an empty token")
	}
}

func TestNewTelegramBot_ShortTokenDoesNotPanic(t *testing.T) {
	t.Parallel()

	b, err := NewTelegramBot("123:ab", nil, bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("NewTelegramBot: %v", err)
	}
	if b == nil {
		t.Fatal("expected a bot instance")
	}
}

func TestTokenPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"long token truncated", "123456789:abcdef", "12345678..."},
		{"short token kept whole", "123:ab", "123:ab..."},
		{"exactly eight bytes", "12345678", "12345678..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tokenPrefix(tt.token); got != tt.want {
				t.Errorf("tokenPrefix(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}
