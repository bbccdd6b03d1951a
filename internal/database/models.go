package database

import (
	"database/sql"
	"time"
)

// Message is a stored copy of a message seen in a Telegram group or channel.
// DedupKey is the content-derived identity enforcing at-most-one stored copy;
// rows are written once at first ingestion and never mutated.
type Message struct {
	ID        uint      `db:"id"`
	DedupKey  string    `db:"dedup_key"`
	CreatedAt time.Time `db:"created_at"`

	MessageID int64         `db:"message_id"`
	ChatID    int64         `db:"chat_id"`
	SenderID  sql.NullInt64 `db:"sender_id"` // NULL for channel posts without an author
	Text      string        `db:"text"`
	Date      time.Time     `db:"date"`

	ReplyToMessageID  sql.NullInt64  `db:"reply_to_message_id"`
	ForwardFromChatID sql.NullInt64  `db:"forward_from_chat_id"`
	MediaType         sql.NullString `db:"media_type"`
}

// User is the canonical record for a message sender, keyed by the platform
// user id. Mutable fields are refreshed on every sighting.
type User struct {
	UserID    int64          `db:"user_id"`
	Username  sql.NullString `db:"username"`
	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
	Phone     sql.NullString `db:"phone"`
	IsBot     bool           `db:"is_bot"`
	FirstSeen time.Time      `db:"first_seen"`
	LastSeen  time.Time      `db:"last_seen"`
}

// Chat is the canonical record for a group or channel, keyed by the platform
// chat id. Same upsert lifecycle as User.
type Chat struct {
	ChatID       int64          `db:"chat_id"`
	Title        sql.NullString `db:"title"`
	Username     sql.NullString `db:"username"`
	ChatType     string         `db:"chat_type"`
	MembersCount sql.NullInt64  `db:"members_count"`
	Description  sql.NullString `db:"description"`
	InviteLink   sql.NullString `db:"invite_link"`
	FirstSeen    time.Time      `db:"first_seen"`
	LastSeen     time.Time      `db:"last_seen"`
}

// SearchResult is a message row joined with its chat title and sender
// username for display.
type SearchResult struct {
	MessageID      int64          `db:"message_id"`
	ChatID         int64          `db:"chat_id"`
	ChatTitle      sql.NullString `db:"chat_title"`
	SenderID       sql.NullInt64  `db:"sender_id"`
	SenderUsername sql.NullString `db:"sender_username"`
	Text           string         `db:"text"`
	Date           time.Time      `db:"date"`
}

// ChatActivity is one entry of the most-active-chats statistic.
type ChatActivity struct {
	ChatID       int64          `db:"chat_id"`
	Title        sql.NullString `db:"title"`
	MessageCount int64          `db:"message_count"`
}

// Stats aggregates store-wide counters.
type Stats struct {
	TotalMessages   int64
	TotalChats      int64
	TotalUsers      int64
	TodayMessages   int64
	MostActiveChats []ChatActivity
}

// Contact holds the fields needed to address a stored user.
type Contact struct {
	UserID       int64
	Username     string // "@name" form, empty when unknown
	FullName     string
	Phone        string
	TelegramLink string
}

// ExportRow is one message row of the JSON export, joined with chat and
// sender metadata.
type ExportRow struct {
	DedupKey        string         `db:"dedup_key"`
	MessageID       int64          `db:"message_id"`
	ChatID          int64          `db:"chat_id"`
	ChatTitle       sql.NullString `db:"chat_title"`
	ChatUsername    sql.NullString `db:"chat_username"`
	SenderID        sql.NullInt64  `db:"sender_id"`
	SenderUsername  sql.NullString `db:"sender_username"`
	SenderFirstName sql.NullString `db:"sender_first_name"`
	SenderLastName  sql.NullString `db:"sender_last_name"`
	Text            string         `db:"text"`
	Date            time.Time      `db:"date"`
	CreatedAt       time.Time      `db:"created_at"`
}
