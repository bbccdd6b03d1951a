package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrIntegrity reports a message insert that references a chat or user id
// absent from the store. It indicates a caller-ordering bug: chat and user
// must be upserted before the message that references them.
var ErrIntegrity = errors.New("referential integrity violation")

// InsertResult is the outcome of a message insert attempt. Duplicate is a
// normal outcome, not an error: the dedup key was already stored and no row
// changed.
type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
)

// String returns a human-readable name for logging.
func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("InsertResult(%d)", int(r))
	}
}

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertChat inserts the chat if absent, otherwise updates its mutable
	// fields and last-seen timestamp. Idempotent under identical input.
	UpsertChat(ctx context.Context, chat *Chat) error

	// UpsertUser has the same contract as UpsertChat, keyed by user id.
	UpsertUser(ctx context.Context, user *User) error

	// InsertMessage attempts to insert one message keyed by its dedup key.
	// Returns Duplicate when the key is already stored (no row changed).
	// The referenced chat and sender rows must already exist; a missing
	// reference fails with ErrIntegrity. Ingest is the combined atomic form.
	InsertMessage(ctx context.Context, message *Message) (InsertResult, error)

	// Ingest commits one message together with its chat and (optional)
	// sender as a single atomic unit: chat and user are upserted before the
	// message insert, and a duplicate dedup key rolls the whole unit back so
	// no row changes. Exactly one of any set of concurrent calls with the
	// same dedup key observes Inserted; the unique index is the arbiter.
	Ingest(ctx context.Context, chat *Chat, user *User, message *Message) (InsertResult, error)

	// CountMessagesInChat returns the number of stored messages for a chat.
	CountMessagesInChat(ctx context.Context, chatID int64) (int64, error)

	// SearchMessages returns messages whose text contains query as a
	// substring, newest first. A non-empty chatTitle scopes the search to
	// chats whose title contains it.
	SearchMessages(ctx context.Context, query, chatTitle string, limit int) ([]SearchResult, error)

	// Stats returns store-wide counters and the top-5 most active chats.
	Stats(ctx context.Context) (*Stats, error)

	// ContactInfo returns addressing fields for a stored user.
	// Returns nil, nil if the user id has never been seen.
	ContactInfo(ctx context.Context, userID int64) (*Contact, error)

	// ExportRows returns all messages joined with chat title and sender
	// username, newest first, for JSON rendering.
	ExportRows(ctx context.Context) ([]ExportRow, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const upsertChatQuery = `
    INSERT INTO chats (chat_id, title, username, chat_type, members_count, description, invite_link, first_seen, last_seen)
    VALUES (:chat_id, :title, :username, :chat_type, :members_count, :description, :invite_link, :first_seen, :last_seen)
    ON CONFLICT (chat_id) DO UPDATE SET
        title = excluded.title,
        username = excluded.username,
        chat_type = excluded.chat_type,
        members_count = excluded.members_count,
        description = excluded.description,
        invite_link = excluded.invite_link,
        last_seen = excluded.last_seen;
`

const upsertUserQuery = `
    INSERT INTO users (user_id, username, first_name, last_name, phone, is_bot, first_seen, last_seen)
    VALUES (:user_id, :username, :first_name, :last_name, :phone, :is_bot, :first_seen, :last_seen)
    ON CONFLICT (user_id) DO UPDATE SET
        username = excluded.username,
        first_name = excluded.first_name,
        last_name = excluded.last_name,
        phone = excluded.phone,
        is_bot = excluded.is_bot,
        last_seen = excluded.last_seen;
`

const insertMessageQuery = `
    INSERT INTO messages (dedup_key, message_id, chat_id, sender_id, text, date,
                          reply_to_message_id, forward_from_chat_id, media_type, created_at)
    VALUES (:dedup_key, :message_id, :chat_id, :sender_id, :text, :date,
            :reply_to_message_id, :forward_from_chat_id, :media_type, :created_at)
    ON CONFLICT (dedup_key) DO NOTHING;
`

// UpsertChat inserts or updates a chat record outside an ingest transaction.
func (s *sqlxStore) UpsertChat(ctx context.Context, chat *Chat) error {
	if chat == nil {
		return fmt.Errorf("cannot upsert nil chat")
	}
	if chat.ChatID == 0 {
		return fmt.Errorf("chat must have a non-zero chat_id")
	}

	stampChat(chat, time.Now().UTC())
	if _, err := sqlx.NamedExecContext(ctx, s.db, upsertChatQuery, chat); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting chat", "chat_id", chat.ChatID, "error", err)
		return fmt.Errorf("failed to upsert chat %d: %w", chat.ChatID, err)
	}

	s.logger.DebugContext(ctx, "Chat upserted", "chat_id", chat.ChatID)
	return nil
}

// UpsertUser inserts or updates a user record outside an ingest transaction.
func (s *sqlxStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot upsert nil user")
	}
	if user.UserID == 0 {
		return fmt.Errorf("user must have a non-zero user_id")
	}

	stampUser(user, time.Now().UTC())
	if _, err := sqlx.NamedExecContext(ctx, s.db, upsertUserQuery, user); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to upsert user %d: %w", user.UserID, err)
	}

	s.logger.DebugContext(ctx, "User upserted", "user_id", user.UserID)
	return nil
}

// InsertMessage inserts one message outside an ingest transaction. Callers
// honor the ordering contract themselves: chat and sender rows must already
// be upserted.
func (s *sqlxStore) InsertMessage(ctx context.Context, message *Message) (InsertResult, error) {
	if message == nil {
		return 0, fmt.Errorf("cannot insert nil message")
	}
	if message.DedupKey == "" {
		return 0, fmt.Errorf("message must have a non-empty dedup_key")
	}

	message.CreatedAt = time.Now().UTC()
	return s.insertMessage(ctx, s.db, message)
}

// Ingest commits chat, sender, and message in one transaction. On a duplicate
// dedup key the transaction is rolled back, leaving every row untouched.
func (s *sqlxStore) Ingest(ctx context.Context, chat *Chat, user *User, message *Message) (InsertResult, error) {
	if message == nil {
		return 0, fmt.Errorf("cannot ingest nil message")
	}
	if chat == nil {
		return 0, fmt.Errorf("cannot ingest message without its chat")
	}
	if message.DedupKey == "" {
		return 0, fmt.Errorf("message must have a non-empty dedup_key")
	}
	if message.ChatID != chat.ChatID {
		return 0, fmt.Errorf("message chat_id %d does not match chat %d", message.ChatID, chat.ChatID)
	}

	now := time.Now().UTC()
	stampChat(chat, now)
	if user != nil {
		stampUser(user, now)
	}
	message.CreatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin ingest transaction",
			"chat_id", message.ChatID, "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back ingest transaction", "error", rollbackErr)
				}
			}
		}
	}()

	// Ordering contract: chat and sender rows must exist before the message
	// insert that references them.
	if _, err := tx.NamedExecContext(ctx, upsertChatQuery, chat); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting chat during ingest", "chat_id", chat.ChatID, "error", err)
		return 0, fmt.Errorf("failed to upsert chat %d: %w", chat.ChatID, err)
	}
	if user != nil {
		if _, err := tx.NamedExecContext(ctx, upsertUserQuery, user); err != nil {
			s.logger.ErrorContext(ctx, "Error upserting user during ingest", "user_id", user.UserID, "error", err)
			return 0, fmt.Errorf("failed to upsert user %d: %w", user.UserID, err)
		}
	}

	res, err := s.insertMessage(ctx, tx, message)
	if err != nil {
		return 0, err
	}
	if res == Duplicate {
		// The deferred rollback undoes the upserts so a redelivery changes
		// nothing.
		return Duplicate, nil
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit ingest transaction",
			"chat_id", message.ChatID, "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Message ingested",
		"chat_id", message.ChatID, "message_id", message.MessageID, "db_id", message.ID)
	return Inserted, nil
}

// insertMessage runs the conflict-absorbing insert against ext, which is
// either the pool or an open ingest transaction.
func (s *sqlxStore) insertMessage(ctx context.Context, ext sqlx.ExtContext, message *Message) (InsertResult, error) {
	result, err := sqlx.NamedExecContext(ctx, ext, insertMessageQuery, message)
	if err != nil {
		if isForeignKeyViolation(err) {
			s.logger.ErrorContext(ctx, "Message references missing chat or user",
				"chat_id", message.ChatID, "sender_id", message.SenderID.Int64, "error", err)
			return 0, fmt.Errorf("%w: message %d in chat %d: %v",
				ErrIntegrity, message.MessageID, message.ChatID, err)
		}
		s.logger.ErrorContext(ctx, "Error inserting message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return 0, fmt.Errorf("failed to insert message %d in chat %d: %w",
			message.MessageID, message.ChatID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		s.logger.DebugContext(ctx, "Duplicate message skipped",
			"chat_id", message.ChatID, "message_id", message.MessageID,
			"dedup_key", message.DedupKey[:8])
		return Duplicate, nil
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		message.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after message insert",
			"chat_id", message.ChatID, "error", err)
	}
	return Inserted, nil
}

// CountMessagesInChat returns the number of stored messages for a chat.
func (s *sqlxStore) CountMessagesInChat(ctx context.Context, chatID int64) (int64, error) {
	if chatID == 0 {
		return 0, fmt.Errorf("chat_id cannot be zero")
	}

	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages in chat", "chat_id", chatID, "error", err)
		return 0, fmt.Errorf("failed to count messages for chat %d: %w", chatID, err)
	}
	return count, nil
}

// SearchMessages returns messages matching the substring query, newest first.
func (s *sqlxStore) SearchMessages(ctx context.Context, query, chatTitle string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 100
		s.logger.DebugContext(ctx, "No search limit provided, using default", "default_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	baseQuery := `
        SELECT m.message_id, m.chat_id, c.title AS chat_title,
               m.sender_id, u.username AS sender_username,
               m.text, m.date
        FROM messages m
        LEFT JOIN chats c ON m.chat_id = c.chat_id
        LEFT JOIN users u ON m.sender_id = u.user_id
        WHERE m.text LIKE ?`

	args := []any{"%" + query + "%"}
	if chatTitle != "" {
		baseQuery += ` AND c.title LIKE ?`
		args = append(args, "%"+chatTitle+"%")
	}
	baseQuery += `
        ORDER BY m.date DESC
        LIMIT ?;`
	args = append(args, limit)

	var results []SearchResult
	err := s.db.SelectContext(ctx, &results, baseQuery, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error searching messages",
			"query", query, "chat_title", chatTitle, "error", err)
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Search completed",
		"query", query, "chat_title", chatTitle, "count", len(results))
	return results, nil
}

// Stats returns store-wide counters and the top-5 most active chats.
// Messages-today is computed by date-truncating the stored message timestamp.
func (s *sqlxStore) Stats(ctx context.Context) (*Stats, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	stats := &Stats{}

	counters := []struct {
		dest  *int64
		query string
		name  string
	}{
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`, "total messages"},
		{&stats.TotalChats, `SELECT COUNT(*) FROM chats`, "total chats"},
		{&stats.TotalUsers, `SELECT COUNT(*) FROM users`, "total users"},
		{&stats.TodayMessages, `SELECT COUNT(*) FROM messages WHERE DATE(date) = DATE('now')`, "today messages"},
	}
	for _, c := range counters {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			s.logger.ErrorContext(ctx, "Error computing statistic", "statistic", c.name, "error", err)
			return nil, fmt.Errorf("failed to compute %s: %w", c.name, err)
		}
	}

	topQuery := `
        SELECT m.chat_id, c.title, COUNT(*) AS message_count
        FROM messages m
        LEFT JOIN chats c ON m.chat_id = c.chat_id
        GROUP BY m.chat_id, c.title
        ORDER BY message_count DESC
        LIMIT 5;`
	if err := s.db.SelectContext(ctx, &stats.MostActiveChats, topQuery); err != nil {
		s.logger.ErrorContext(ctx, "Error computing most active chats", "error", err)
		return nil, fmt.Errorf("failed to compute most active chats: %w", err)
	}

	return stats, nil
}

// ContactInfo returns addressing fields for a user. Returns nil, nil if the
// user id has never been seen.
func (s *sqlxStore) ContactInfo(ctx context.Context, userID int64) (*Contact, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var user User
	query := `SELECT user_id, username, first_name, last_name, phone, is_bot, first_seen, last_seen
	          FROM users WHERE user_id = ?`
	err := s.db.GetContext(ctx, &user, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No contact found", "user_id", userID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting contact info", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get contact info for user %d: %w", userID, err)
	}

	contact := &Contact{
		UserID:       user.UserID,
		FullName:     strings.TrimSpace(user.FirstName.String + " " + user.LastName.String),
		Phone:        user.Phone.String,
		TelegramLink: fmt.Sprintf("tg://user?id=%d", user.UserID),
	}
	if user.Username.Valid && user.Username.String != "" {
		contact.Username = "@" + user.Username.String
	}
	return contact, nil
}

// ExportRows returns all messages joined with chat and sender metadata,
// newest first.
func (s *sqlxStore) ExportRows(ctx context.Context) ([]ExportRow, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := `
        SELECT m.dedup_key, m.message_id, m.chat_id,
               c.title AS chat_title, c.username AS chat_username,
               m.sender_id, u.username AS sender_username,
               u.first_name AS sender_first_name, u.last_name AS sender_last_name,
               m.text, m.date, m.created_at
        FROM messages m
        LEFT JOIN chats c ON m.chat_id = c.chat_id
        LEFT JOIN users u ON m.sender_id = u.user_id
        ORDER BY m.date DESC;`

	var rows []ExportRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching export rows", "error", err)
		return nil, fmt.Errorf("failed to fetch export rows: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched export rows", "count", len(rows))
	return rows, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}

// stampChat sets the sighting timestamps before an upsert. first_seen is only
// honored on the initial insert; the conflict clause leaves it untouched.
func stampChat(chat *Chat, now time.Time) {
	if chat.FirstSeen.IsZero() {
		chat.FirstSeen = now
	}
	chat.LastSeen = now
}

func stampUser(user *User, now time.Time) {
	if user.FirstSeen.IsZero() {
		user.FirstSeen = now
	}
	user.LastSeen = now
}

// isForeignKeyViolation reports whether err is SQLite's foreign key
// constraint failure. The modernc driver surfaces it only via the message
// text.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
