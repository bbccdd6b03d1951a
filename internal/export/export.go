// Package export renders committed message rows as a JSON document, joined
// with chat title and sender metadata.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mhrezaei/telescribe/internal/database"
)

// RowSource supplies the ordered, already-joined rows to render.
// database.Store satisfies it.
type RowSource interface {
	ExportRows(ctx context.Context) ([]database.ExportRow, error)
}

// Entry is one exported message.
type Entry struct {
	Hash           string  `json:"hash"`
	MessageID      int64   `json:"message_id"`
	ChatID         int64   `json:"chat_id"`
	ChatTitle      *string `json:"chat_title"`
	ChatUsername   *string `json:"chat_username"`
	SenderID       *int64  `json:"sender_id"`
	SenderUsername *string `json:"sender_username"`
	SenderName     string  `json:"sender_name"`
	Text           string  `json:"text"`
	Date           string  `json:"date"`
	CreatedAt      string  `json:"created_at"`
}

// Payload is the full export document.
type Payload struct {
	ExportDate    string  `json:"export_date"`
	TotalMessages int     `json:"total_messages"`
	Messages      []Entry `json:"messages"`
}

// Exporter writes JSON snapshots of the archive.
type Exporter struct {
	rows   RowSource
	logger *slog.Logger
}

// NewExporter creates an exporter reading from the given row source.
func NewExporter(rows RowSource, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{
		rows:   rows,
		logger: logger.With("component", "exporter"),
	}
}

// WriteFile renders all committed messages into a JSON file at path.
func (e *Exporter) WriteFile(ctx context.Context, path string) error {
	rows, err := e.rows.ExportRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch export rows: %w", err)
	}

	payload := Render(rows)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			e.logger.WarnContext(ctx, "Error closing export file", "path", path, "error", closeErr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode export payload: %w", err)
	}

	e.logger.InfoContext(ctx, "Export written", "path", path, "messages", payload.TotalMessages)
	return nil
}

// Render converts store rows to the export document.
func Render(rows []database.ExportRow) Payload {
	payload := Payload{
		ExportDate:    time.Now().UTC().Format(time.RFC3339),
		TotalMessages: len(rows),
		Messages:      make([]Entry, 0, len(rows)),
	}

	for _, row := range rows {
		entry := Entry{
			Hash:           row.DedupKey,
			MessageID:      row.MessageID,
			ChatID:         row.ChatID,
			ChatTitle:      nullableString(row.ChatTitle.Valid, row.ChatTitle.String),
			ChatUsername:   nullableString(row.ChatUsername.Valid, row.ChatUsername.String),
			SenderUsername: nullableString(row.SenderUsername.Valid, row.SenderUsername.String),
			SenderName:     strings.TrimSpace(row.SenderFirstName.String + " " + row.SenderLastName.String),
			Text:           row.Text,
			Date:           row.Date.UTC().Format(time.RFC3339),
			CreatedAt:      row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if row.SenderID.Valid {
			id := row.SenderID.Int64
			entry.SenderID = &id
		}
		payload.Messages = append(payload.Messages, entry)
	}

	return payload
}

func nullableString(valid bool, s string) *string {
	if !valid {
		return nil
	}
	return &s
}
