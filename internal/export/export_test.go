package export_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mhrezaei/telescribe/internal/database"
	"github.com/mhrezaei/telescribe/internal/export"
)

type stubRows struct {
	rows []database.ExportRow
	err  error
}

func (s *stubRows) ExportRows(_ context.Context) ([]database.ExportRow, error) {
	return s.rows, s.err
}

func sampleRows() []database.ExportRow {
	date := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return []database.ExportRow{
		{
			DedupKey:        "abc123",
			MessageID:       1,
			ChatID:          100,
			ChatTitle:       sql.NullString{String: "Team", Valid: true},
			SenderID:        sql.NullInt64{Int64: 7, Valid: true},
			SenderUsername:  sql.NullString{String: "alice", Valid: true},
			SenderFirstName: sql.NullString{String: "Alice", Valid: true},
			SenderLastName:  sql.NullString{String: "Doe", Valid: true},
			Text:            "hello",
			Date:            date,
			CreatedAt:       date,
		},
		{
			DedupKey:  "def456",
			MessageID: 2,
			ChatID:    200,
			ChatTitle: sql.NullString{String: "News", Valid: true},
			Text:      "channel post",
			Date:      date,
			CreatedAt: date,
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	payload := export.Render(sampleRows())

	if payload.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", payload.TotalMessages)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(payload.Messages))
	}
	if _, err := time.Parse(time.RFC3339, payload.ExportDate); err != nil {
		t.Errorf("ExportDate %q is not RFC3339: %v", payload.ExportDate, err)
	}

	first := payload.Messages[0]
	if first.Hash != "abc123" {
		t.Errorf("Hash = %q, want abc123", first.Hash)
	}
	if first.SenderID == nil || *first.SenderID != 7 {
		t.Errorf("SenderID = %v, want 7", first.SenderID)
	}
	if first.SenderName != "Alice Doe" {
		t.Errorf("SenderName = %q, want 'Alice Doe'", first.SenderName)
	}
	if first.Date != "2026-08-20T10:00:00Z" {
		t.Errorf("Date = %q, want RFC3339 UTC", first.Date)
	}

	second := payload.Messages[1]
	if second.SenderID != nil {
		t.Errorf("senderless row got SenderID %v, want nil", second.SenderID)
	}
	if second.SenderUsername != nil {
		t.Errorf("senderless row got SenderUsername %v, want nil", second.SenderUsername)
	}
	if second.SenderName != "" {
		t.Errorf("senderless row got SenderName %q, want empty", second.SenderName)
	}
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()

	payload := export.Render(nil)
	if payload.TotalMessages != 0 {
		t.Errorf("TotalMessages = %d, want 0", payload.TotalMessages)
	}
	if payload.Messages == nil {
		t.Error("Messages must render as [] not null")
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "export.json")
	exporter := export.NewExporter(&stubRows{rows: sampleRows()}, nil)

	if err := exporter.WriteFile(context.Background(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var payload export.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if payload.TotalMessages != 2 || len(payload.Messages) != 2 {
		t.Errorf("round-tripped payload wrong: total=%d messages=%d",
			payload.TotalMessages, len(payload.Messages))
	}
}

func TestWriteFile_PropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("store unavailable")
	exporter := export.NewExporter(&stubRows{err: wantErr}, nil)

	err := exporter.WriteFile(context.Background(), filepath.Join(t.TempDir(), "export.json"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped source error", err)
	}
}
