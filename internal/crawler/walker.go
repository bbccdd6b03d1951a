// Package crawler implements the backfill walker: bounded historical
// pagination of existing messages per chat, fed through the ingestion
// pipeline with inter-chat pacing.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mhrezaei/telescribe/internal/database"
	"github.com/mhrezaei/telescribe/internal/ingest"
)

// Config holds the backfill pass-through configuration values.
type Config struct {
	// MessagesPerChat caps how many messages are walked per chat,
	// most recent first. <= 0 means no cap.
	MessagesPerChat int
	// PageSize is the history page size requested from the source.
	PageSize int
	// ChatDelay is the pacing delay applied between chats to respect
	// transport rate limits.
	ChatDelay time.Duration
}

// ChatResult summarizes one chat's walk. Err is set when the source failed
// for this chat after its own retry policy; sibling chats are unaffected.
type ChatResult struct {
	ChatID    int64
	Title     string
	Walked    int
	Inserted  int
	Duplicate int
	Skipped   int
	Err       error
}

// Summary aggregates a whole backfill run.
type Summary struct {
	RunID    string
	Chats    []ChatResult
	Inserted int
	Failed   int
}

// ChatUpserter is the slice of the store the walker needs to register a
// dialog before walking its messages. database.Store satisfies it.
type ChatUpserter interface {
	UpsertChat(ctx context.Context, chat *database.Chat) error
}

// Walker paginates the message history of each dialog backward from the most
// recent message and pushes every record through the ingestion pipeline.
type Walker struct {
	source   ingest.Source
	pipeline *ingest.Pipeline
	store    ChatUpserter
	cfg      Config
	logger   *slog.Logger
}

// NewWalker creates a backfill walker over the given history source.
func NewWalker(source ingest.Source, pipeline *ingest.Pipeline, store ChatUpserter, cfg Config, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Walker{
		source:   source,
		pipeline: pipeline,
		store:    store,
		cfg:      cfg,
		logger:   logger.With("component", "walker"),
	}
}

// Run walks every dialog once. A failing chat is recorded in the summary and
// does not abort its siblings; only context cancellation stops the run early.
func (w *Walker) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	log := w.logger.With("run_id", runID)

	dialogs, err := w.source.Dialogs(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list dialogs", "error", err)
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}
	log.InfoContext(ctx, "Starting backfill", "chats", len(dialogs))

	summary := &Summary{RunID: runID}
	for i, dialog := range dialogs {
		if ctx.Err() != nil {
			log.WarnContext(ctx, "Backfill cancelled", "chats_done", i)
			return summary, ctx.Err()
		}

		log.InfoContext(ctx, "Walking chat",
			"position", fmt.Sprintf("%d/%d", i+1, len(dialogs)),
			"chat_id", dialog.ID, "title", dialog.Title)

		result := w.walkChat(ctx, dialog)
		summary.Chats = append(summary.Chats, result)
		summary.Inserted += result.Inserted
		if result.Err != nil {
			summary.Failed++
			log.ErrorContext(ctx, "Chat walk failed",
				"chat_id", dialog.ID, "title", dialog.Title, "error", result.Err)
		} else {
			log.InfoContext(ctx, "Chat walk finished",
				"chat_id", dialog.ID, "walked", result.Walked,
				"inserted", result.Inserted, "duplicate", result.Duplicate)
		}

		if w.cfg.ChatDelay > 0 && i < len(dialogs)-1 {
			if err := sleepContext(ctx, w.cfg.ChatDelay); err != nil {
				return summary, err
			}
		}
	}

	log.InfoContext(ctx, "Backfill complete",
		"chats", len(summary.Chats), "inserted", summary.Inserted, "failed", summary.Failed)
	return summary, nil
}

// walkChat pages backward through one chat until the history is exhausted or
// the per-chat message cap is reached.
func (w *Walker) walkChat(ctx context.Context, dialog ingest.RawChat) ChatResult {
	result := ChatResult{ChatID: dialog.ID, Title: dialog.Title}

	// The chat row must exist before any message referencing it; the
	// per-message ingest transaction re-upserts it with fresher metadata.
	if err := w.store.UpsertChat(ctx, ingest.NormalizeChat(dialog)); err != nil {
		result.Err = fmt.Errorf("failed to upsert chat: %w", err)
		return result
	}

	var offsetID int64
	for {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}

		pageSize := w.cfg.PageSize
		if w.cfg.MessagesPerChat > 0 {
			if remaining := w.cfg.MessagesPerChat - result.Walked; remaining < pageSize {
				pageSize = remaining
			}
		}
		if pageSize <= 0 {
			return result
		}

		page, nextOffset, err := w.source.HistoryPage(ctx, dialog.ID, offsetID, pageSize)
		if err != nil {
			result.Err = fmt.Errorf("failed to fetch history page: %w", err)
			return result
		}

		for _, raw := range page {
			res, err := w.pipeline.Ingest(ctx, raw)
			if err != nil {
				// Integrity failures point at an ordering bug; retrying the
				// same record blindly would repeat it.
				if errors.Is(err, database.ErrIntegrity) {
					result.Err = err
					return result
				}
				result.Err = fmt.Errorf("failed to ingest message %d: %w", raw.MessageID, err)
				return result
			}
			result.Walked++
			switch res {
			case ingest.ResultInserted:
				result.Inserted++
			case ingest.ResultDuplicate:
				result.Duplicate++
			case ingest.ResultSkipped:
				result.Skipped++
			}
		}

		if nextOffset == 0 || len(page) == 0 {
			return result
		}
		if w.cfg.MessagesPerChat > 0 && result.Walked >= w.cfg.MessagesPerChat {
			return result
		}
		offsetID = nextOffset
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
