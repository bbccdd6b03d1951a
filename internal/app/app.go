// Package app orchestrates the archiver's long-running components: the live
// Telegram listener, the scheduled tasks, and an optional initial backfill.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/mhrezaei/telescribe/internal/crawler"
)

// App runs the live listener and scheduler until the context is cancelled.
// When a walker is present, the backfill runs first in its own goroutine;
// its per-chat failures never stop the live stream.
type App struct {
	logger    *slog.Logger
	tgBot     *tgbot.Bot
	scheduler *Scheduler
	walker    *crawler.Walker
}

// NewApp creates the orchestrator. walker may be nil for monitor-only runs.
func NewApp(logger *slog.Logger, tgBot *tgbot.Bot, scheduler *Scheduler, walker *crawler.Walker) *App {
	return &App{
		logger:    logger.With("component", "app"),
		tgBot:     tgBot,
		scheduler: scheduler,
		walker:    walker,
	}
}

// Run starts all components, handling graceful shutdown on context
// cancellation. It returns an error if any component fails during startup or
// execution.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting archiver...")

	g, gCtx := errgroup.WithContext(ctx)

	if a.tgBot != nil {
		g.Go(func() error {
			a.logger.Info("Starting Telegram listener...")

			a.tgBot.Start(gCtx)
			a.logger.Info("Telegram listener stopped.")

			if gCtx.Err() == nil {
				a.logger.Warn("Telegram listener stopped unexpectedly without context cancellation.")
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	if a.walker != nil {
		g.Go(func() error {
			summary, err := a.walker.Run(gCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				// Backfill trouble is reported per chat; the live stream and
				// scheduler keep running regardless.
				a.logger.Error("Backfill finished with error", "error", err)
				return nil
			}
			if summary != nil {
				a.logger.Info("Backfill summary",
					"run_id", summary.RunID,
					"chats", len(summary.Chats),
					"inserted", summary.Inserted,
					"failed_chats", summary.Failed)
			}
			return nil
		})
	}

	a.logger.Info("Archiver running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Archiver stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Archiver stopped gracefully.")
	return nil
}
