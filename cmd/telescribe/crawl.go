package main

import (
	"errors"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/mhrezaei/telescribe/internal/app"
	"github.com/mhrezaei/telescribe/internal/crawler"
	"github.com/mhrezaei/telescribe/internal/export"
	"github.com/mhrezaei/telescribe/internal/ingest"
	"github.com/mhrezaei/telescribe/internal/logger"
	"github.com/mhrezaei/telescribe/internal/source"
	"github.com/mhrezaei/telescribe/internal/tasks"
	"github.com/mhrezaei/telescribe/internal/telegram"
)

func newCrawlCmd() *cobra.Command {
	var historyPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Backfill history from a dump, then monitor live messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			var walker *crawler.Walker
			pipeline := ingest.NewPipeline(e.store, e.log)

			if historyPath != "" {
				src, err := source.NewFileSource(historyPath, e.log)
				if err != nil {
					return err
				}
				cfg := walkerConfig(e, limit)
				walker = crawler.NewWalker(src, pipeline, e.store, cfg, e.log)
			} else {
				e.log.Info("No history dump given, running live monitoring only")
			}

			return runArchiver(cmd, e, pipeline, walker)
		},
	}
	cmd.Flags().StringVar(&historyPath, "history", "", "Path to a JSON history dump to backfill from")
	cmd.Flags().IntVar(&limit, "limit", 0, "Override messages-per-chat backfill limit")
	return cmd
}

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Monitor live group/channel messages only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			pipeline := ingest.NewPipeline(e.store, e.log)
			return runArchiver(cmd, e, pipeline, nil)
		},
	}
}

func walkerConfig(e *env, limitOverride int) crawler.Config {
	cfg := crawler.Config{
		MessagesPerChat: e.cfg.Crawler.MessagesPerChat,
		PageSize:        e.cfg.Crawler.PageSize,
		ChatDelay:       e.cfg.Crawler.ChatDelay,
	}
	if limitOverride > 0 {
		cfg.MessagesPerChat = limitOverride
	}
	return cfg
}

// runArchiver wires the live listener, scheduler, and optional walker into
// the orchestrator and blocks until the command context is cancelled.
func runArchiver(cmd *cobra.Command, e *env, pipeline *ingest.Pipeline, walker *crawler.Walker) error {
	if e.cfg.Telegram.Token == "" {
		return errors.New("telegram.token must be set for live monitoring")
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(e.log)),
		tgbot.WithDefaultHandler(telegram.NewLiveHandler(pipeline, e.log)),
	}
	tg, err := telegram.NewTelegramBot(e.cfg.Telegram.Token, e.log, botOpts...)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(e.store, e.log)
	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   e.log,
		Store:    e.store,
		Exporter: exporter,
		Config:   e.cfg,
	})
	sched, err := app.NewScheduler(e.log, &e.cfg.Scheduler, taskMap)
	if err != nil {
		return err
	}

	archiver := app.NewApp(e.log, tg, sched, walker)
	if err := archiver.Run(cmd.Context()); err != nil {
		return fmt.Errorf("archiver stopped: %w", err)
	}
	return nil
}
