package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhrezaei/telescribe/internal/crawler"
	"github.com/mhrezaei/telescribe/internal/ingest"
	"github.com/mhrezaei/telescribe/internal/source"
)

func newImportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "import <history.json>",
		Short: "Backfill the archive from a JSON history dump and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			src, err := source.NewFileSource(args[0], e.log)
			if err != nil {
				return err
			}

			pipeline := ingest.NewPipeline(e.store, e.log)
			walker := crawler.NewWalker(src, pipeline, e.store, walkerConfig(e, limit), e.log)

			summary, err := walker.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("backfill failed: %w", err)
			}

			fmt.Printf("Backfill %s: %d chats walked, %d new messages, %d failed chats\n",
				summary.RunID, len(summary.Chats), summary.Inserted, summary.Failed)
			for _, chat := range summary.Chats {
				status := "ok"
				if chat.Err != nil {
					status = chat.Err.Error()
				}
				fmt.Printf("  %s (%d): walked=%d inserted=%d duplicate=%d skipped=%d [%s]\n",
					chat.Title, chat.ChatID, chat.Walked, chat.Inserted, chat.Duplicate, chat.Skipped, status)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Override messages-per-chat backfill limit")
	return cmd
}
