package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mhrezaei/telescribe/internal/export"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print archive statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			stats, err := e.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Total messages: %d\n", stats.TotalMessages)
			fmt.Printf("Total chats:    %d\n", stats.TotalChats)
			fmt.Printf("Total users:    %d\n", stats.TotalUsers)
			fmt.Printf("Messages today: %d\n", stats.TodayMessages)
			fmt.Println("Most active chats:")
			for _, chat := range stats.MostActiveChats {
				title := chat.Title.String
				if title == "" {
					title = strconv.FormatInt(chat.ChatID, 10)
				}
				fmt.Printf("  - %s: %d messages\n", title, chat.MessageCount)
			}
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var chatTitle string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored messages by substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			if limit <= 0 {
				limit = e.cfg.Search.Limit
			}
			results, err := e.store.SearchMessages(cmd.Context(), args[0], chatTitle, limit)
			if err != nil {
				return err
			}

			fmt.Printf("%d result(s) for %q\n", len(results), args[0])
			for _, r := range results {
				sender := r.SenderUsername.String
				if sender == "" {
					sender = "unknown"
				}
				fmt.Printf("[%s] %s / %s: %s\n",
					r.Date.Format("2006-01-02 15:04"), r.ChatTitle.String, sender, r.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chatTitle, "chat", "", "Scope the search to chats whose title contains this")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (default from config)")
	return cmd
}

func newContactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contact <user-id>",
		Short: "Look up contact info for a stored user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			contact, err := e.store.ContactInfo(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if contact == nil {
				fmt.Printf("User %d has never been seen\n", userID)
				return nil
			}

			fmt.Printf("User ID:  %d\n", contact.UserID)
			fmt.Printf("Username: %s\n", contact.Username)
			fmt.Printf("Name:     %s\n", contact.FullName)
			fmt.Printf("Phone:    %s\n", contact.Phone)
			fmt.Printf("Link:     %s\n", contact.TelegramLink)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the archive as a JSON document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			if outPath == "" {
				outPath = e.cfg.Export.Path
			}
			exporter := export.NewExporter(e.store, e.log)
			if err := exporter.WriteFile(cmd.Context(), outPath); err != nil {
				return err
			}
			fmt.Printf("Archive exported to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default from config)")
	return cmd
}
