package tasks

import (
	"context"
	"fmt"
)

// newStatsReportTask creates the scheduled task logging store-wide counters,
// giving a periodic view of archive growth without querying by hand.
func newStatsReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "stats_report")

	return func(ctx context.Context) error {
		stats, err := deps.Store.Stats(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Stats report task failed", "error", err)
			return fmt.Errorf("stats report failed: %w", err)
		}

		log.InfoContext(ctx, "Archive statistics",
			"total_messages", stats.TotalMessages,
			"total_chats", stats.TotalChats,
			"total_users", stats.TotalUsers,
			"today_messages", stats.TodayMessages)

		for _, chat := range stats.MostActiveChats {
			log.DebugContext(ctx, "Most active chat",
				"chat_id", chat.ChatID, "title", chat.Title.String, "message_count", chat.MessageCount)
		}
		return nil
	}
}
