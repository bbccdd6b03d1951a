package tasks

import (
	"context"
	"fmt"
	"time"
)

// newExportSnapshotTask creates the scheduled task writing a periodic JSON
// snapshot of the archive to the configured export path.
func newExportSnapshotTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "export_snapshot")

	return func(ctx context.Context) error {
		path := deps.Config.Export.Path
		log.InfoContext(ctx, "Starting scheduled export snapshot...", "path", path)
		startTime := time.Now()

		if err := deps.Exporter.WriteFile(ctx, path); err != nil {
			log.ErrorContext(ctx, "Export snapshot task failed", "error", err)
			return fmt.Errorf("export snapshot failed: %w", err)
		}

		log.InfoContext(ctx, "Export snapshot completed", "path", path, "duration", time.Since(startTime))
		return nil
	}
}
