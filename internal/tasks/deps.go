// Package tasks implements the scheduled background tasks of the archiver:
// database maintenance, periodic export snapshots, and statistics reporting.
package tasks

import (
	"log/slog"

	"github.com/mhrezaei/telescribe/internal/config"
	"github.com/mhrezaei/telescribe/internal/database"
	"github.com/mhrezaei/telescribe/internal/export"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Exporter *export.Exporter
	Config   *config.Config
}
