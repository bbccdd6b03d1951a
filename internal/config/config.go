// Package config manages application configuration from environment
// variables, config.yaml, and default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath = "telescribe.db"

	DefaultMessagesPerChat = 1000
	DefaultPageSize        = 100
	DefaultChatDelay       = time.Second

	DefaultSearchLimit = 100
	DefaultExportPath  = "telescribe_export.json"
)

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the live transport credentials.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// CrawlerConfig holds the backfill pass-through values.
type CrawlerConfig struct {
	MessagesPerChat int           `mapstructure:"messages_per_chat" validate:"min=0"`
	PageSize        int           `mapstructure:"page_size"         validate:"min=1,max=1000"`
	ChatDelay       time.Duration `mapstructure:"chat_delay"        validate:"min=0"`
}

// SearchConfig holds the query layer defaults.
type SearchConfig struct {
	Limit int `mapstructure:"limit" validate:"min=1,max=10000"`
}

// ExportConfig holds the JSON export settings.
type ExportConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Config defines the application configuration. Values can be set via
// environment variables prefixed with TSCRIBE_ (e.g., TSCRIBE_TELEGRAM_TOKEN)
// or through config.yaml.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Search    SearchConfig    `mapstructure:"search"`
	Export    ExportConfig    `mapstructure:"export"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoadConfig loads and validates configuration from defaults, the given
// config file, and TSCRIBE_* environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults plus env cover the full surface.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	// Registering the key is what lets AutomaticEnv surface it to Unmarshal.
	v.SetDefault("telegram.token", "")

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("crawler.messages_per_chat", DefaultMessagesPerChat)
	v.SetDefault("crawler.page_size", DefaultPageSize)
	v.SetDefault("crawler.chat_delay", DefaultChatDelay)

	v.SetDefault("search.limit", DefaultSearchLimit)

	v.SetDefault("export.path", DefaultExportPath)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")
	v.SetDefault("scheduler.tasks.export_snapshot.enabled", false)
	v.SetDefault("scheduler.tasks.export_snapshot.schedule", "0 0 * * * *")
	v.SetDefault("scheduler.tasks.stats_report.enabled", true)
	v.SetDefault("scheduler.tasks.stats_report.schedule", "0 0 * * * *")
}
