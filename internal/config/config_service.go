package config

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"barrierfree.app/internal/report"
	"barrierfree.app/internal/utils"
)

// ConfigService holds dependencies and provides config operations.
type ConfigService struct {
	Logger *slog.Logger
	Config *Config
	Getenv func(string) string
}

// NewConfigService creates a new ConfigService instance.
func NewConfigService(logger *slog.Logger, config *Config) *ConfigService {
	return &ConfigService{
		Logger: logger,
		Config: config,
		Getenv: os.Getenv,
	}
}

// RefreshConfig reloads the file at path every interval and applies it to
// the live Config. onReload, if set, runs after each successful reload.
// It blocks until ctx is cancelled.
func (cs *ConfigService) RefreshConfig(ctx context.Context, path string, interval time.Duration, onReload func(*Config)) {
	refreshConfig(ctx, path, cs.Config, cs.Getenv, cs.Logger, interval, onReload)
}

// refreshConfig periodically reloads configuration from a file and updates
// the live configuration.
//
// Errors during read, parse or validation are logged and reported to Sentry,
// and the previous configuration stays in effect. The loop keeps running
// until the context is canceled.
func refreshConfig(ctx context.Context, path string, cfg *Config, getenv func(string) string, logger *slog.Logger, interval time.Duration, onReload func(*Config)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping config refresh routine")
			return
		case <-ticker.C:
			next, err := Load(path, getenv)
			if err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags:  utils.MakeMap("file_path", path),
					Level: sentry.LevelError,
				})
				logger.Error("Failed to refresh config", "error", err)
				continue
			}
			cfg.Update(next)
			logger.Info("Successfully refreshed configuration", "config", cfg.String())
			if onReload != nil {
				onReload(cfg)
			}
		}
	}
}
