package cli

import (
	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/config"
)

// initLogging configures the global logger from the loaded settings.
// Log lines always go to stderr so command output on stdout stays parseable.
func initLogging(cfg *config.Config) {
	format := logger.FormatText
	if cfg.Settings.OutputFormat == "json" {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)
}
