// internal/infra/logger/logger.go
package logger

import (
	"os"

	"daily_insight_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Subsystems derive component-scoped entries
// from it via Component rather than configuring their own instances.
var Log = logrus.New()

// Init applies level and format from configuration. Deployed environments
// emit JSON for the log aggregator; everything else gets a readable text
// format for a terminal.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		Log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}
	Log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized")
}

// Get returns the configured global logger.
func Get() *logrus.Logger {
	return Log
}

// Component returns an entry tagged with the subsystem name. All packages in
// this codebase log through such entries so runs can be filtered per subsystem.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
