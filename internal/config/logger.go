package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string
	Format     string // "json" or "console"
	File       string // optional; rotated with lumberjack when set
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Output     io.Writer // defaults to os.Stderr
}

// LoggerConfigFrom assembles logger settings from the loaded configuration
func LoggerConfigFrom(cfg *Config) LoggerConfig {
	return LoggerConfig{
		Level:      cfg.App.LogLevel,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
}

// Setup initializes the global logger from a full LoggerConfig and returns
// the closer of the rotated log file, if any.
func Setup(lc LoggerConfig) io.Closer {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Results go to stdout; logs stay on stderr
	var console io.Writer = os.Stderr
	if lc.Output != nil {
		console = lc.Output
	}
	if lc.Format == "console" {
		console = zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
			NoColor:    lc.Output != nil && lc.Output != io.Writer(os.Stderr),
		}
	}

	output := console
	var closer io.Closer
	if lc.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		output = zerolog.MultiLevelWriter(console, rotated)
		closer = rotated
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()

	log.Debug().
		Str("level", logLevel.String()).
		Str("format", lc.Format).
		Str("file", lc.File).
		Msg("Logger initialized")

	return closer
}

// NewLogger creates a new logger with a component name
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewRunLogger creates a component logger tagged with an evolution run ID
func NewRunLogger(component, runID string) zerolog.Logger {
	return NewLogger(component).With().Str("run_id", runID).Logger()
}
