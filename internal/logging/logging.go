// Package logging configures zerolog for the process.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Console output goes to stderr in
// human-readable form; when logFile is non-empty, JSON lines are appended
// there as well. Returns the configured logger.
func Setup(verbose bool, logFile string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if logFile != "" {
		if f, err := openLogFile(logFile); err == nil {
			writer = zerolog.MultiLevelWriter(writer, f)
		}
		// a log file that cannot be opened is not worth failing startup over
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
