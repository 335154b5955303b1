package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Creates the logger used as the default slog handler.
func New(w io.Writer, prefix string, level slog.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  log.Level(level),
	})
}

// Returns the level selected by the debug and quiet switches. Debug wins.
func Level(debug, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Applies the final level and verbosity to logger.
func Configure(logger *log.Logger, level slog.Level, verbose bool) {
	logger.SetLevel(log.Level(level))
	logger.SetReportTimestamp(verbose)
	logger.SetReportCaller(verbose)
}
