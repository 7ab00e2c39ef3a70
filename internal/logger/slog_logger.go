package logger

import (
	"io"
	"log/slog"
	"time"
)

// NewSlogLogger returns a Logger writing JSON lines to w at the given level.
// It is meant for tests and small tools; production code goes through
// CentralLogger.Module.
//
//	var buf bytes.Buffer
//	log := logger.NewSlogLogger(&buf, logger.LogLevelDebug, time.UTC)
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = io.Discard
	}
	lvl := parseLogLevel(string(level))
	return &moduleLogger{
		logger:   slog.New(newJSONHandler(w, lvl, tz)),
		level:    lvl,
		timezone: tz,
	}
}
