// Package logging provides leveled logging and the run event log for countconf.
//
// Operational messages go to a slog.Logger on stderr. At debug and trace
// level each simulation run also leaves a trail of typed RunEvent records in
// ~/.countconf/events.jsonl (see EventLogger).
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is a custom slog level below Debug for per-slice progress logging.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a level name ("info", "debug", "trace", any case) to a
// slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// verbose reports whether level enables the run event log.
func verbose(level string) bool {
	return ParseLevel(level) < slog.LevelInfo
}

// NewLogger creates a leveled text logger writing to w. Records at
// LevelTrace are labelled TRACE.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: labelTrace,
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func labelTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
