package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/V4T54L/waste-watch/internal/adapter/pii"
)

// New returns a JSON logger at the given level. Attributes named in
// redactFields are replaced and email attributes are masked.
func New(level string, redactFields []string) *slog.Logger {
	redactor := pii.NewRedactor(redactFields)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: redactor.ReplaceAttr,
	})
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
