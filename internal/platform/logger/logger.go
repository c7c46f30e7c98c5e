package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Production gets JSON output for log
// shipping; anything else gets the text handler for readability.
func New(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
