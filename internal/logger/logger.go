package logger

import (
	"log/slog"
	"os"
)

// Init sets up the process-wide slog default. Debug switches the level;
// callers log through the slog package directly.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
