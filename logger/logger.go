package logger

import (
	"log/slog"
	"os"
)

// InitLogger installs the global logger.
// JSON handler writing to stdout, debug level and up.
func InitLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
