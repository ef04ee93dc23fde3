// Command server runs the taskboard HTTP API.
//
// The main function does as little as possible: read configuration, build
// a logger, hand both to the server package, and translate failure into an
// exit code. Everything interesting lives under internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// The SQLite file lives in a subdirectory (data/ by default); create it
	// so a fresh checkout starts without manual setup. ":memory:" needs none.
	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// parseLogLevel maps the LOG_LEVEL setting onto slog levels. Unknown
// values fall back to info rather than failing startup.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
