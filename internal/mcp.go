package internal

import (
	"log/slog"
	"os"

	"github.com/example/daygap/internal/backfill"
	"github.com/example/daygap/internal/mcpserver"
)

// RunMCP serves the daily note tools over stdio. Logs go to stderr
// because stdout belongs to the protocol.
func RunMCP(cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	core, err := openCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	notify := func(msg string) {
		logger.Info("notice", slog.String("message", msg))
	}
	svc := backfill.NewService(core.vault, core.hist, notify, logger)

	return mcpserver.New(core.vault, svc).ServeStdio()
}
