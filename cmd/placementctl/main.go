// Command placementctl runs placement desk operations from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ganot/placement-desk/internal/app"
	"github.com/ganot/placement-desk/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(func(ctx context.Context) (*app.App, func() error, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			level = slog.LevelInfo
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		desk, err := app.Build(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return desk, desk.Close, nil
	})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
