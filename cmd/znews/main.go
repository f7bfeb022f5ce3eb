package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"znews/internal/app"
	"znews/internal/config"
	"znews/internal/logger"
	"znews/internal/monitor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if cfg == nil {
		// Help was printed.
		return
	}

	logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EnableMonitoring {
		srv := monitor.NewServer(cfg.OutputPath)
		go func() {
			slog.Info("monitoring server listening", "port", cfg.MonitoringPort)
			if err := srv.Start(cfg.MonitoringPort); err != nil {
				slog.Error("monitoring server stopped", "error", err)
			}
		}()
	}

	if err := app.Run(ctx, cfg); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
