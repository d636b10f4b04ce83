package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"atomsi/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run schedulers (proposal finalizer, reputation retry, Redis forwarding).
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	app, err := bootstrap.BuildWorker(ctx)
	if err != nil {
		logger.Error("bootstrap worker failed",
			"event", "bootstrap_worker_failed",
			"module", "cmd/worker",
			"layer", "platform",
			"error", err.Error(),
		)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("worker shutdown close failed",
				"event", "worker_close_failed",
				"module", "cmd/worker",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("worker stopped with error",
			"event", "worker_stopped",
			"module", "cmd/worker",
			"layer", "platform",
			"error", err.Error(),
		)
		stop()
		os.Exit(1)
	}
}
