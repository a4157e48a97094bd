package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"articlegen/internal/config"
	"articlegen/internal/host"
	"articlegen/internal/notify"
	"articlegen/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	balance, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		logger.Error("load balance failed", "err", err)
		os.Exit(1)
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("store open failed", "kind", cfg.Store.Kind, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	sink, err := notify.Build(ctx, cfg.Notify, logger)
	if err != nil {
		logger.Error("notify setup failed", "err", err)
		os.Exit(1)
	}

	h := host.New(host.Options{
		Store:         st,
		Balance:       balance,
		Sink:          sink,
		Logger:        logger,
		TickEvery:     cfg.TickEvery,
		AutoSaveEvery: cfg.AutoSaveEvery,
	})

	// Opening the slot credits the time since its last save.
	if _, err := h.Open(ctx, cfg.Slot); err != nil {
		logger.Error("open slot failed", "slot", cfg.Slot, "err", err)
		os.Exit(1)
	}

	if cfg.RunOnce {
		if err := h.Flush(ctx); err != nil {
			logger.Error("save failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "slot", cfg.Slot)
		return
	}

	logger.Info("worker started", "slot", cfg.Slot, "tick_every", cfg.TickEvery.String())
	if err := h.Run(ctx); err != nil {
		logger.Error("worker stopped with error", "err", err)
		os.Exit(1)
	}
	logger.Info("worker shutdown")
}
