package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articlegen/internal/api"
	"articlegen/internal/auth"
	"articlegen/internal/config"
	"articlegen/internal/host"
	"articlegen/internal/notify"
	"articlegen/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.LoadAPIFromEnv()
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
	verifier, err := auth.NewTokenVerifier(cfg.TokenHash)
	if err != nil {
		logger.Error("token hash invalid", "err", err)
		os.Exit(1)
	}
	if verifier == nil {
		logger.Warn("ARTICLEGEN_API_TOKEN_HASH not set, api is unauthenticated")
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
	hostDone := make(chan error, 1)
	go func() { hostDone <- h.Run(ctx) }()

	server := api.New(cfg, logger, verifier, h)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("articlegen api listening", "addr", cfg.Addr, "store", cfg.Store.Kind)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		stop()
		<-hostDone
		os.Exit(1)
	}
	if err := <-hostDone; err != nil {
		logger.Error("final save failed", "err", err)
		os.Exit(1)
	}
}
