package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/infodancer/chatd/internal/chat"
	"github.com/infodancer/chatd/internal/config"
	"github.com/infodancer/chatd/internal/logging"
	"github.com/infodancer/chatd/internal/metrics"
	"github.com/infodancer/chatd/internal/server"
)

func runServe(cfg config.Config) {
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		collector = metrics.NewPrometheusCollector(registry)
		metricsServer := metrics.NewPrometheusServer(registry, cfg.Metrics.Address, cfg.Metrics.Path)
		go func() {
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	coordinator := chat.New(chat.Config{
		UsersFile:       cfg.UsersFile,
		ChatLogFile:     cfg.ChatLogFile,
		PasswordHashing: cfg.Auth.PasswordHashing,
		MaxClients:      cfg.Limits.MaxClients,
		RecentMessages:  cfg.Limits.RecentMessages,
		MailboxSize:     cfg.Limits.MailboxSize,
		Collector:       collector,
		Logger:          logger,
	})

	srv := server.New(server.Config{
		Address:    cfg.ListenAddress,
		MaxClients: cfg.Limits.MaxClients,
		MaxLine:    cfg.Limits.BufferSize,
		Logger:     logger,
	})
	srv.SetHandler(coordinator.Handler())
	srv.SetDrainHook(coordinator.AnnounceShutdown)

	logger.Info("starting chatd",
		"listen", cfg.ListenAddress,
		"max_clients", cfg.Limits.MaxClients)

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	if err := coordinator.Close(); err != nil {
		logger.Error("closing chat log", "error", err)
	}

	logger.Info("chat server stopped")
}
