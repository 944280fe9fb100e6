package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devlaiger/taskflow/config"
	"github.com/devlaiger/taskflow/engine"
	"github.com/devlaiger/taskflow/transport"
)

// RunServerCmd starts the HTTP server.
type RunServerCmd struct {
	Host   string `help:"Host to listen on (overrides config)."`
	Port   int    `help:"Port to listen on (overrides config)."`
	Reload bool   `help:"Watch the config file and hot-reload engine tuning on change."`
}

func (c *RunServerCmd) Run(cli *CLI, cfg *config.Config) error {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	tools, agents, err := newBuiltinRegistries()
	if err != nil {
		return fmt.Errorf("failed to build registries: %w", err)
	}

	metrics := transport.NewMetrics()
	eng := engine.New(agents,
		engine.WithBackoff(cfg.Engine.BackoffBase(), cfg.Engine.BackoffCap()),
		engine.WithHistoryLimit(cfg.Engine.HistoryLimit),
		engine.WithAttemptRecorder(metrics),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := transport.InitTracer(ctx, "taskflow"); err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := transport.NewServer(addr, eng, agents, tools, metrics)

	if c.Reload {
		if cli.Config == "" {
			slog.Warn("--reload requested but no --config path given; live reload disabled")
		} else {
			closer, err := config.Watch(cli.Config, func(newCfg *config.Config, err error) {
				if err != nil {
					slog.Error("config reload failed", "error", err)
					return
				}
				eng.SetBackoff(newCfg.Engine.BackoffBase(), newCfg.Engine.BackoffCap())
				slog.Info("config reloaded", "backoff_base", newCfg.Engine.BackoffBaseSeconds, "backoff_cap", newCfg.Engine.BackoffCapSeconds)
			})
			if err != nil {
				slog.Warn("config watch disabled", "error", err)
			} else {
				defer closer()
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("taskflow listening", "addr", addr)
	return srv.ListenAndServe()
}
