package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/rbdengine/internal/adapter"
	"github.com/gyaneshwarpardhi/rbdengine/internal/api"
	"github.com/gyaneshwarpardhi/rbdengine/internal/calculator"
	"github.com/gyaneshwarpardhi/rbdengine/internal/config"
	"github.com/gyaneshwarpardhi/rbdengine/internal/engine"
	"github.com/gyaneshwarpardhi/rbdengine/internal/telemetry"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cfgPath := flag.String("config", "", "Path to YAML config (built-in defaults when empty)")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────────────
	var (
		loader *config.Loader
		cfg    = config.Default()
	)
	if *cfgPath != "" {
		l, err := config.NewLoader(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		loader, cfg = l, l.Config()
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Tracing ───────────────────────────────────────────────────────────────
	shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing, engine.Version)
	if err != nil {
		slog.Error("failed to initialise tracing", "err", err)
		os.Exit(1)
	}
	slog.Info("tracing configured", "exporter", cfg.Tracing.Exporter)

	// ── Engine ────────────────────────────────────────────────────────────────

	calc := calculator.New(adapter.New())
	eng := engine.New(ctx, calc, cfg.Engine.Options(), logger)
	opts := eng.Options()
	slog.Info("engine ready",
		"workers", opts.Workers,
		"queue_depth", opts.QueueDepth,
		"max_points", opts.MaxPoints,
		"max_nodes", opts.MaxNodes,
	)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(newCfg *config.Config) {
			eng.SetOptions(newCfg.Engine.Options())
			slog.Info("engine limits hot-reloaded",
				"max_points", newCfg.Engine.MaxPoints,
				"max_nodes", newCfg.Engine.MaxNodes,
				"max_paths", newCfg.Engine.MaxPaths,
			)
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	if err := shutdownTracing(shutCtx); err != nil {
		slog.Warn("tracing shutdown failed", "err", err)
	}
	cancel()
	slog.Info("goodbye")
}

func newLogger(c config.LogConf) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hopts))
}
