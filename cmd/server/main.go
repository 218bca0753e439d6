package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/casegraph/internal/api"
	"github.com/gyaneshwarpardhi/casegraph/internal/config"
	"github.com/gyaneshwarpardhi/casegraph/internal/fetch"
	"github.com/gyaneshwarpardhi/casegraph/internal/mutator"
	"github.com/gyaneshwarpardhi/casegraph/internal/session"
	"github.com/gyaneshwarpardhi/casegraph/internal/visible"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	cfgPath := flag.String("config", "configs/casegraph.yaml", "Path to YAML or TOML config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	// ── Upstream client ──────────────────────────────────────────────────────
	client, err := fetch.New(fetch.OptionsFrom(cfg.Upstream))
	if err != nil {
		slog.Error("failed to build upstream client", "err", err)
		os.Exit(1)
	}
	slog.Info("graph upstream", "client", client)

	// ── Sessions ─────────────────────────────────────────────────────────────
	reg := mutator.Default()
	slog.Info("mutators registered", "names", reg.Names())

	sessions := session.NewManager(visible.NewEngine(reg), session.OptionsFrom(cfg.View))
	sessions.SetMaxSessions(cfg.Server.MaxSessions)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	// Upstream and listener settings need a restart; view settings apply to
	// sessions opened after the change.
	loader.OnChange(func(newCfg *config.Config) {
		sessions.SetOptions(session.OptionsFrom(newCfg.View))
		sessions.SetMaxSessions(newCfg.Server.MaxSessions)
		slog.Info("config hot-reloaded",
			"version", newCfg.Version,
			"max_sessions", newCfg.Server.MaxSessions,
			"excluded_edge_types", newCfg.View.ExcludedEdgeTypes)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.New(sessions, client, loader),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	slog.Info("goodbye", "open_sessions", sessions.Len())
}
