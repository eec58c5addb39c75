// agent-relay server — relays streaming chat exchanges between clients and
// the Akash agent service, reconstructs per-request action logs, and fans out
// progress events over WebSocket.
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

	"github.com/joho/godotenv"

	"github.com/akash-network/agent-relay/pkg/agent"
	"github.com/akash-network/agent-relay/pkg/api"
	"github.com/akash-network/agent-relay/pkg/config"
	"github.com/akash-network/agent-relay/pkg/dedup"
	"github.com/akash-network/agent-relay/pkg/events"
	"github.com/akash-network/agent-relay/pkg/session"
	"github.com/akash-network/agent-relay/pkg/version"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", *envFile, "error", err)
	} else {
		slog.Info("Loaded environment", "path", *envFile)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting agent-relay",
		"version", version.Full(),
		"http_port", cfg.HTTPPort,
		"agent_base_url", cfg.AgentBaseURL,
		"stream_timeout", cfg.StreamTimeout)

	agentClient := agent.NewClient(cfg.ControlTimeout)
	sessions := session.NewManager()

	var guard dedup.DuplicateGuard = dedup.NopGuard{}
	if cfg.DedupWindow > 0 {
		guard = dedup.NewWindowGuard(cfg.DedupWindow)
		slog.Info("Duplicate guard enabled", "window", cfg.DedupWindow)
	}

	connManager := events.NewConnectionManager(10 * time.Second)

	httpServer := api.NewServer(cfg, agentClient, sessions, guard, connManager)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
