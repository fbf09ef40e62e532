// shellmux connects to the session daemon and streams live session output
// and status to the console.
// Usage: go run ./cmd/shellmux --config configs/client.example.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shellmux/shellmux/internal/config"
	"github.com/shellmux/shellmux/internal/conn"
	"github.com/shellmux/shellmux/internal/core"
	"github.com/shellmux/shellmux/internal/protocol"
	"github.com/shellmux/shellmux/internal/subs"
	"github.com/shellmux/shellmux/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	sessionID := flag.String("session", "", "watch a single session (default: all)")
	execCmd := flag.String("exec", "", "run one command on --session and exit")
	verbose := flag.Bool("verbose", false, "debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("shellmux", version.String())
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	client := core.New(cfg, logger)

	logger.Info("connecting", "url", cfg.Daemon.WSURL)
	if err := client.Start(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	// Console observers. Wildcard unless a single session was requested.
	topic := subs.Wildcard
	if *sessionID != "" {
		topic = *sessionID
	}
	client.OnOutput(topic, func(ev any) {
		out := ev.(protocol.OutputEvent)
		fmt.Printf("[%s] %s", out.SessionID, out.Data)
	})
	client.OnStatus(topic, func(ev any) {
		st := ev.(protocol.StatusEvent)
		fmt.Printf("[%s] status -> %s\n", st.SessionID, st.Status)
	})
	client.OnConnState(func(ev any) {
		change := ev.(conn.StatusChange)
		if change.Message != "" {
			logger.Info("connection", "status", change.Status.String(), "detail", change.Message)
		} else {
			logger.Info("connection", "status", change.Status.String())
		}
	})
	client.OnProtocolError(func(ev any) {
		perr := ev.(protocol.ErrorEvent)
		logger.Warn("protocol error", "code", perr.Code, "message", perr.Message)
	})

	// Seed the local session list when a REST endpoint is configured.
	if cfg.Daemon.RestURL != "" {
		if err := client.RefreshSessions(ctx); err != nil {
			logger.Warn("failed to refresh sessions", "error", err)
		} else {
			for _, entry := range client.Store().List() {
				logger.Info("session",
					"id", entry.Session.ID,
					"name", entry.Session.Name,
					"status", entry.Session.Status.String(),
				)
			}
		}
	}

	if *sessionID != "" {
		if err := client.WatchSession(*sessionID); err != nil {
			logger.Error("failed to watch session", "error", err)
			os.Exit(1)
		}
		client.SetActive(*sessionID)
	} else {
		for _, entry := range client.Store().List() {
			if err := client.WatchSession(entry.Session.ID); err != nil {
				logger.Warn("failed to watch session", "id", entry.Session.ID, "error", err)
			}
		}
	}

	if *execCmd != "" {
		if *sessionID == "" {
			logger.Error("--exec requires --session")
			os.Exit(1)
		}
		runOne(ctx, client, *sessionID, *execCmd, logger)
		shutdown(client, logger)
		return
	}

	logger.Info("streaming started - press Ctrl+C to stop")
	<-ctx.Done()
	shutdown(client, logger)
}

func runOne(ctx context.Context, client *core.Client, sessionID, command string, logger *slog.Logger) {
	execCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	res, err := client.Execute(execCtx, sessionID, command)
	if err != nil {
		logger.Error("command failed", "error", err)
		return
	}
	fmt.Print(res.Output)
	logger.Info("command complete", "exit_code", res.ExitCode)
}

func shutdown(client *core.Client, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down...")
	if err := client.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	logger.Info("shutdown complete")
}
