// sessionctl drives the daemon's session CRUD endpoints from the command
// line.
// Usage:
//
//	sessionctl --config configs/client.example.yaml list
//	sessionctl --config configs/client.example.yaml create <name>
//	sessionctl --config configs/client.example.yaml get <id>
//	sessionctl --config configs/client.example.yaml delete <id>
//	sessionctl --config configs/client.example.yaml reconnect <id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shellmux/shellmux/internal/api"
	"github.com/shellmux/shellmux/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	kind := flag.String("kind", "", "session kind for create (e.g. ssh)")
	region := flag.String("region", "", "session region for create")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	if cfg.Daemon.RestURL == "" {
		fatal("daemon.rest_url is not configured")
	}

	client := api.NewClient(cfg.Daemon.RestURL, cfg.Daemon.Token,
		api.WithTimeout(cfg.Daemon.Timeout),
		api.WithRetries(cfg.Daemon.MaxRetries, time.Second),
		api.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.Timeout+10*time.Second)
	defer cancel()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	switch args[0] {
	case "list":
		sessions, err := client.ListSessions(ctx)
		if err != nil {
			fatal("list: %v", err)
		}
		for _, s := range sessions {
			fmt.Printf("%-24s %-16s %-12s %s\n", s.ID, s.Name, s.Status, s.Hostname)
		}

	case "create":
		if len(args) < 2 {
			usage()
		}
		created, err := client.CreateSession(ctx, api.CreateSessionRequest{
			Name:   args[1],
			Kind:   *kind,
			Region: *region,
		})
		if err != nil {
			fatal("create: %v", err)
		}
		dump(created)

	case "get":
		if len(args) < 2 {
			usage()
		}
		s, err := client.GetSession(ctx, args[1])
		if err != nil {
			fatal("get: %v", err)
		}
		dump(s)

	case "delete":
		if len(args) < 2 {
			usage()
		}
		if err := client.DeleteSession(ctx, args[1]); err != nil {
			fatal("delete: %v", err)
		}
		fmt.Println("deleted", args[1])

	case "reconnect":
		if len(args) < 2 {
			usage()
		}
		s, err := client.ReconnectSession(ctx, args[1])
		if err != nil {
			fatal("reconnect: %v", err)
		}
		dump(s)

	default:
		usage()
	}
}

func dump(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sessionctl [flags] list|create <name>|get <id>|delete <id>|reconnect <id>")
	os.Exit(2)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
