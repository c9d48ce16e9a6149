package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/remixweb/site/internal/config"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Addr string `short:"a" help:"Override the configured listen address"`
	} `cmd:"" help:"Start the site server"`

	Check struct{} `cmd:"" help:"Validate configuration and conference data, then exit"`

	Warm struct{} `cmd:"" help:"Resolve version heads and build menus once, then exit"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch ctx.Command() {
	case "serve":
		if CLI.Serve.Addr != "" {
			cfg.Server.Addr = CLI.Serve.Addr
		}
		if err := runServe(runCtx, cfg); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case "check":
		if err := runCheck(runCtx, cfg); err != nil {
			slog.Error("Check failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("configuration and data OK")
	case "warm":
		if err := runWarm(runCtx, cfg); err != nil {
			slog.Error("Warm failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}
