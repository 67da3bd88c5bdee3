package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"herd-marketplace/cmd/api/commands"
	"herd-marketplace/internal/platform/config"
	"herd-marketplace/internal/platform/logger"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// todavía no hay logger configurado
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: logger.ParseFormat(cfg.Logging.Format),
		App:    cfg.Logging.App,
	})
	defer func() {
		if zl, ok := log.(*logger.ZapLogger); ok {
			_ = zl.Sync()
		}
	}()

	cli := commands.New(newApplication(cfg, log))
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		log.Error("command failed", map[string]any{"error": err})
		return 1
	}
	return 0
}
