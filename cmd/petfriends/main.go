package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/petfriends-harness/internal/cli"
	"github.com/samvad-hq/petfriends-harness/internal/config"
	"github.com/samvad-hq/petfriends-harness/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "petfriends: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("petfriends starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = cli.NewCommand(cfg, log).ExecuteContext(ctx)
	if ctx.Err() != nil {
		logger.WarnObj("petfriends interrupted", "signal", ctx.Err().Error())
	}
	if err != nil {
		logger.ErrorObj("petfriends command failed", "error", err.Error())
	}
	return err
}
