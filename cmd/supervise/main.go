package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/supervision/internal/cli"
	"github.com/yigit/supervision/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
