package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"snapdiff/internal/cli"
	"snapdiff/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	logger.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
