package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/secmon-lab/shepherd/pkg/cli"
)

func main() {
	// An interrupt cancels the context and aborts the running pipeline
	// immediately; no partial run log is written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}
