// Package main is the entry point for the rsnap CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thoreinstein/rsnap/cmd/rsnap/commands"
	"github.com/thoreinstein/rsnap/internal/errors"
)

func main() {
	// SIGINT and SIGTERM cancel the context, which kills a running rsync.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()

	if err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
