// Package main is the entry point for the safebackup CLI application.
//
// It hands the command line and standard streams to internal/cli and exits
// with the status code that maps the outcome: 0 on success (including a
// cancelled delete), non-zero for any validation, path or I/O error.
package main

import (
	"context"
	"os"
	"os/signal"

	"safebackup/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	code := cli.Execute(ctx, os.Args[1:], cli.Streams{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	})

	stop()
	os.Exit(code)
}
