// tray loads text files into an in-memory registry and keeps them in a
// Postgres or SQLite store.
//
// Usage:
//
//	tray [--config path] <command> [args]
//
// Commands: load, save, cat, list, check, stats, rm
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		stop()
		os.Exit(1)
	}
}
