// Package main starts the budget governor gRPC service process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	governorcmd "github.com/arywk40-hue/budget-governor/internal/cmd/governor"
	"github.com/arywk40-hue/budget-governor/internal/platform/config"
)

func main() {
	cfg, err := governorcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := governorcmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
