// Package main provides the budget governor command-line client.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/arywk40-hue/budget-governor/internal/platform/cmd"
	"github.com/arywk40-hue/budget-governor/internal/platform/config"
	"github.com/arywk40-hue/budget-governor/internal/tools/governorctl"
)

func main() {
	cfg, err := governorctl.ParseConfig(flag.CommandLine, os.Args[1:], config.Environ())
	if err != nil {
		config.Exitf("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGovernorCtl, func(ctx context.Context) error {
		return governorctl.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("governorctl %s: %v", cfg.Command, err)
	}
}
