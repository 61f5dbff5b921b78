// Package governor parses governor service flags and launches the service.
package governor

import (
	"context"
	"flag"

	entrypoint "github.com/arywk40-hue/budget-governor/internal/platform/cmd"
	"github.com/arywk40-hue/budget-governor/internal/platform/logging"
	server "github.com/arywk40-hue/budget-governor/internal/services/governor/app"
)

// Config holds governor command configuration.
type Config struct {
	Port int `env:"BUDGET_GOVERNOR_PORT" envDefault:"8095"`
	Log  logging.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The governor gRPC server port")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Minimum log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the governor gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceGovernor, cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceGovernor, options, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Port, logger)
	})
}
