// Package cmd holds the startup helpers shared by governor binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/arywk40-hue/budget-governor/internal/platform/config"
	"github.com/arywk40-hue/budget-governor/internal/platform/otel"
	"github.com/arywk40-hue/budget-governor/internal/platform/timeouts"
	"go.uber.org/zap"
)

// Service names used as the OpenTelemetry service.name and logger name.
const (
	ServiceGovernor    = "governor"
	ServiceGovernorCtl = "governorctl"
)

// RunOptions tunes RunWithTelemetryAndOptions.
type RunOptions struct {
	// ShutdownTimeout bounds the tracer flush. Zero means timeouts.Shutdown.
	ShutdownTimeout time.Duration
	// Logger receives tracer shutdown failures. Nil discards them.
	Logger *zap.Logger
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args with fs. Flags registered on fs should default to
// values already loaded from the environment.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry runs fn with tracing configured for service.
func RunWithTelemetry(ctx context.Context, service string, fn func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, service, RunOptions{}, fn)
}

// RunWithTelemetryAndOptions runs fn with tracing configured for service and
// flushes the tracer when fn returns.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, fn func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if fn == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = timeouts.Shutdown
		}
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.String("service", service), zap.Error(err))
		}
	}()
	return fn(ctx)
}
