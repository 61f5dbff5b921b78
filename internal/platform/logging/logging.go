// Package logging builds the structured process logger.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoder.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
	// FormatConsole emits human-readable lines for local runs.
	FormatConsole Format = "console"
)

// Config holds logger settings loaded from the environment.
type Config struct {
	Level  string `env:"BUDGET_GOVERNOR_LOG_LEVEL" envDefault:"info"`
	Format Format `env:"BUDGET_GOVERNOR_LOG_FORMAT" envDefault:"json"`
}

// New builds a logger named after service.
func New(service string, cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case FormatJSON, "":
		zapCfg = zap.NewProductionConfig()
	case FormatConsole:
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	zapCfg.Level = level
	zapCfg.DisableStacktrace = true
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if service = strings.TrimSpace(service); service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

func parseLevel(raw string) (zap.AtomicLevel, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	var parsed zapcore.Level
	if err := parsed.Set(raw); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return zap.NewAtomicLevelAt(parsed), nil
}

// TraceFields returns trace_id and span_id for the span active in ctx.
func TraceFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// FromContext returns logger annotated with the trace of ctx. A nil logger
// yields a no-op logger.
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	if fields := TraceFields(ctx); len(fields) > 0 {
		return logger.With(fields...)
	}
	return logger
}
