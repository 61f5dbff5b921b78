package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvFrom loads configuration from an explicit environment instead of
// the process environment. A nil map behaves like an empty environment.
func ParseEnvFrom(target any, environment map[string]string) error {
	if environment == nil {
		environment = map[string]string{}
	}
	if err := env.ParseWithOptions(target, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Environ snapshots the process environment for ParseEnvFrom.
func Environ() map[string]string {
	return env.ToMap(os.Environ())
}
