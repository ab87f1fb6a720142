package main

import (
	"fmt"

	"bloodlink/pkg/types"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the environment. Prefixed keys win; unprefixed keys are the
// fallback.
func loadConfig(c *cli.Context) (*types.Config, error) {
	cfg := new(types.Config)
	if err := envconfig.Process(c.String("env-prefix"), cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.ServerPort == 0 {
		cfg.ServerPort = 8080
	}

	if cfg.ReadTimeoutSec == 0 {
		cfg.ReadTimeoutSec = 10
	}

	if cfg.WriteTimeoutSec == 0 {
		cfg.WriteTimeoutSec = 15
	}

	if cfg.CriticalRadiusMultiplier < 1 {
		return nil, fmt.Errorf("CRITICAL_RADIUS_MULTIPLIER must be at least 1, got %v", cfg.CriticalRadiusMultiplier)
	}

	return cfg, nil
}

func requireDatabase(cfg *types.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("set DATABASE_URL")
	}
	return nil
}

func newLogger(cfg *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
