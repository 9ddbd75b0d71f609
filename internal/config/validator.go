package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ValidatorOptions contains options for startup validation
type ValidatorOptions struct {
	VerifyConnectivity bool // Ping Redis before enabling the cache
	Timeout            time.Duration
}

// DefaultValidatorOptions returns default validator options for startup
func DefaultValidatorOptions() ValidatorOptions {
	return ValidatorOptions{
		VerifyConnectivity: true,
		Timeout:            5 * time.Second,
	}
}

// Validator checks that the configured price source and cache are reachable
// before an evolution run starts
type Validator struct {
	config  *Config
	options ValidatorOptions
}

// NewValidator creates a new startup validator
func NewValidator(config *Config, options ValidatorOptions) *Validator {
	if options.Timeout <= 0 {
		options.Timeout = DefaultValidatorOptions().Timeout
	}
	return &Validator{
		config:  config,
		options: options,
	}
}

// ValidateStartup verifies the price source. The database itself is pinged
// once, by prices.Connect. Cache problems are not fatal: they are reported
// through CheckRedis so the caller can run uncached.
func (v *Validator) ValidateStartup(ctx context.Context) error {
	log.Debug().Str("source", v.config.Data.Source).Msg("Validating price source...")

	switch v.config.Data.Source {
	case "csv":
		if err := v.checkDataFile(); err != nil {
			return fmt.Errorf("price file check failed: %w", err)
		}
	case "postgres":
		if _, err := pgxpool.ParseConfig(v.config.Database.GetDSN()); err != nil {
			return fmt.Errorf("invalid database settings: %w", err)
		}
	default:
		return fmt.Errorf("unknown data source %q", v.config.Data.Source)
	}

	log.Debug().Msg("Price source validation completed successfully")
	return nil
}

// checkDataFile verifies the CSV file exists and is a regular file
func (v *Validator) checkDataFile() error {
	info, err := os.Stat(v.config.Data.Path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", v.config.Data.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a CSV file", v.config.Data.Path)
	}
	return nil
}

// CheckRedis pings the configured cache. It returns nil when the cache is
// disabled or connectivity checks are turned off.
func (v *Validator) CheckRedis(ctx context.Context) error {
	if !v.config.Redis.Enabled || !v.options.VerifyConnectivity {
		return nil
	}

	connCtx, cancel := context.WithTimeout(ctx, v.options.Timeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     v.config.Redis.GetRedisAddr(),
		Password: v.config.Redis.Password,
		DB:       v.config.Redis.DB,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(connCtx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis at %s: %w", v.config.Redis.GetRedisAddr(), err)
	}

	log.Debug().
		Str("addr", v.config.Redis.GetRedisAddr()).
		Int("db", v.config.Redis.DB).
		Msg("Redis connectivity check passed")

	return nil
}
