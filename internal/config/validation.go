package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ajitpratap0/allocga/pkg/genetic"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Is lets callers match any validation failure against genetic.ErrConfiguration
func (ve ValidationErrors) Is(target error) bool {
	return target == genetic.ErrConfiguration
}

// Validate performs comprehensive configuration validation
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateEvolution()...)
	errors = append(errors, c.validateData()...)

	// Connection settings only matter when the component is in use
	if c.Data.Source == "postgres" {
		errors = append(errors, c.validateDatabase()...)
	}
	if c.Redis.Enabled {
		errors = append(errors, c.validateRedis()...)
	}

	errors = append(errors, c.validateMonitoring()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateEnvironmentRequirements()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		errors = append(errors, ValidationError{
			Field:   "app.environment",
			Message: fmt.Sprintf("Invalid environment '%s'. Must be one of: development, staging, production", c.App.Environment),
		})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.App.LogLevel)); err != nil || c.App.LogLevel == "" {
		errors = append(errors, ValidationError{
			Field:   "app.log_level",
			Message: fmt.Sprintf("Invalid log level '%s'. Must be one of: trace, debug, info, warn, error", c.App.LogLevel),
		})
	}

	return errors
}

func (c *Config) validateEvolution() ValidationErrors {
	var errors ValidationErrors
	e := c.Evolution

	if e.Periods < 1 {
		errors = append(errors, ValidationError{
			Field:   "evolution.periods",
			Message: "Periods must be at least 1",
		})
	}

	if e.Pots < 1 {
		errors = append(errors, ValidationError{
			Field:   "evolution.pots",
			Message: "Pots must be at least 1",
		})
	}

	if e.EliteSize < 2 {
		errors = append(errors, ValidationError{
			Field:   "evolution.elite_size",
			Message: fmt.Sprintf("Elite size %d is too small. At least 2 parents are required", e.EliteSize),
		})
	}

	if e.PopulationSize <= e.EliteSize {
		errors = append(errors, ValidationError{
			Field:   "evolution.population_size",
			Message: fmt.Sprintf("Population size %d must be greater than elite size %d", e.PopulationSize, e.EliteSize),
		})
	}

	if !(e.MutationRate >= 0 && e.MutationRate <= 1) {
		errors = append(errors, ValidationError{
			Field:   "evolution.mutation_rate",
			Message: fmt.Sprintf("Invalid mutation rate %.4f. Must be between 0 and 1", e.MutationRate),
		})
	}

	if e.Generations < 0 {
		errors = append(errors, ValidationError{
			Field:   "evolution.generations",
			Message: "Generations cannot be negative",
		})
	}

	if e.InitialCapital <= 0 {
		errors = append(errors, ValidationError{
			Field:   "evolution.initial_capital",
			Message: "Initial capital must be positive",
		})
	}

	if e.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "evolution.workers",
			Message: "Workers cannot be negative (0 uses all CPUs)",
		})
	}

	if e.MaxDuration < 0 {
		errors = append(errors, ValidationError{
			Field:   "evolution.max_duration",
			Message: "Max duration cannot be negative (0 disables the limit)",
		})
	}

	return errors
}

func (c *Config) validateData() ValidationErrors {
	var errors ValidationErrors

	switch c.Data.Source {
	case "csv":
		if c.Data.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "data.path",
				Message: "CSV path is required when data.source is csv",
			})
		}
	case "postgres":
		if c.Data.Table == "" {
			errors = append(errors, ValidationError{
				Field:   "data.table",
				Message: "Table name is required when data.source is postgres",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "data.source",
			Message: fmt.Sprintf("Invalid data source '%s'. Must be one of: csv, postgres", c.Data.Source),
		})
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if c.Database.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.host",
			Message: "Database host is required",
		})
	}

	if c.Database.Port == 0 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: "Database port is required",
		})
	} else if c.Database.Port < 1 || c.Database.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Database.Port),
		})
	}

	if c.Database.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "Database user is required",
		})
	}

	if c.Database.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "Database name is required",
		})
	}

	return errors
}

func (c *Config) validateRedis() ValidationErrors {
	var errors ValidationErrors

	if c.Redis.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "redis.host",
			Message: "Redis host is required",
		})
	}

	if c.Redis.Port == 0 {
		errors = append(errors, ValidationError{
			Field:   "redis.port",
			Message: "Redis port is required",
		})
	} else if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "redis.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Redis.Port),
		})
	}

	if c.Redis.TTL < 0 {
		errors = append(errors, ValidationError{
			Field:   "redis.ttl",
			Message: "Cache TTL cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateMonitoring() ValidationErrors {
	var errors ValidationErrors

	if c.Monitoring.EnableMetrics && (c.Monitoring.PrometheusPort < 1 || c.Monitoring.PrometheusPort > 65535) {
		errors = append(errors, ValidationError{
			Field:   "monitoring.prometheus_port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Monitoring.PrometheusPort),
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("Invalid log format '%s'. Must be one of: json, console", c.Logging.Format),
		})
	}

	if c.Logging.File != "" && c.Logging.MaxSizeMB < 1 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "Log file rotation size must be at least 1 MB",
		})
	}

	return errors
}

func (c *Config) validateEnvironmentRequirements() ValidationErrors {
	var errors ValidationErrors

	if c.App.Environment != "production" {
		return errors
	}

	// Ensure SSL for database in production
	if c.Data.Source == "postgres" && c.Database.SSLMode == "disable" {
		errors = append(errors, ValidationError{
			Field:   "database.ssl_mode",
			Message: "SSL must be enabled for database in production",
		})
	}

	// Reproducible runs are expected outside development
	if c.Evolution.Seed == 0 {
		errors = append(errors, ValidationError{
			Field:   "evolution.seed",
			Message: "A fixed seed is required in production",
		})
	}

	return errors
}
