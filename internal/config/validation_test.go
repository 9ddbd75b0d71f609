//nolint:goconst // Test files use repeated strings for clarity
package config

import (
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/allocga/pkg/genetic"
)

// getValidConfig returns a valid configuration for testing
func getValidConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "allocga",
			Environment: "development",
			LogLevel:    "info",
		},
		Evolution: EvolutionConfig{
			PopulationSize: 100,
			Generations:    50,
			MutationRate:   0.05,
			EliteSize:      5,
			Periods:        12,
			Pots:           10,
			InitialCapital: 1000,
		},
		Data: DataConfig{
			Source: "csv",
			Path:   "quotes.csv",
			Table:  "quotes",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "allocga",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			TTL:  time.Hour,
		},
		Monitoring: MonitoringConfig{
			PrometheusPort: 9100,
		},
		Logging: LoggingConfig{
			Format:    "console",
			MaxSizeMB: 100,
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	cfg := getValidConfig()
	err := cfg.Validate()
	assert.NoError(t, err, "Valid configuration should not produce errors")
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name: "missing app name",
			modify: func(c *Config) {
				c.App.Name = ""
			},
			expectError: "app.name",
		},
		{
			name: "missing environment",
			modify: func(c *Config) {
				c.App.Environment = ""
			},
			expectError: "app.environment",
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.App.Environment = "invalid_env"
			},
			expectError: "Invalid environment",
		},
		{
			name: "missing log level",
			modify: func(c *Config) {
				c.App.LogLevel = ""
			},
			expectError: "app.log_level",
		},
		{
			name: "unknown log level",
			modify: func(c *Config) {
				c.App.LogLevel = "chatty"
			},
			expectError: "Invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateEvolution(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name: "elite of one",
			modify: func(c *Config) {
				c.Evolution.EliteSize = 1
			},
			expectError: "evolution.elite_size",
		},
		{
			name: "population not above elite",
			modify: func(c *Config) {
				c.Evolution.PopulationSize = 5
			},
			expectError: "evolution.population_size",
		},
		{
			name: "mutation rate above one",
			modify: func(c *Config) {
				c.Evolution.MutationRate = 1.01
			},
			expectError: "Invalid mutation rate",
		},
		{
			name: "negative mutation rate",
			modify: func(c *Config) {
				c.Evolution.MutationRate = -0.5
			},
			expectError: "evolution.mutation_rate",
		},
		{
			name: "NaN mutation rate",
			modify: func(c *Config) {
				c.Evolution.MutationRate = math.NaN()
			},
			expectError: "evolution.mutation_rate",
		},
		{
			name: "zero periods",
			modify: func(c *Config) {
				c.Evolution.Periods = 0
			},
			expectError: "evolution.periods",
		},
		{
			name: "zero pots",
			modify: func(c *Config) {
				c.Evolution.Pots = 0
			},
			expectError: "evolution.pots",
		},
		{
			name: "negative generations",
			modify: func(c *Config) {
				c.Evolution.Generations = -3
			},
			expectError: "evolution.generations",
		},
		{
			name: "no capital",
			modify: func(c *Config) {
				c.Evolution.InitialCapital = 0
			},
			expectError: "evolution.initial_capital",
		},
		{
			name: "negative workers",
			modify: func(c *Config) {
				c.Evolution.Workers = -1
			},
			expectError: "evolution.workers",
		},
		{
			name: "negative max duration",
			modify: func(c *Config) {
				c.Evolution.MaxDuration = -time.Second
			},
			expectError: "evolution.max_duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
			assert.ErrorIs(t, err, genetic.ErrConfiguration)
		})
	}
}

func TestValidateData(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name: "unknown source",
			modify: func(c *Config) {
				c.Data.Source = "ftp"
			},
			expectError: "Invalid data source",
		},
		{
			name: "csv without path",
			modify: func(c *Config) {
				c.Data.Path = ""
			},
			expectError: "data.path",
		},
		{
			name: "postgres without table",
			modify: func(c *Config) {
				c.Data.Source = "postgres"
				c.Data.Table = ""
			},
			expectError: "data.table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateDatabase(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name: "missing host",
			modify: func(c *Config) {
				c.Database.Host = ""
			},
			expectError: "database.host",
		},
		{
			name: "missing port",
			modify: func(c *Config) {
				c.Database.Port = 0
			},
			expectError: "database.port",
		},
		{
			name: "invalid port - too high",
			modify: func(c *Config) {
				c.Database.Port = 70000
			},
			expectError: "Invalid port",
		},
		{
			name: "missing user",
			modify: func(c *Config) {
				c.Database.User = ""
			},
			expectError: "database.user",
		},
		{
			name: "missing database name",
			modify: func(c *Config) {
				c.Database.Database = ""
			},
			expectError: "database.database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			cfg.Data.Source = "postgres"
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateDatabase_IgnoredForCSV(t *testing.T) {
	cfg := getValidConfig()
	cfg.Database = DatabaseConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRedis(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name: "missing host",
			modify: func(c *Config) {
				c.Redis.Host = ""
			},
			expectError: "redis.host",
		},
		{
			name: "invalid port",
			modify: func(c *Config) {
				c.Redis.Port = 99999
			},
			expectError: "Invalid port",
		},
		{
			name: "negative ttl",
			modify: func(c *Config) {
				c.Redis.TTL = -time.Minute
			},
			expectError: "redis.ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			cfg.Redis.Enabled = true
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}

	// Disabled cache settings are not checked
	cfg := getValidConfig()
	cfg.Redis.Host = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidateMonitoringAndLogging(t *testing.T) {
	cfg := getValidConfig()
	cfg.Monitoring.EnableMetrics = true
	cfg.Monitoring.PrometheusPort = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring.prometheus_port")

	cfg = getValidConfig()
	cfg.Logging.Format = "xml"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")

	cfg = getValidConfig()
	cfg.Logging.File = "run.log"
	cfg.Logging.MaxSizeMB = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.max_size_mb")
}

func TestValidateEnvironmentRequirements(t *testing.T) {
	cfg := getValidConfig()
	cfg.App.Environment = "production"
	cfg.Data.Source = "postgres"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.ssl_mode")
	assert.Contains(t, err.Error(), "evolution.seed")

	cfg.Database.SSLMode = "require"
	cfg.Evolution.Seed = 7
	assert.NoError(t, cfg.Validate())
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "field1", Message: "error message 1"},
		{Field: "field2", Message: "error message 2"},
		{Field: "field3", Message: "error message 3"},
	}

	errMsg := errs.Error()

	assert.Contains(t, errMsg, "Configuration validation failed with 3 error(s)")
	assert.Contains(t, errMsg, "1. field1: error message 1")
	assert.Contains(t, errMsg, "2. field2: error message 2")
	assert.Contains(t, errMsg, "3. field3: error message 3")
	assert.Contains(t, errMsg, "Please fix the above errors and try again")
	assert.True(t, errors.Is(errs, genetic.ErrConfiguration))
}

func TestValidationErrors_Empty(t *testing.T) {
	errs := ValidationErrors{}
	assert.Equal(t, "", errs.Error())
}

func TestLoad_ReportsEveryValidationError(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)

	invalidConfig := `
app:
  name: ""
evolution:
  elite_size: 1
`
	_, err = tmpfile.WriteString(invalidConfig)
	require.NoError(t, err)
	_ = tmpfile.Close()

	_, err = Load(tmpfile.Name())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "evolution.elite_size")
	assert.ErrorIs(t, err, genetic.ErrConfiguration)
}
