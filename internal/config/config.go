package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/allocga/pkg/genetic"
)

// ALLOCGA_EVOLUTION_GENERATIONS maps to evolution.generations
var envKeyReplacer = strings.NewReplacer(".", "_")

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Evolution  EvolutionConfig  `mapstructure:"evolution"`
	Data       DataConfig       `mapstructure:"data"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
}

// EvolutionConfig contains the genetic algorithm tunables
type EvolutionConfig struct {
	PopulationSize int           `mapstructure:"population_size"` // 100
	Generations    int           `mapstructure:"generations"`     // 50
	MutationRate   float64       `mapstructure:"mutation_rate"`   // 0.05
	EliteSize      int           `mapstructure:"elite_size"`      // 5
	Periods        int           `mapstructure:"periods"`         // 12 buy/sell pairs per genome
	Pots           int           `mapstructure:"pots"`            // 10 capital pots per period
	InitialCapital float64       `mapstructure:"initial_capital"` // 1000.0
	Seed           int64         `mapstructure:"seed"`            // 0 = time-based
	Workers        int           `mapstructure:"workers"`         // 0 = NumCPU
	MaxDuration    time.Duration `mapstructure:"max_duration"`    // 0 = unlimited
}

// DataConfig selects where prices come from
type DataConfig struct {
	Source string `mapstructure:"source"` // "csv" or "postgres"
	Path   string `mapstructure:"path"`   // CSV file path
	Table  string `mapstructure:"table"`  // PostgreSQL table name
}

// DatabaseConfig contains PostgreSQL settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig contains settings of the optional price table cache
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Format     string `mapstructure:"format"` // "json" or "console"
	File       string `mapstructure:"file"`   // optional rotated log file
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load loads configuration from file and environment variables and validates it
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read loads configuration without validating it, so callers can apply
// command-line overrides before calling Validate
func Read(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("ALLOCGA")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "allocga")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Evolution defaults
	defaults := genetic.DefaultConfig()
	v.SetDefault("evolution.population_size", defaults.PopulationSize)
	v.SetDefault("evolution.generations", defaults.Generations)
	v.SetDefault("evolution.mutation_rate", defaults.MutationRate)
	v.SetDefault("evolution.elite_size", defaults.EliteSize)
	v.SetDefault("evolution.periods", defaults.Periods)
	v.SetDefault("evolution.pots", defaults.Pots)
	v.SetDefault("evolution.initial_capital", defaults.InitialCapital)
	v.SetDefault("evolution.seed", 0)
	v.SetDefault("evolution.workers", 0)
	v.SetDefault("evolution.max_duration", time.Duration(0))

	// Data defaults
	v.SetDefault("data.source", "csv")
	v.SetDefault("data.path", "quotes.csv")
	v.SetDefault("data.table", "quotes")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "allocga")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", false)

	// Logging defaults
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", false)
}

// Genetic converts the evolution section into an engine configuration
func (c *EvolutionConfig) Genetic() genetic.Config {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return genetic.Config{
		PopulationSize: c.PopulationSize,
		Generations:    c.Generations,
		MutationRate:   c.MutationRate,
		EliteSize:      c.EliteSize,
		Periods:        c.Periods,
		Pots:           c.Pots,
		InitialCapital: c.InitialCapital,
		Seed:           c.Seed,
		Workers:        workers,
		MaxDuration:    c.MaxDuration,
	}
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	// An empty "password=" would swallow the next keyword
	if c.Password == "" {
		return fmt.Sprintf(
			"host=%s port=%d user=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Database, c.SSLMode,
		)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
