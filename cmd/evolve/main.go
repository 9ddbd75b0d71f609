// Evolve CLI
// Searches for the period-by-pot stock allocation that maximizes the simulated
// value of a portfolio over a historical price table
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/allocga/internal/config"
	"github.com/ajitpratap0/allocga/internal/metrics"
	"github.com/ajitpratap0/allocga/internal/prices"
	"github.com/ajitpratap0/allocga/pkg/genetic"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

// ============================================================================
// CLI FLAGS
// ============================================================================

type cliFlags struct {
	configPath string

	// Data source
	dataPath string
	source   string
	table    string

	// Evolution parameters
	population  int
	generations int
	mutation    float64
	elite       int
	periods     int
	pots        int
	capital     float64
	seed        int64
	workers     int
	maxDuration time.Duration

	// Output
	format      string
	outputFile  string
	verbose     bool
	metrics     bool
	metricsPort int
	version     bool
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "Path to config file (default ./configs/config.yaml)")

	fs.StringVar(&f.dataPath, "data", "", "CSV price file (date;code;price)")
	fs.StringVar(&f.source, "source", "", "Price source (csv, postgres)")
	fs.StringVar(&f.table, "table", "", "PostgreSQL table holding quotes")

	fs.IntVar(&f.population, "population", 0, "Population size")
	fs.IntVar(&f.generations, "generations", 0, "Number of generations")
	fs.Float64Var(&f.mutation, "mutation", 0, "Per-gene mutation probability (0-1)")
	fs.IntVar(&f.elite, "elite", 0, "Elite size (at least 2)")
	fs.IntVar(&f.periods, "periods", 0, "Buy/sell periods per genome")
	fs.IntVar(&f.pots, "pots", 0, "Capital pots per period")
	fs.Float64Var(&f.capital, "capital", 0, "Initial capital")
	fs.Int64Var(&f.seed, "seed", 0, "Random seed (0 = time based)")
	fs.IntVar(&f.workers, "workers", 0, "Fitness evaluation workers (0 = all CPUs)")
	fs.DurationVar(&f.maxDuration, "max-duration", 0, "Stop after this much wall time (0 = no limit)")

	fs.StringVar(&f.format, "format", genetic.FormatText, "Result format (text, json, yaml)")
	fs.StringVar(&f.outputFile, "output", "", "Write the result to this file instead of stdout")
	fs.BoolVar(&f.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&f.metrics, "metrics", false, "Serve Prometheus metrics during the run")
	fs.IntVar(&f.metricsPort, "metrics-port", 0, "Prometheus metrics port")
	fs.BoolVar(&f.version, "version", false, "Print version and exit")

	return fs, f
}

// applyOverrides copies explicitly set flags over file and environment values
func applyOverrides(fs *flag.FlagSet, f *cliFlags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "data":
			cfg.Data.Path = f.dataPath
			if !isSet(fs, "source") {
				cfg.Data.Source = "csv"
			}
		case "source":
			cfg.Data.Source = f.source
		case "table":
			cfg.Data.Table = f.table
		case "population":
			cfg.Evolution.PopulationSize = f.population
		case "generations":
			cfg.Evolution.Generations = f.generations
		case "mutation":
			cfg.Evolution.MutationRate = f.mutation
		case "elite":
			cfg.Evolution.EliteSize = f.elite
		case "periods":
			cfg.Evolution.Periods = f.periods
		case "pots":
			cfg.Evolution.Pots = f.pots
		case "capital":
			cfg.Evolution.InitialCapital = f.capital
		case "seed":
			cfg.Evolution.Seed = f.seed
		case "workers":
			cfg.Evolution.Workers = f.workers
		case "max-duration":
			cfg.Evolution.MaxDuration = f.maxDuration
		case "metrics":
			cfg.Monitoring.EnableMetrics = f.metrics
		case "metrics-port":
			cfg.Monitoring.PrometheusPort = f.metricsPort
		case "verbose":
			if f.verbose {
				cfg.App.LogLevel = "debug"
			}
		}
	})
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// ============================================================================
// MAIN
// ============================================================================

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfigError
	}

	if f.version {
		fmt.Fprintf(stdout, "evolve %s\n", config.GetVersion())
		return exitOK
	}

	cfg, err := config.Read(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfigError
	}
	applyOverrides(fs, f, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfigError
	}
	switch strings.ToLower(f.format) {
	case genetic.FormatText, genetic.FormatJSON, genetic.FormatYAML:
	default:
		fmt.Fprintf(stderr, "Error: unknown format %q (available: text, json, yaml)\n", f.format)
		return exitConfigError
	}

	lc := config.LoggerConfigFrom(cfg)
	lc.Output = stderr
	if closer := config.Setup(lc); closer != nil {
		defer func() { _ = closer.Close() }()
	}

	runID := uuid.NewString()
	log := config.NewRunLogger("cli", runID)

	if err := execute(ctx, cfg, f, runID, stdout, log); err != nil {
		log.Error().Err(err).Msg("Evolution failed")
		if errors.Is(err, genetic.ErrConfiguration) {
			return exitConfigError
		}
		return exitFailure
	}

	return exitOK
}

// ============================================================================
// EVOLUTION EXECUTION
// ============================================================================

func execute(ctx context.Context, cfg *config.Config, f *cliFlags, runID string, stdout io.Writer, log zerolog.Logger) error {
	validator := config.NewValidator(cfg, config.DefaultValidatorOptions())
	if err := validator.ValidateStartup(ctx); err != nil {
		return err
	}

	table, universe, err := loadPrices(ctx, cfg, validator, log)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder(runID)
	if cfg.Monitoring.EnableMetrics {
		server := metrics.NewServer(cfg.Monitoring.PrometheusPort, recorder, config.NewRunLogger("metrics", runID))
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Metrics server shutdown failed")
			}
		}()
	}

	engine, err := genetic.NewEngine(cfg.Evolution.Genetic(), table, universe,
		genetic.WithReporter(recorder),
		genetic.WithRunID(runID),
	)
	if err != nil {
		return err
	}

	log.Info().
		Int("population", cfg.Evolution.PopulationSize).
		Int("generations", cfg.Evolution.Generations).
		Float64("mutation_rate", cfg.Evolution.MutationRate).
		Int("elite", cfg.Evolution.EliteSize).
		Int64("seed", engine.Seed()).
		Msg("Starting evolution")

	result, err := engine.Run(ctx)
	metrics.RecordRun(result, err)
	if err != nil {
		return err
	}

	out, err := result.Render(f.format)
	if err != nil {
		return err
	}

	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, out, 0o600); err != nil {
			return fmt.Errorf("failed to write result to %s: %w", f.outputFile, err)
		}
		log.Info().Str("file", f.outputFile).Msg("Result written to file")
		return nil
	}

	_, err = stdout.Write(out)
	return err
}

// ============================================================================
// DATA LOADING
// ============================================================================

func loadPrices(ctx context.Context, cfg *config.Config, validator *config.Validator, log zerolog.Logger) (*prices.Table, prices.Universe, error) {
	var (
		table    *prices.Table
		universe prices.Universe
		stats    *prices.LoadStats
		err      error
	)

	switch cfg.Data.Source {
	case "postgres":
		pool, connErr := prices.Connect(ctx, cfg.Database.GetDSN())
		if connErr != nil {
			return nil, nil, connErr
		}
		defer pool.Close()

		table, universe, stats, err = prices.NewPostgresSource(pool, cfg.Data.Table).Load(ctx)
	default:
		cache, closeCache := openCache(ctx, cfg, validator, log)
		defer closeCache()

		table, universe, stats, err = prices.NewFileLoader(cache).Load(ctx, cfg.Data.Path)
		switch {
		case err != nil:
		case cache == nil:
			metrics.RecordCacheLookup(metrics.CacheResultDisabled)
		case stats == nil:
			metrics.RecordCacheLookup(metrics.CacheResultHit)
		default:
			metrics.RecordCacheLookup(metrics.CacheResultMiss)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordLoad(table, universe, stats)

	event := log.Info().
		Str("source", cfg.Data.Source).
		Int("days", table.Len()).
		Int("codes", len(universe))
	if stats != nil {
		event = event.
			Int("rows", stats.Rows).
			Int("admitted", stats.Admitted).
			Int("skipped", stats.TotalSkipped())
	}
	event.Msg("Price table loaded")

	if len(universe) == 0 {
		return nil, nil, fmt.Errorf("%w: no valid price rows in %s source", genetic.ErrConfiguration, cfg.Data.Source)
	}

	return table, universe, nil
}

// openCache returns the Redis table cache, or nil when disabled or unreachable
func openCache(ctx context.Context, cfg *config.Config, validator *config.Validator, log zerolog.Logger) (*prices.RedisTableCache, func()) {
	noop := func() {}
	if !cfg.Redis.Enabled {
		return nil, noop
	}

	if err := validator.CheckRedis(ctx); err != nil {
		log.Warn().Err(err).Msg("Price cache unavailable, parsing without cache")
		return nil, noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return prices.NewRedisTableCache(client, cfg.Redis.TTL), func() { _ = client.Close() }
}
