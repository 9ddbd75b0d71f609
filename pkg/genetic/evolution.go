package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/allocga/internal/prices"
)

// Engine runs the generational loop: evaluate, keep the elite, breed the rest
type Engine struct {
	cfg       Config
	universe  prices.Universe
	evaluator *Evaluator
	rng       *rand.Rand
	seed      int64
	reporters []ProgressReporter
	log       zerolog.Logger
	runID     string
}

// Option customizes an Engine
type Option func(*Engine)

// WithReporter registers a progress reporter
func WithReporter(r ProgressReporter) Option {
	return func(e *Engine) {
		e.reporters = append(e.reporters, r)
	}
}

// WithLogger replaces the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRunID sets the identifier attached to logs and the result
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// NewEngine validates cfg and prepares a run over table.
// The random source is seeded from cfg.Seed, or from the clock when it is 0.
func NewEngine(cfg Config, table *prices.Table, universe prices.Universe, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("%w: instrument universe is empty", ErrConfiguration)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:       cfg,
		universe:  universe,
		evaluator: NewEvaluator(table, cfg.InitialCapital, cfg.Workers),
		rng:       rand.New(rand.NewSource(seed)), // #nosec G404 -- reproducible search, not security sensitive
		seed:      seed,
		log:       log.With().Str("component", "evolution").Logger(),
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("run_id", e.runID).Logger()

	return e, nil
}

// Seed returns the seed actually used by the random source
func (e *Engine) Seed() int64 {
	return e.seed
}

// Evaluator exposes the fitness evaluator bound to this run
func (e *Engine) Evaluator() *Evaluator {
	return e.evaluator
}

// Run evolves the population and returns the best genome of the final population.
// When MaxDuration elapses the loop stops after the current generation and the
// result is marked Truncated.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	e.log.Info().
		Int("population", e.cfg.PopulationSize).
		Int("generations", e.cfg.Generations).
		Float64("mutation_rate", e.cfg.MutationRate).
		Int("elite", e.cfg.EliteSize).
		Int("periods", e.cfg.Periods).
		Int("pots", e.cfg.Pots).
		Int("instruments", len(e.universe)).
		Int64("seed", e.seed).
		Msg("Starting genetic algorithm optimization")

	population, err := GeneratePopulation(e.rng, e.cfg.PopulationSize, e.universe, e.cfg.Periods, e.cfg.Pots)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       e.runID,
		Generations: make([]GenerationStats, 0, e.cfg.Generations),
	}

	for gen := 0; gen < e.cfg.Generations; gen++ {
		genStart := time.Now()

		scores, err := e.evaluator.EvaluatePopulation(ctx, population)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen+1, err)
		}

		order := Rank(scores)
		elite := make([]Genome, e.cfg.EliteSize)
		for i := range elite {
			elite[i] = population[order[i]]
		}

		next, mutations, err := e.reproduce(elite)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen+1, err)
		}

		stats := newGenerationStats(gen+1, scores, order, mutations, time.Since(genStart))
		result.Generations = append(result.Generations, stats)
		e.report(stats)

		population = next

		if e.cfg.MaxDuration > 0 && gen < e.cfg.Generations-1 && time.Since(startTime) >= e.cfg.MaxDuration {
			e.log.Warn().
				Int("generation", gen+1).
				Dur("max_duration", e.cfg.MaxDuration).
				Msg("Time limit reached, stopping evolution")
			result.Truncated = true
			break
		}
	}

	scores, err := e.evaluator.EvaluatePopulation(ctx, population)
	if err != nil {
		return nil, fmt.Errorf("final selection: %w", err)
	}
	best, value, err := SelectBest(population, scores, 1)
	if err != nil {
		return nil, fmt.Errorf("final selection: %w", err)
	}

	result.Best = best[0]
	result.Value = value
	result.Duration = time.Since(startTime)

	e.log.Info().
		Int("generations", len(result.Generations)).
		Float64("best_value", value).
		Dur("duration", result.Duration).
		Msg("Genetic algorithm optimization complete")

	return result, nil
}

// reproduce builds the next population: the elite verbatim, then children of two
// distinct elite parents, each mutated once
func (e *Engine) reproduce(elite []Genome) (Population, int, error) {
	next := make(Population, 0, e.cfg.PopulationSize)
	next = append(next, elite...)

	mutations := 0
	for len(next) < e.cfg.PopulationSize {
		i, j := drawParents(e.rng, len(elite))

		child, err := Crossover(e.rng, elite[i], elite[j])
		if err != nil {
			return nil, 0, err
		}

		n, err := Mutate(e.rng, child, e.universe, e.cfg.MutationRate)
		if err != nil {
			return nil, 0, err
		}
		mutations += n
		next = append(next, child)
	}

	return next, mutations, nil
}

func (e *Engine) report(stats GenerationStats) {
	e.log.Info().
		Int("generation", stats.Generation).
		Int("total", e.cfg.Generations).
		Float64("best_value", stats.Best).
		Float64("avg_value", stats.Mean).
		Float64("worst_value", stats.Worst).
		Int("mutations", stats.Mutations).
		Dur("elapsed", stats.Elapsed).
		Msg("Generation complete")

	for _, r := range e.reporters {
		r.OnGeneration(stats)
	}
}
