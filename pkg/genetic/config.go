package genetic

import (
	"fmt"
	"runtime"
	"time"
)

// Config holds the tunables of one evolution run
type Config struct {
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Generations    int     `json:"generations" yaml:"generations"`
	MutationRate   float64 `json:"mutation_rate" yaml:"mutation_rate"`
	EliteSize      int     `json:"elite_size" yaml:"elite_size"`
	Periods        int     `json:"periods" yaml:"periods"`
	Pots           int     `json:"pots" yaml:"pots"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`

	// Seed of the random source; 0 picks a time-based seed
	Seed int64 `json:"seed" yaml:"seed"`
	// Workers bounds parallel fitness evaluation
	Workers int `json:"workers" yaml:"workers"`
	// MaxDuration stops evolution early once exceeded; 0 disables it
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration"`
}

// DefaultConfig returns the classic 100 x 50 generation setup over 12 periods of 10 pots
func DefaultConfig() Config {
	return Config{
		PopulationSize: 100,
		Generations:    50,
		MutationRate:   0.05,
		EliteSize:      5,
		Periods:        12,
		Pots:           10,
		InitialCapital: 1000.0,
		Workers:        runtime.NumCPU(),
	}
}

// Validate checks that the configuration can drive an evolution run
func (c Config) Validate() error {
	switch {
	case c.Periods <= 0:
		return fmt.Errorf("%w: periods must be positive, got %d", ErrConfiguration, c.Periods)
	case c.Pots <= 0:
		return fmt.Errorf("%w: pots must be positive, got %d", ErrConfiguration, c.Pots)
	case c.EliteSize < 2:
		return fmt.Errorf("%w: elite size must be at least 2, got %d", ErrConfiguration, c.EliteSize)
	case c.PopulationSize <= c.EliteSize:
		return fmt.Errorf("%w: population size %d must exceed elite size %d", ErrConfiguration, c.PopulationSize, c.EliteSize)
	case !(c.MutationRate >= 0 && c.MutationRate <= 1):
		return fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrConfiguration, c.MutationRate)
	case c.Generations < 0:
		return fmt.Errorf("%w: generations must not be negative, got %d", ErrConfiguration, c.Generations)
	case c.InitialCapital <= 0:
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrConfiguration, c.InitialCapital)
	case c.MaxDuration < 0:
		return fmt.Errorf("%w: max duration must not be negative", ErrConfiguration)
	}
	return nil
}
