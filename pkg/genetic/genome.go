// Package genetic searches for a period-by-period pot allocation with a genetic algorithm
package genetic

import (
	"fmt"
	"math/rand"

	"github.com/ajitpratap0/allocga/internal/prices"
)

// Genome assigns one instrument code to every pot of every period.
// Genome[p][i] is the instrument held by pot i during period p.
type Genome [][]string

// Population is a fixed-size collection of genomes; order carries no meaning
type Population []Genome

// Periods returns the number of periods
func (g Genome) Periods() int {
	return len(g)
}

// Pots returns the number of pots per period, or 0 for an empty genome
func (g Genome) Pots() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Clone returns a deep copy
func (g Genome) Clone() Genome {
	clone := make(Genome, len(g))
	for p, period := range g {
		clone[p] = append([]string(nil), period...)
	}
	return clone
}

// sameShape reports whether both genomes have identical period and pot dimensions
func (g Genome) sameShape(other Genome) bool {
	if len(g) != len(other) {
		return false
	}
	for p := range g {
		if len(g[p]) != len(other[p]) {
			return false
		}
	}
	return true
}

// GenerateIndividual draws every gene uniformly, with replacement, from universe
func GenerateIndividual(rng *rand.Rand, universe prices.Universe, periods, pots int) (Genome, error) {
	if len(universe) == 0 {
		return nil, fmt.Errorf("%w: instrument universe is empty", ErrConfiguration)
	}
	if periods <= 0 || pots <= 0 {
		return nil, fmt.Errorf("%w: periods (%d) and pots (%d) must be positive", ErrConfiguration, periods, pots)
	}

	genome := make(Genome, periods)
	for p := range genome {
		period := make([]string, pots)
		for i := range period {
			period[i] = universe[rng.Intn(len(universe))]
		}
		genome[p] = period
	}
	return genome, nil
}

// GeneratePopulation creates size random individuals
func GeneratePopulation(rng *rand.Rand, size int, universe prices.Universe, periods, pots int) (Population, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: population size %d is negative", ErrConfiguration, size)
	}

	population := make(Population, size)
	for i := range population {
		genome, err := GenerateIndividual(rng, universe, periods, pots)
		if err != nil {
			return nil, err
		}
		population[i] = genome
	}
	return population, nil
}
