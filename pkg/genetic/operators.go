package genetic

import (
	"fmt"
	"math/rand"

	"github.com/ajitpratap0/allocga/internal/prices"
)

// Crossover builds a child gene by gene, taking each gene from parent1 or
// parent2 with equal probability (uniform crossover)
func Crossover(rng *rand.Rand, parent1, parent2 Genome) (Genome, error) {
	if !parent1.sameShape(parent2) {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			parent1.Periods(), parent1.Pots(), parent2.Periods(), parent2.Pots())
	}

	child := make(Genome, len(parent1))
	for p := range parent1 {
		genes := make([]string, len(parent1[p]))
		for i := range genes {
			if rng.Float64() < 0.5 {
				genes[i] = parent1[p][i]
			} else {
				genes[i] = parent2[p][i]
			}
		}
		child[p] = genes
	}
	return child, nil
}

// Mutate replaces each gene, with probability rate, by a fresh draw from universe.
// The genome is modified in place; the number of replaced genes is returned.
func Mutate(rng *rand.Rand, genome Genome, universe prices.Universe, rate float64) (int, error) {
	if !(rate >= 0 && rate <= 1) {
		return 0, fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrConfiguration, rate)
	}
	if len(universe) == 0 {
		return 0, fmt.Errorf("%w: instrument universe is empty", ErrConfiguration)
	}

	mutations := 0
	for p := range genome {
		for i := range genome[p] {
			if rng.Float64() < rate {
				genome[p][i] = universe[rng.Intn(len(universe))]
				mutations++
			}
		}
	}
	return mutations, nil
}

// drawParents picks two distinct indices in [0, n) uniformly
func drawParents(rng *rand.Rand, n int) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
