package genetic

import (
	"context"
	"fmt"
	"sort"
)

// Rank returns population indices ordered by descending score.
// Equal scores keep their original order.
func Rank(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// SelectBest returns the k highest-scoring genomes, best first, and the best score.
// scores must hold one precomputed fitness value per genome.
func SelectBest(population Population, scores []float64, k int) ([]Genome, float64, error) {
	if len(scores) != len(population) {
		return nil, 0, fmt.Errorf("%w: %d scores for %d genomes", ErrInvalidArgument, len(scores), len(population))
	}
	if k < 1 || k > len(population) {
		return nil, 0, fmt.Errorf("%w: cannot select %d of %d genomes", ErrInvalidArgument, k, len(population))
	}

	order := Rank(scores)
	top := make([]Genome, k)
	for i := range top {
		top[i] = population[order[i]]
	}
	return top, scores[order[0]], nil
}

// SelectBest evaluates every genome once and returns the k best and the best value
func (e *Evaluator) SelectBest(ctx context.Context, population Population, k int) ([]Genome, float64, error) {
	if k < 1 || k > len(population) {
		return nil, 0, fmt.Errorf("%w: cannot select %d of %d genomes", ErrInvalidArgument, k, len(population))
	}

	scores, err := e.EvaluatePopulation(ctx, population)
	if err != nil {
		return nil, 0, err
	}
	return SelectBest(population, scores, k)
}
