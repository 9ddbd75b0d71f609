package genetic

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/allocga/internal/prices"
)

// Evaluator simulates a genome against a price table.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	table          *prices.Table
	initialCapital float64
	workers        int
}

// NewEvaluator creates an evaluator. workers <= 1 evaluates sequentially.
func NewEvaluator(table *prices.Table, initialCapital float64, workers int) *Evaluator {
	if workers < 1 {
		workers = 1
	}
	return &Evaluator{
		table:          table,
		initialCapital: initialCapital,
		workers:        workers,
	}
}

// SimulatedPeriods returns how many periods of a genome the table can support:
// one buy day and the following sell day per period
func (e *Evaluator) SimulatedPeriods(g Genome) int {
	pairs := (e.table.Len() - 1) / 2
	if pairs < 0 {
		pairs = 0
	}
	return min(len(g), pairs)
}

// Evaluate returns the portfolio value after compounding every simulated period.
//
// Each period splits the running total into equal pot shares, buys on day 2p and
// sells on day 2p+1. A pot whose instrument has no price on either day keeps its
// share unchanged.
func (e *Evaluator) Evaluate(g Genome) float64 {
	total := e.initialCapital
	periods := e.SimulatedPeriods(g)

	for p := 0; p < periods; p++ {
		assignments := g[p]
		if len(assignments) == 0 {
			continue
		}

		buy := e.table.Days[2*p].Prices
		sell := e.table.Days[2*p+1].Prices
		share := total / float64(len(assignments))

		next := 0.0
		for _, code := range assignments {
			buyPrice, okBuy := buy[code]
			sellPrice, okSell := sell[code]
			if !okBuy || !okSell {
				next += share
				continue
			}
			next += share / buyPrice * sellPrice
		}
		total = next
	}

	return total
}

// EvaluatePopulation scores every genome, fanning out over the worker pool.
// scores[i] belongs to population[i].
func (e *Evaluator) EvaluatePopulation(ctx context.Context, population Population) ([]float64, error) {
	scores := make([]float64, len(population))

	if e.workers <= 1 {
		for i, g := range population {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scores[i] = e.Evaluate(g)
		}
		return scores, nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)

	for i, g := range population {
		i, g := i, g
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = e.Evaluate(g)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
