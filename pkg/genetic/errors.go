package genetic

import "errors"

var (
	// ErrConfiguration reports invalid or inconsistent tunables
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch reports genomes of different shapes meeting in crossover
	ErrDimensionMismatch = errors.New("genome dimension mismatch")

	// ErrInvalidArgument reports a selection larger than the population
	ErrInvalidArgument = errors.New("invalid argument")
)
