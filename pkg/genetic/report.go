package genetic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// PROGRESS
// ============================================================================

// GenerationStats summarizes one generation
type GenerationStats struct {
	Generation int           `json:"generation" yaml:"generation"` // 1-based
	Best       float64       `json:"best" yaml:"best"`
	Mean       float64       `json:"mean" yaml:"mean"`
	StdDev     float64       `json:"std_dev" yaml:"std_dev"`
	Worst      float64       `json:"worst" yaml:"worst"`
	Mutations  int           `json:"mutations" yaml:"mutations"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// ProgressReporter receives the stats of every completed generation
type ProgressReporter interface {
	OnGeneration(stats GenerationStats)
}

// ReporterFunc adapts a function to ProgressReporter
type ReporterFunc func(stats GenerationStats)

// OnGeneration implements ProgressReporter
func (f ReporterFunc) OnGeneration(stats GenerationStats) {
	f(stats)
}

func newGenerationStats(generation int, scores []float64, order []int, mutations int, elapsed time.Duration) GenerationStats {
	stats := GenerationStats{
		Generation: generation,
		Mutations:  mutations,
		Elapsed:    elapsed,
	}
	if len(scores) == 0 {
		return stats
	}

	stats.Best = scores[order[0]]
	stats.Worst = scores[order[len(order)-1]]
	if len(scores) < 2 {
		stats.Mean = scores[0]
		return stats
	}

	stats.Mean, stats.StdDev = stat.MeanStdDev(scores, nil)
	if math.IsNaN(stats.StdDev) {
		stats.StdDev = 0
	}
	return stats
}

// ============================================================================
// RESULT
// ============================================================================

// Result is the outcome of an evolution run
type Result struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	Best        Genome            `json:"best" yaml:"best"`
	Value       float64           `json:"value" yaml:"value"`
	Generations []GenerationStats `json:"generations" yaml:"generations"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
	Truncated   bool              `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Output formats accepted by Render
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render encodes the result in the requested format
func (r *Result) Render(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		var buf bytes.Buffer
		if err := r.WriteText(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	case FormatYAML:
		return yaml.Marshal(r)
	default:
		return nil, fmt.Errorf("unknown output format: %s (available: text, json, yaml)", format)
	}
}

// WriteText writes one line per generation, then the best allocation period by period
func (r *Result) WriteText(w io.Writer) error {
	var sb strings.Builder

	for _, g := range r.Generations {
		fmt.Fprintf(&sb, "Generation %d - best value: %.2f (mean %.2f, %d mutations, %s)\n",
			g.Generation, g.Best, g.Mean, g.Mutations, g.Elapsed.Round(time.Microsecond))
	}
	if r.Truncated {
		sb.WriteString("Stopped early: time limit reached\n")
	}

	sb.WriteString("\nBest allocation found:\n")
	for p, period := range r.Best {
		fmt.Fprintf(&sb, "Period %d: [%s]\n", p+1, strings.Join(period, ", "))
	}
	fmt.Fprintf(&sb, "\nFinal value: %.2f\n", r.Value)

	_, err := io.WriteString(w, sb.String())
	return err
}
