package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/allocga/internal/prices"
	"github.com/ajitpratap0/allocga/pkg/genetic"
)

// Bounded label values
const (
	RunStatusCompleted = "completed"
	RunStatusTruncated = "truncated"
	RunStatusFailed    = "failed"

	CacheResultHit      = "hit"
	CacheResultMiss     = "miss"
	CacheResultDisabled = "disabled"
)

// Evolution Metrics
var (
	// Last completed generation (1-based)
	Generation = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allocga_generation",
		Help: "Last completed generation of the current run",
	})

	// Best simulated portfolio value in the last generation
	BestFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allocga_best_fitness",
		Help: "Best simulated portfolio value of the last generation",
	})

	// Mean simulated portfolio value in the last generation
	MeanFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allocga_mean_fitness",
		Help: "Mean simulated portfolio value of the last generation",
	})

	// Spread of the population
	FitnessStdDev = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allocga_fitness_stddev",
		Help: "Standard deviation of portfolio values in the last generation",
	})

	// Genes redrawn by mutation
	MutationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocga_mutations_total",
		Help: "Total number of genes redrawn by mutation",
	})

	// Wall time per generation
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "allocga_generation_duration_seconds",
		Help:    "Time spent evaluating and breeding one generation",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// Finished runs by outcome
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocga_runs_total",
		Help: "Total number of evolution runs by outcome",
	}, []string{"status"})
)

// Price Data Metrics
var (
	// Rows admitted into the price table
	RowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocga_rows_loaded_total",
		Help: "Total number of price rows admitted into the table",
	})

	// Rows rejected while loading, by reason
	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocga_rows_skipped_total",
		Help: "Total number of price rows skipped while loading",
	}, []string{"reason"})

	// Trading days in the loaded table
	TradingDays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allocga_trading_days",
		Help: "Number of trading days in the loaded price table",
	})

	// Stock codes in the loaded universe
	UniverseSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "allocga_universe_size",
		Help: "Number of distinct stock codes in the loaded universe",
	})

	// Price table cache lookups
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocga_cache_lookups_total",
		Help: "Total number of price table cache lookups by result",
	}, []string{"result"})
)

// Metrics Server Metrics
var (
	// Requests served by the metrics server
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocga_http_requests_total",
		Help: "Total number of requests served by the metrics server",
	}, []string{"method", "path", "status"})
)

// Helper functions to update metrics

// RecordLoad records the outcome of loading a price table. stats is nil when
// the table came from the cache.
func RecordLoad(table *prices.Table, universe prices.Universe, stats *prices.LoadStats) {
	TradingDays.Set(float64(table.Len()))
	UniverseSize.Set(float64(len(universe)))

	if stats == nil {
		return
	}
	RowsLoaded.Add(float64(stats.Admitted))
	for reason, count := range stats.Skipped {
		RowsSkipped.WithLabelValues(string(reason)).Add(float64(count))
	}
}

// RecordCacheLookup records a price table cache lookup
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordRun records a finished evolution run
func RecordRun(result *genetic.Result, err error) {
	switch {
	case err != nil:
		RunsTotal.WithLabelValues(RunStatusFailed).Inc()
	case result.Truncated:
		RunsTotal.WithLabelValues(RunStatusTruncated).Inc()
	default:
		RunsTotal.WithLabelValues(RunStatusCompleted).Inc()
	}
}

// RecordHTTPRequest records a request served by the metrics server
func RecordHTTPRequest(method, path, statusCode string) {
	HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
}

// Recorder publishes generation progress as Prometheus metrics and keeps the
// latest stats for the /progress endpoint
type Recorder struct {
	mu     sync.RWMutex
	runID  string
	latest *genetic.GenerationStats
}

// NewRecorder creates a progress recorder for one run
func NewRecorder(runID string) *Recorder {
	return &Recorder{runID: runID}
}

// OnGeneration implements genetic.ProgressReporter
func (r *Recorder) OnGeneration(stats genetic.GenerationStats) {
	Generation.Set(float64(stats.Generation))
	BestFitness.Set(stats.Best)
	MeanFitness.Set(stats.Mean)
	FitnessStdDev.Set(stats.StdDev)
	MutationsTotal.Add(float64(stats.Mutations))
	GenerationDuration.Observe(stats.Elapsed.Seconds())

	r.mu.Lock()
	latest := stats
	r.latest = &latest
	r.mu.Unlock()
}

// Latest returns the most recent generation stats, if any
func (r *Recorder) Latest() (genetic.GenerationStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latest == nil {
		return genetic.GenerationStats{}, false
	}
	return *r.latest, true
}

// RunID returns the run the recorder belongs to
func (r *Recorder) RunID() string {
	return r.runID
}
