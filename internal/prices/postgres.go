package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PoolInterface defines the subset of pgxpool.Pool the source needs
type PoolInterface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Connect opens a PostgreSQL pool for the given DSN
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Database connection pool created successfully")
	return pool, nil
}

// PostgresSource reads daily quotes from a quotes table
// with columns (trade_date text, code text, price double precision)
type PostgresSource struct {
	pool  PoolInterface
	table string
}

// NewPostgresSource creates a source reading from table (default "quotes")
func NewPostgresSource(pool PoolInterface, table string) *PostgresSource {
	if table == "" {
		table = "quotes"
	}
	return &PostgresSource{pool: pool, table: table}
}

// Load reads every quote, applying the same admission rules as the CSV reader
func (s *PostgresSource) Load(ctx context.Context) (*Table, Universe, *LoadStats, error) {
	query := fmt.Sprintf(`
		SELECT trade_date, code, price
		FROM %s
		WHERE price IS NOT NULL
		ORDER BY trade_date ASC
	`, pgx.Identifier{s.table}.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	stats := newLoadStats()
	var admitted []Row

	for rows.Next() {
		var (
			date, code string
			price      float64
		)
		if err := rows.Scan(&date, &code, &price); err != nil {
			return nil, nil, nil, fmt.Errorf("scan failed: %w", err)
		}

		stats.Rows++
		row, reason, ok := admit(strings.TrimSpace(date), strings.TrimSpace(code), price)
		if !ok {
			stats.skip(reason)
			continue
		}
		stats.Admitted++
		admitted = append(admitted, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	table, universe := Build(admitted)

	log.Info().
		Str("table", s.table).
		Int("rows", stats.Rows).
		Int("days", table.Len()).
		Int("instruments", len(universe)).
		Msg("Loaded price data from database")

	return table, universe, stats, nil
}
