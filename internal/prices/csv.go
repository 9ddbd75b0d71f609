package prices

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadCSV reads semicolon-delimited "date;code;price" rows.
// Prices use a comma as the decimal separator. Short rows, codes that are not
// exactly CodeLength characters, and unparseable prices are skipped silently.
func LoadCSV(r io.Reader) (*Table, Universe, *LoadStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	stats := newLoadStats()
	var rows []Row

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Rows++
				stats.skip(SkipMalformed)
				continue
			}
			return nil, nil, nil, fmt.Errorf("failed to read price data: %w", err)
		}

		stats.Rows++
		row, reason, ok := parseRecord(record)
		if !ok {
			stats.skip(reason)
			continue
		}
		stats.Admitted++
		rows = append(rows, row)
	}

	table, universe := Build(rows)

	log.Debug().
		Int("rows", stats.Rows).
		Int("admitted", stats.Admitted).
		Int("skipped", stats.TotalSkipped()).
		Int("days", table.Len()).
		Int("instruments", len(universe)).
		Msg("Parsed price data")

	return table, universe, stats, nil
}

func parseRecord(record []string) (Row, SkipReason, bool) {
	if len(record) < 3 {
		return Row{}, SkipShortRow, false
	}

	date := strings.TrimSpace(record[0])
	code := strings.TrimSpace(record[1])
	if !validCode(code) {
		return Row{}, SkipBadCode, false
	}

	price, err := ParseDecimal(record[2])
	if err != nil {
		return Row{}, SkipBadPrice, false
	}

	return admit(date, code, price)
}

// ParseDecimal converts a price written with a comma decimal separator.
// Underscores are accepted between digits as grouping ("1_000,5").
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if strings.Contains(s, "_") {
		grouped, err := stripDigitGroups(s)
		if err != nil {
			return 0, err
		}
		s = grouped
	}
	return strconv.ParseFloat(s, 64)
}

func stripDigitGroups(s string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			sb.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", fmt.Errorf("invalid digit grouping in %q", s)
		}
	}
	return sb.String(), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ContentKey returns a stable digest of raw price data, used as a cache key
func ContentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileLoader loads a CSV price file, consulting an optional cache first
type FileLoader struct {
	cache *RedisTableCache
}

// NewFileLoader creates a loader. cache may be nil.
func NewFileLoader(cache *RedisTableCache) *FileLoader {
	return &FileLoader{cache: cache}
}

// Load reads path and returns its table and universe.
// stats is nil when the table came from the cache.
func (l *FileLoader) Load(ctx context.Context, path string) (*Table, Universe, *LoadStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	key := ContentKey(data)
	if table, universe, ok := l.cache.Get(ctx, key); ok {
		log.Info().
			Str("file", path).
			Int("days", table.Len()).
			Msg("Loaded price table from cache")
		return table, universe, nil, nil
	}

	table, universe, stats, err := LoadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, nil, nil, err
	}

	if l.cache != nil {
		_ = l.cache.Set(ctx, key, table, universe) // cache failures are logged by the cache
	}

	return table, universe, stats, nil
}
