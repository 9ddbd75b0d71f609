// Package prices builds the immutable daily price table the genetic search runs against
package prices

import (
	"math"
	"sort"
	"unicode/utf8"
)

// CodeLength is the exact length an instrument code must have after trimming
const CodeLength = 5

// Day holds the closing prices recorded for one trading day
type Day struct {
	Date   string             `json:"date" msgpack:"date"`
	Prices map[string]float64 `json:"prices" msgpack:"prices"`
}

// Table is the chronological sequence of trading days.
// It is built once and never mutated, so it can be shared across goroutines.
type Table struct {
	Days []Day `json:"days" msgpack:"days"`
}

// Universe is the set of instrument codes present in a Table, sorted
type Universe []string

// Row is a single admitted quote
type Row struct {
	Date  string
	Code  string
	Price float64
}

// Len returns the number of trading days
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Days)
}

// Price returns the closing price of code on the given day index
func (t *Table) Price(day int, code string) (float64, bool) {
	if t == nil || day < 0 || day >= len(t.Days) {
		return 0, false
	}
	p, ok := t.Days[day].Prices[code]
	return p, ok
}

// Dates returns the ordered day labels
func (t *Table) Dates() []string {
	dates := make([]string, t.Len())
	for i, d := range t.Days {
		dates[i] = d.Date
	}
	return dates
}

// Build groups rows by their literal date, orders the days and collects the universe.
// Days are ordered by sorting the date strings, so dates must sort chronologically
// (e.g. ISO 8601). A later row for the same date and code replaces an earlier one.
func Build(rows []Row) (*Table, Universe) {
	index := make(map[string]int)
	var dates []string
	codes := make(map[string]struct{})

	for _, r := range rows {
		if _, ok := index[r.Date]; !ok {
			index[r.Date] = 0
			dates = append(dates, r.Date)
		}
		codes[r.Code] = struct{}{}
	}

	sort.Strings(dates)
	for i, d := range dates {
		index[d] = i
	}

	table := &Table{Days: make([]Day, len(dates))}
	for i, d := range dates {
		table.Days[i] = Day{Date: d, Prices: make(map[string]float64)}
	}
	for _, r := range rows {
		table.Days[index[r.Date]].Prices[r.Code] = r.Price
	}

	universe := make(Universe, 0, len(codes))
	for c := range codes {
		universe = append(universe, c)
	}
	sort.Strings(universe)

	return table, universe
}

// SkipReason classifies a rejected input row
type SkipReason string

const (
	SkipShortRow  SkipReason = "short_row"
	SkipBadCode   SkipReason = "bad_code"
	SkipBadPrice  SkipReason = "bad_price"
	SkipMalformed SkipReason = "malformed"
)

// LoadStats counts what happened to the input rows.
// Rejected rows are not errors; they are only counted.
type LoadStats struct {
	Rows     int                `json:"rows"`
	Admitted int                `json:"admitted"`
	Skipped  map[SkipReason]int `json:"skipped"`
}

func newLoadStats() *LoadStats {
	return &LoadStats{Skipped: make(map[SkipReason]int)}
}

func (s *LoadStats) skip(reason SkipReason) {
	s.Skipped[reason]++
}

// TotalSkipped returns the number of rejected rows
func (s *LoadStats) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// admit applies the admission rules shared by every source
func admit(date, code string, price float64) (Row, SkipReason, bool) {
	if !validCode(code) {
		return Row{}, SkipBadCode, false
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return Row{}, SkipBadPrice, false
	}
	return Row{Date: date, Code: code, Price: price}, "", true
}

// validCode reports whether code is exactly CodeLength characters long
func validCode(code string) bool {
	return utf8.RuneCountInString(code) == CodeLength
}
