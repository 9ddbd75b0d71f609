package prices

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `2024-01-03;PETR4;37,10
2024-01-02;PETR4;36,50
2024-01-02;VALE3;70,05
2024-01-03;VALE3;71,20
2024-01-02;ABC;10,00
2024-01-02;TOOLONG;10,00
2024-01-02;ITUB4;n/a
2024-01-02;BBAS3
2024-01-04; BBDC4 ;15,5
`

func TestLoadCSV(t *testing.T) {
	table, universe, stats, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, table.Dates())
	assert.Equal(t, Universe{"BBDC4", "PETR4", "VALE3"}, universe)

	price, ok := table.Price(0, "PETR4")
	require.True(t, ok)
	assert.Equal(t, 36.50, price)

	price, ok = table.Price(1, "VALE3")
	require.True(t, ok)
	assert.Equal(t, 71.20, price)

	price, ok = table.Price(2, "BBDC4")
	require.True(t, ok)
	assert.Equal(t, 15.5, price)

	_, ok = table.Price(2, "PETR4")
	assert.False(t, ok)

	assert.Equal(t, 9, stats.Rows)
	assert.Equal(t, 5, stats.Admitted)
	assert.Equal(t, 2, stats.Skipped[SkipBadCode])
	assert.Equal(t, 1, stats.Skipped[SkipBadPrice])
	assert.Equal(t, 1, stats.Skipped[SkipShortRow])
	assert.Equal(t, 4, stats.TotalSkipped())
}

func TestLoadCSV_SkipsSilently(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason SkipReason
	}{
		{"short row", "2024-01-02;PETR4\n", SkipShortRow},
		{"single field", "garbage\n", SkipShortRow},
		{"four letter code", "2024-01-02;PETR;10,0\n", SkipBadCode},
		{"six letter code", "2024-01-02;PETR44;10,0\n", SkipBadCode},
		{"empty price", "2024-01-02;PETR4;\n", SkipBadPrice},
		{"text price", "2024-01-02;PETR4;abc\n", SkipBadPrice},
		{"two separators", "2024-01-02;PETR4;1,000,50\n", SkipBadPrice},
		{"zero price", "2024-01-02;PETR4;0,00\n", SkipBadPrice},
		{"five bytes but three characters", "2024-01-02;ÇÇA;1,0\n", SkipBadCode},
		{"misplaced underscore", "2024-01-02;PETR4;_10,0\n", SkipBadPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, universe, stats, err := LoadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, 0, table.Len())
			assert.Empty(t, universe)
			assert.Equal(t, 1, stats.Skipped[tt.reason])
		})
	}
}

func TestLoadCSV_ExtraFieldsIgnored(t *testing.T) {
	table, universe, _, err := LoadCSV(strings.NewReader("2024-01-02;PETR4;10,5;extra\n"))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, Universe{"PETR4"}, universe)

	price, ok := table.Price(0, "PETR4")
	require.True(t, ok)
	assert.Equal(t, 10.5, price)
}

func TestLoadCSV_CodeLengthCountsCharacters(t *testing.T) {
	input := "2024-01-02;AÇÃO3;10,5\n2024-01-02;ÇÇÇÇÇ;1,0\n"
	table, universe, stats, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, Universe{"AÇÃO3", "ÇÇÇÇÇ"}, universe)
	assert.Equal(t, 2, stats.Admitted)
	assert.Equal(t, 0, stats.TotalSkipped())

	price, ok := table.Price(0, "AÇÃO3")
	require.True(t, ok)
	assert.Equal(t, 10.5, price)
}

func TestLoadCSV_DuplicateQuoteOverwrites(t *testing.T) {
	input := "2024-01-02;PETR4;10,0\n2024-01-02;PETR4;11,0\n"
	table, _, stats, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Len(t, table.Days[0].Prices, 1)
	assert.Equal(t, 11.0, table.Days[0].Prices["PETR4"])
	assert.Equal(t, 2, stats.Admitted)
}

func TestLoadCSV_Empty(t *testing.T) {
	table, universe, stats, err := LoadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, universe)
	assert.Equal(t, 0, stats.Rows)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"37,10", 37.10, false},
		{"37.10", 37.10, false},
		{" 5 ", 5, false},
		{"1,5e2", 150, false},
		{"", 0, true},
		{"R$ 10", 0, true},
		{"1_000,5", 1000.5, false},
		{"1_0e1_0", 1e11, false},
		{"_10", 0, true},
		{"10_", 0, true},
		{"1__0", 0, true},
		{"1_,5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestTable_PriceOutOfRange(t *testing.T) {
	table, _ := Build([]Row{{Date: "d1", Code: "AAAAA", Price: 1}})

	_, ok := table.Price(-1, "AAAAA")
	assert.False(t, ok)
	_, ok = table.Price(1, "AAAAA")
	assert.False(t, ok)

	var nilTable *Table
	assert.Equal(t, 0, nilTable.Len())
	_, ok = nilTable.Price(0, "AAAAA")
	assert.False(t, ok)
}

func TestContentKey(t *testing.T) {
	a := ContentKey([]byte(sampleCSV))
	b := ContentKey([]byte(sampleCSV))
	c := ContentKey([]byte(sampleCSV + "\n"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestFileLoader_NoCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	loader := NewFileLoader(nil)
	table, universe, stats, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Len(t, universe, 3)
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.Admitted)
}

func TestFileLoader_MissingFile(t *testing.T) {
	loader := NewFileLoader(nil)
	_, _, _, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
