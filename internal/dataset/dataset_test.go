package dataset

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() LoadOptions {
	return LoadOptions{
		DateColumn:   "Trade Date",
		SymbolColumn: "Ticker Symbol",
		Logger:       testLogger(),
	}
}

const sampleCSV = `Trade Date,Ticker Symbol,Close,CHG%,Volume,Notes
2024-06-10,INFY,1500.5,1.2,100,ok
2024-06-10,TCS,3900,-0.5,,
bad-date,WIPRO,400,2.0,50,x
2024-06-03,INFY,1480,0.8,200,y
`

func TestRead(t *testing.T) {
	t.Run("loads rows and drops unparseable dates", func(t *testing.T) {
		frame, err := Read(strings.NewReader(sampleCSV), testOptions())
		require.NoError(t, err)

		// The WIPRO row has a bad date and must be dropped silently
		assert.Equal(t, 3, frame.Len())
		assert.Equal(t, []string{"Trade Date", "Ticker Symbol", "Close", "CHG%", "Volume", "Notes"}, frame.Columns())
	})

	t.Run("missing date column is fatal", func(t *testing.T) {
		opts := testOptions()
		opts.DateColumn = "Nope"
		_, err := Read(strings.NewReader(sampleCSV), opts)
		assert.ErrorIs(t, err, ErrMissingDateColumn)
	})

	t.Run("missing symbol column is fatal", func(t *testing.T) {
		opts := testOptions()
		opts.SymbolColumn = "Nope"
		_, err := Read(strings.NewReader(sampleCSV), opts)
		assert.ErrorIs(t, err, ErrMissingSymbolColumn)
	})

	t.Run("empty input is fatal", func(t *testing.T) {
		_, err := Read(strings.NewReader(""), testOptions())
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("header only yields empty frame", func(t *testing.T) {
		frame, err := Read(strings.NewReader("Trade Date,Ticker Symbol\n"), testOptions())
		require.NoError(t, err)
		assert.Equal(t, 0, frame.Len())

		_, ok := frame.MinDate()
		assert.False(t, ok)
	})

	t.Run("strips BOM from header", func(t *testing.T) {
		frame, err := Read(strings.NewReader("\uFEFFTrade Date,Ticker Symbol\n2024-06-10,INFY\n"), testOptions())
		require.NoError(t, err)
		assert.True(t, frame.HasColumn("Trade Date"))
		assert.Equal(t, 1, frame.Len())
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"ISO date", "2024-06-10", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), true},
		{"with time", "2024-06-10 15:04:05", time.Date(2024, 6, 10, 15, 4, 5, 0, time.UTC), true},
		{"day month year", "10-Jun-2024", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), true},
		{"slash format", "06/10/2024", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), true},
		{"whitespace trimmed", "  2024-06-10  ", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "not-a-date", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestFrameDates(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	min, ok := frame.MinDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), min)

	max, ok := frame.MaxDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), max)
}

func TestFrameSymbols(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	// Distinct, first-appearance order, dropped row excluded
	assert.Equal(t, []string{"INFY", "TCS"}, frame.Symbols())
}

func TestNumericColumns(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	numeric := frame.NumericColumns()

	// Close and CHG% parse everywhere; Volume has an empty cell but all
	// non-empty cells parse; Notes has text; the date column is excluded
	assert.Equal(t, []string{"Close", "CHG%", "Volume"}, numeric)
}

func TestNumericColumnsAllEmpty(t *testing.T) {
	csv := "Trade Date,Ticker Symbol,Empty\n2024-06-10,INFY,\n2024-06-10,TCS,\n"
	frame, err := Read(strings.NewReader(csv), testOptions())
	require.NoError(t, err)

	// A column with no non-empty cell is not numeric
	assert.NotContains(t, frame.NumericColumns(), "Empty")
}

func TestCoerceNumeric(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	frame.CoerceNumeric("Volume")

	var present, missing int
	for _, r := range frame.Records() {
		if _, ok := r.Num("Volume"); ok {
			present++
		} else {
			missing++
		}
	}
	assert.Equal(t, 2, present)
	assert.Equal(t, 1, missing, "empty cell should coerce to missing, not zero")

	// Idempotent: a second pass must not change anything
	frame.CoerceNumeric("Volume")
	v, ok := frame.Records()[0].Num("Volume")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestCoerceNumericScrubsInfinity(t *testing.T) {
	csv := "Trade Date,Ticker Symbol,X\n2024-06-10,INFY,Inf\n2024-06-10,TCS,2.5\n"
	frame, err := Read(strings.NewReader(csv), testOptions())
	require.NoError(t, err)

	frame.CoerceNumeric("X")

	_, ok := frame.Records()[0].Num("X")
	assert.False(t, ok, "infinity should be scrubbed to missing")

	v, ok := frame.Records()[1].Num("X")
	require.True(t, ok)
	assert.Equal(t, 2.5, v)
}

func TestFilterSharesRecords(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	infy := frame.Filter(func(r *Record) bool { return r.Symbol == "INFY" })
	assert.Equal(t, 2, infy.Len())
	assert.Equal(t, 3, frame.Len(), "source frame must be untouched")

	// Coercion through the filtered view is visible via the shared records
	infy.CoerceNumeric("Close")
	v, ok := infy.Records()[0].Num("Close")
	require.True(t, ok)
	assert.Equal(t, 1500.5, v)
}

func TestSlice(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	tests := []struct {
		name    string
		lo, hi  int
		wantLen int
	}{
		{"middle", 1, 3, 2},
		{"clamped high", 0, 99, 3},
		{"clamped low", -5, 1, 1},
		{"inverted collapses", 3, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLen, frame.Slice(tt.lo, tt.hi).Len())
		})
	}
}

func TestSelectExisting(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), testOptions())
	require.NoError(t, err)

	got := frame.SelectExisting([]string{"Close", "Missing", "Trade Date"})
	assert.Equal(t, []string{"Close", "Trade Date"}, got)
}
