package filters

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fodash/internal/dataset"
)

func loadFrame(t *testing.T, csv string) *dataset.Frame {
	t.Helper()
	frame, err := dataset.Read(strings.NewReader(csv), dataset.LoadOptions{
		DateColumn:   "Trade Date",
		SymbolColumn: "Ticker Symbol",
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return frame
}

const engineCSV = `Trade Date,Ticker Symbol,CHG%,Change OI
2024-06-10,A,5,-10
2024-06-10,B,-3,20
2024-06-10,C,2,30
2024-06-10,D,8,
2024-06-10,E,-1,-5
`

func fptr(v float64) *float64 { return &v }

func symbolsOf(frame *dataset.Frame) []string {
	out := make([]string, 0, frame.Len())
	for _, r := range frame.Records() {
		out = append(out, r.Symbol)
	}
	return out
}

func TestApplySignFilters(t *testing.T) {
	t.Run("positive mode drops non-positive rows", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive},
		})
		require.NoError(t, err)

		assert.Equal(t, 3, working.Len()) // A, C, D
		require.Len(t, ranges, 1)
		assert.True(t, ranges[0].HasRange)
		assert.Equal(t, 2.0, ranges[0].Min)
		assert.Equal(t, 8.0, ranges[0].Max)
	})

	t.Run("negative mode keeps only negative rows", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignNegative},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, working.Len()) // B, E
		assert.Equal(t, -3.0, ranges[0].Min)
		assert.Equal(t, -1.0, ranges[0].Max)
	})

	t.Run("all mode keeps everything but still offers bounds", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignAll},
		})
		require.NoError(t, err)

		assert.Equal(t, 5, working.Len())
		assert.Equal(t, -3.0, ranges[0].Min)
		assert.Equal(t, 8.0, ranges[0].Max)
	})

	t.Run("later fields see the narrowed working set", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		// CHG% positive leaves A, C, D; Change OI bounds are then
		// computed over that set (-10, 30, missing), not the full frame
		_, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive},
			{Field: "Change OI", Sign: SignAll},
		})
		require.NoError(t, err)

		require.Len(t, ranges, 2)
		assert.Equal(t, -10.0, ranges[1].Min)
		assert.Equal(t, 30.0, ranges[1].Max)
	})

	t.Run("stacked sign filters narrow cumulatively", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		working, _, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive},   // A, C, D
			{Field: "Change OI", Sign: SignPositive}, // C only; D's missing value fails
		})
		require.NoError(t, err)

		require.Equal(t, 1, working.Len())
		assert.Equal(t, "C", working.Records()[0].Symbol)
	})

	t.Run("user range is clamped to offered bounds", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		_, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive, Lo: fptr(-100), Hi: fptr(4)},
		})
		require.NoError(t, err)

		assert.Equal(t, 2.0, ranges[0].Lo, "lo below bounds clamps to min")
		assert.Equal(t, 4.0, ranges[0].Hi)
	})

	t.Run("inverted user range is swapped", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		_, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignAll, Lo: fptr(6), Hi: fptr(1)},
		})
		require.NoError(t, err)

		assert.LessOrEqual(t, ranges[0].Lo, ranges[0].Hi)
	})

	t.Run("no finite values yields no range", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		// Positive filter on Change OI then negative on CHG% leaves
		// nothing, so the CHG% bounds cannot be offered
		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive},
			{Field: "Change OI", Sign: SignPositive},
			{Field: "CHG%", Sign: SignNegative},
		})
		require.NoError(t, err)

		assert.Equal(t, 0, working.Len())
		assert.False(t, ranges[2].HasRange)
	})

	t.Run("unknown column is an error", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		_, _, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "Nope", Sign: SignAll},
		})
		assert.ErrorIs(t, err, ErrColumnNotFound)
		assert.ErrorContains(t, err, `"Nope"`)
	})

	t.Run("invalid sign mode is an error", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		_, _, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignMode("sideways")},
		})
		assert.ErrorContains(t, err, "invalid sign mode")
	})

	t.Run("final row set is independent of field order", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		// The intermediate bounds differ by order, the surviving rows
		// must not
		ab, _, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive},
			{Field: "Change OI", Sign: SignPositive},
		})
		require.NoError(t, err)

		ba, _, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "Change OI", Sign: SignPositive},
			{Field: "CHG%", Sign: SignPositive},
		})
		require.NoError(t, err)

		assert.Equal(t, symbolsOf(ab), symbolsOf(ba))
		assert.Equal(t, []string{"C"}, symbolsOf(ab))
	})

	t.Run("source frame is not mutated", func(t *testing.T) {
		frame := loadFrame(t, engineCSV)

		_, _, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignPositive},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, frame.Len())
	})
}
