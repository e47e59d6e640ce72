package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compositorCSV = `Trade Date,Ticker Symbol,CHG%
2024-06-10,A,5
2024-06-10,B,-3
2024-06-09,A,2
2024-06-01,C,8
2024-06-10,D,
`

func TestApply(t *testing.T) {
	window := DateWindow{Start: day(2024, 6, 9), End: day(2024, 6, 10)}

	t.Run("symbol membership", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		got := Apply(frame, FilterSet{
			Symbols: []string{"A"},
			Window:  window,
		})
		assert.Equal(t, 2, got.Len())
	})

	t.Run("all symbols bypasses membership", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		got := Apply(frame, FilterSet{
			AllSymbols: true,
			Window:     window,
		})
		assert.Equal(t, 4, got.Len(), "C falls outside the window")
	})

	t.Run("all symbols still drops rows without a symbol", func(t *testing.T) {
		frame := loadFrame(t, "Trade Date,Ticker Symbol,CHG%\n2024-06-10,A,5\n2024-06-10,,7\n")

		got := Apply(frame, FilterSet{
			AllSymbols: true,
			Window:     window,
		})
		require.Equal(t, 1, got.Len())
		assert.Equal(t, "A", got.Records()[0].Symbol)
	})

	t.Run("empty selection with all symbols off matches nothing", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		got := Apply(frame, FilterSet{Window: window})
		assert.Equal(t, 0, got.Len())
	})

	t.Run("range predicate with missing value failing", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignAll},
		})
		require.NoError(t, err)

		got := Apply(working, FilterSet{
			AllSymbols: true,
			Window:     window,
			Ranges:     ranges,
		})

		// D's CHG% is missing and must fail the range predicate even
		// though the offered range spans all finite values
		assert.Equal(t, 3, got.Len())
		for _, r := range got.Records() {
			assert.NotEqual(t, "D", r.Symbol)
		}
	})

	t.Run("sub-range narrows further", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignAll, Lo: fptr(0), Hi: fptr(4)},
		})
		require.NoError(t, err)

		got := Apply(working, FilterSet{
			AllSymbols: true,
			Window:     window,
			Ranges:     ranges,
		})

		require.Equal(t, 1, got.Len())
		assert.Equal(t, "A", got.Records()[0].Symbol)
		assert.True(t, got.Records()[0].Date.Equal(day(2024, 6, 9)))
	})

	t.Run("fields without an offered range contribute nothing", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		got := Apply(frame, FilterSet{
			AllSymbols: true,
			Window:     window,
			Ranges:     []FieldRange{{Field: "CHG%", HasRange: false}},
		})
		assert.Equal(t, 4, got.Len())
	})

	t.Run("applying the same set twice changes nothing", func(t *testing.T) {
		frame := loadFrame(t, compositorCSV)

		working, ranges, err := ApplySignFilters(frame, []FieldFilter{
			{Field: "CHG%", Sign: SignAll, Lo: fptr(0), Hi: fptr(5)},
		})
		require.NoError(t, err)

		set := FilterSet{
			AllSymbols: true,
			Window:     window,
			Ranges:     ranges,
		}
		once := Apply(working, set)
		twice := Apply(once, set)

		assert.Equal(t, once.Len(), twice.Len())
		assert.Equal(t, once.Records(), twice.Records())
	})
}
