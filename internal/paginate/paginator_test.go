package paginate

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fodash/internal/dataset"
)

func frameWithRows(t *testing.T, n int) *dataset.Frame {
	t.Helper()
	var b strings.Builder
	b.WriteString("Trade Date,Ticker Symbol\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2024-06-10,SYM%d\n", i)
	}
	frame, err := dataset.Read(strings.NewReader(b.String()), dataset.LoadOptions{
		DateColumn:   "Trade Date",
		SymbolColumn: "Ticker Symbol",
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return frame
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name      string
		totalRows int
		pageSize  int
		want      int
	}{
		{"partial last page", 25, 10, 3},
		{"exact multiple gains empty page", 30, 10, 4},
		{"single row", 1, 10, 1},
		{"zero rows", 0, 10, 1},
		{"zero size falls back to default", 25, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageCount(tt.totalRows, tt.pageSize))
		})
	}
}

func TestPaginate(t *testing.T) {
	t.Run("small frame bypasses pagination", func(t *testing.T) {
		frame := frameWithRows(t, 7)

		page := Paginate(frame, 10, 3)
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 1, page.PageCount)
		assert.Equal(t, 7, page.Frame.Len())
	})

	t.Run("exactly one page still bypasses", func(t *testing.T) {
		frame := frameWithRows(t, 10)

		page := Paginate(frame, 10, 1)
		assert.Equal(t, 1, page.PageCount)
		assert.Equal(t, 10, page.Frame.Len())
	})

	t.Run("pages slice in order", func(t *testing.T) {
		frame := frameWithRows(t, 25)

		first := Paginate(frame, 10, 1)
		assert.Equal(t, 10, first.Frame.Len())
		assert.Equal(t, "SYM0", first.Frame.Records()[0].Symbol)
		assert.Equal(t, 3, first.PageCount)
		assert.Equal(t, 25, first.TotalRows)

		second := Paginate(frame, 10, 2)
		assert.Equal(t, 10, second.Frame.Len())
		assert.Equal(t, "SYM10", second.Frame.Records()[0].Symbol)

		last := Paginate(frame, 10, 3)
		assert.Equal(t, 5, last.Frame.Len())
		assert.Equal(t, "SYM20", last.Frame.Records()[0].Symbol)
	})

	t.Run("exact multiple offers a trailing empty page", func(t *testing.T) {
		frame := frameWithRows(t, 30)

		page := Paginate(frame, 10, 4)
		assert.Equal(t, 4, page.Number)
		assert.Equal(t, 4, page.PageCount)
		assert.Equal(t, 0, page.Frame.Len(), "the extra page is selectable but empty")
	})

	t.Run("number clamps to page count", func(t *testing.T) {
		frame := frameWithRows(t, 25)

		page := Paginate(frame, 10, 99)
		assert.Equal(t, 3, page.Number)
		assert.Equal(t, 5, page.Frame.Len())
	})

	t.Run("number below one clamps to first page", func(t *testing.T) {
		frame := frameWithRows(t, 25)

		page := Paginate(frame, 10, 0)
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 10, page.Frame.Len())
	})
}
