package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is a single row of the delivery dataset. The column set is
// discovered from the loaded file, so fields live in an open map rather
// than a fixed struct. Numeric values are coerced lazily, once per
// column, and cached alongside the raw text.
type Record struct {
	Date   time.Time
	Symbol string

	cells map[string]string
	nums  map[string]float64
}

// Cell returns the raw text of the named column
func (r *Record) Cell(column string) string {
	return r.cells[column]
}

// Num returns the coerced numeric value for a column. The second return
// is false when the value is missing (failed coercion, empty cell, or
// an infinity scrubbed during coercion). CoerceNumeric must have run
// for the column first.
func (r *Record) Num(column string) (float64, bool) {
	v, ok := r.nums[column]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// Frame is an ordered, immutable view over a set of Records. Filtering
// produces a new Frame sharing the underlying Records.
type Frame struct {
	columns      []string
	colIndex     map[string]int
	dateColumn   string
	symbolColumn string
	records      []*Record
}

// Columns returns the column names in file order
func (f *Frame) Columns() []string {
	return f.columns
}

// HasColumn reports whether the named column exists in the frame
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.colIndex[name]
	return ok
}

// DateColumn returns the name of the mandatory trade-date column
func (f *Frame) DateColumn() string {
	return f.dateColumn
}

// SymbolColumn returns the name of the mandatory symbol column
func (f *Frame) SymbolColumn() string {
	return f.symbolColumn
}

// Len returns the number of records
func (f *Frame) Len() int {
	return len(f.records)
}

// Records returns the underlying record slice. Callers must not modify it.
func (f *Frame) Records() []*Record {
	return f.records
}

// MinDate returns the earliest trade date. ok is false for an empty frame.
func (f *Frame) MinDate() (time.Time, bool) {
	if len(f.records) == 0 {
		return time.Time{}, false
	}
	min := f.records[0].Date
	for _, r := range f.records[1:] {
		if r.Date.Before(min) {
			min = r.Date
		}
	}
	return min, true
}

// MaxDate returns the latest trade date. ok is false for an empty frame.
func (f *Frame) MaxDate() (time.Time, bool) {
	if len(f.records) == 0 {
		return time.Time{}, false
	}
	max := f.records[0].Date
	for _, r := range f.records[1:] {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max, true
}

// Symbols returns the distinct non-empty symbols in first-appearance order
func (f *Frame) Symbols() []string {
	seen := make(map[string]struct{}, len(f.records))
	var symbols []string
	for _, r := range f.records {
		if r.Symbol == "" {
			continue
		}
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		symbols = append(symbols, r.Symbol)
	}
	return symbols
}

// NumericColumns infers which columns hold numeric data: every non-empty
// cell must parse as a float and at least one cell must be non-empty.
// The date column is excluded. This mirrors dataframe dtype inference.
func (f *Frame) NumericColumns() []string {
	var numeric []string
	for _, col := range f.columns {
		if col == f.dateColumn {
			continue
		}
		if f.isNumericColumn(col) {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

func (f *Frame) isNumericColumn(col string) bool {
	nonEmpty := 0
	for _, r := range f.records {
		cell := strings.TrimSpace(r.cells[col])
		if cell == "" {
			continue
		}
		nonEmpty++
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
	}
	return nonEmpty > 0
}

// SelectExisting intersects a desired column list with the available
// columns, preserving the desired order
func (f *Frame) SelectExisting(desired []string) []string {
	var selected []string
	for _, col := range desired {
		if f.HasColumn(col) {
			selected = append(selected, col)
		}
	}
	return selected
}

// CoerceNumeric parses the named column to float64 across all records.
// Values that fail to parse become missing, not zero, and infinities are
// scrubbed to missing. Coercion is idempotent per column.
func (f *Frame) CoerceNumeric(column string) {
	for _, r := range f.records {
		if r.nums == nil {
			r.nums = make(map[string]float64)
		}
		if _, done := r.nums[column]; done {
			continue
		}
		cell := strings.TrimSpace(r.cells[column])
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(v, 0) {
			v = math.NaN()
		}
		r.nums[column] = v
	}
}

// Filter returns a new Frame holding the records for which keep returns
// true. The records themselves are shared, not copied.
func (f *Frame) Filter(keep func(*Record) bool) *Frame {
	kept := make([]*Record, 0, len(f.records))
	for _, r := range f.records {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return &Frame{
		columns:      f.columns,
		colIndex:     f.colIndex,
		dateColumn:   f.dateColumn,
		symbolColumn: f.symbolColumn,
		records:      kept,
	}
}

// Slice returns a new Frame over records[lo:hi], clamped to bounds
func (f *Frame) Slice(lo, hi int) *Frame {
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.records) {
		hi = len(f.records)
	}
	if lo > hi {
		lo = hi
	}
	return &Frame{
		columns:      f.columns,
		colIndex:     f.colIndex,
		dateColumn:   f.dateColumn,
		symbolColumn: f.symbolColumn,
		records:      f.records[lo:hi],
	}
}
