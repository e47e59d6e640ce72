package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Loader errors. A missing or unreadable file and a missing mandatory
// column are fatal; individual rows with unparseable dates are not.
var (
	ErrMissingDateColumn   = errors.New("mandatory date column not found in header")
	ErrMissingSymbolColumn = errors.New("mandatory symbol column not found in header")
	ErrEmptyFile           = errors.New("file has no header row")
)

// LoadOptions configures the CSV loader
type LoadOptions struct {
	DateColumn   string
	SymbolColumn string
	Logger       *slog.Logger
}

// dateLayouts are tried in order when parsing the trade-date column
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-Jan-2006",
	"2-Jan-2006",
	"01/02/2006",
	"2006/01/02",
}

// Load reads a delimited file with a header row into a Frame. Rows whose
// date fails to parse are dropped silently; a partial load is the normal
// outcome, not an error.
func Load(path string, opts LoadOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	return Read(file, opts)
}

// Read parses CSV content from r into a Frame
func Read(r io.Reader, opts LoadOptions) (*Frame, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		columns[i] = name
		colIndex[name] = i
	}

	dateIdx, ok := colIndex[opts.DateColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingDateColumn, opts.DateColumn)
	}
	symbolIdx, ok := colIndex[opts.SymbolColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingSymbolColumn, opts.SymbolColumn)
	}

	frame := &Frame{
		columns:      columns,
		colIndex:     colIndex,
		dateColumn:   opts.DateColumn,
		symbolColumn: opts.SymbolColumn,
	}

	dropped := 0
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, treat like an unparseable one
			dropped++
			rowNum++
			continue
		}
		rowNum++

		date, ok := parseDate(cellAt(row, dateIdx))
		if !ok {
			dropped++
			continue
		}

		cells := make(map[string]string, len(columns))
		for i, col := range columns {
			cells[col] = cellAt(row, i)
		}

		frame.records = append(frame.records, &Record{
			Date:   date,
			Symbol: strings.TrimSpace(cellAt(row, symbolIdx)),
			cells:  cells,
		})
	}

	logger.Info("dataset loaded",
		slog.Int("rows", len(frame.records)),
		slog.Int("dropped", dropped),
		slog.Int("columns", len(columns)))

	return frame, nil
}

// cellAt returns the i-th field of a row, tolerating short rows
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseDate tries the known layouts in order
func parseDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
