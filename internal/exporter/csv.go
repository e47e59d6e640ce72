// Package exporter serializes the filtered selection for download.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Download filenames and MIME types for the export endpoint
const (
	CSVFilename = "filtered_data.csv"
	CSVMimeType = "text/csv"

	XLSXFilename = "filtered_data.xlsx"
	XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// utf8BOM helps Excel recognize UTF-8 encoded CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a header row followed by the data rows as CSV. The
// column order of headers is preserved; there is no row limit.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
