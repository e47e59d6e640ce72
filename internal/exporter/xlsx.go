package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Filtered Data"

// WriteXLSX writes the selection as a single-sheet Excel workbook with
// the same header and column order as the CSV export
func WriteXLSX(w io.Writer, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeXLSXRow(f, 1, headers); err != nil {
		return err
	}

	for i, row := range rows {
		if err := writeXLSXRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeXLSXRow(f *excelize.File, rowNum int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(xlsxSheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
