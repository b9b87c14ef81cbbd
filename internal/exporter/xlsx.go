package exporter

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"pickstats/internal/recordset"
)

// DefaultSheet is the worksheet name used when none is given
const DefaultSheet = "particles"

// WriteXLSX writes the table to a workbook with a bold header row. Numeric
// cells are stored as numbers; NaN cells are left blank.
func WriteXLSX(path string, table *recordset.Table, sheet string) error {
	if table == nil {
		table = recordset.Empty()
	}
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, table.Width())
	for j, name := range table.Names() {
		header[j] = excelize.Cell{StyleID: style, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < table.Len(); i++ {
		row := make([]any, table.Width())
		for j := range row {
			v := table.ColumnAt(j).Value(i)
			if num, ok := v.(float64); ok && math.IsNaN(num) {
				v = nil
			}
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
