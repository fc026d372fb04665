package export

import (
	"fmt"
	"io"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/xuri/excelize/v2"
)

// columnWidths roughly matches each header's typical content
var columnWidths = []float64{22, 22, 18, 18, 36, 14, 22, 14, 14, 18}

// XLSXWriter streams families into a single "Families" sheet
type XLSXWriter struct{}

// Format implements Writer
func (XLSXWriter) Format() Format { return FormatXLSX }

// Write implements Writer
func (XLSXWriter) Write(w io.Writer, families []registration.Family) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2EFDA"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	for i, width := range columnWidths {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range families {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowValues(families[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// rowValues keeps Total Members numeric so spreadsheet sums work
func rowValues(fam registration.Family) []any {
	row := Row(fam)
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	values[5] = fam.TotalMembers
	return values
}
