package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/familyreg/backend/internal/domain/registration"
)

// utf8BOM lets spreadsheet apps detect UTF-8 names
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes a header row plus one row per family
type CSVWriter struct{}

// Format implements Writer
func (CSVWriter) Format() Format { return FormatCSV }

// Write implements Writer
func (CSVWriter) Write(w io.Writer, families []registration.Family) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range families {
		if err := cw.Write(Row(families[i])); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
