// Package export renders family lists as CSV and XLSX downloads.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
)

// Format is a download format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the response media type for f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileName returns families_<yyyy-mm-dd>.<ext> for the given day
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("families_%s.%s", now.Format("2006-01-02"), f)
}

// SheetName is the single worksheet in XLSX exports
const SheetName = "Families"

// Columns are the spreadsheet headers, in order
var Columns = []string{
	"Family Name",
	"House Name",
	"Location",
	"Road Name",
	"Address",
	"Total Members",
	"Primary Contact",
	"Phone",
	"WhatsApp",
	"Registration Date",
}

// Row flattens one family into Columns order
func Row(f registration.Family) []string {
	return []string{
		f.FamilyName,
		f.HouseName,
		f.Location,
		f.RoadName,
		f.Address,
		strconv.Itoa(f.TotalMembers),
		f.PrimaryMember.Name,
		f.PrimaryMember.Phone,
		f.PrimaryMember.WhatsApp,
		f.RegistrationDate,
	}
}

// Writer renders families into one download format
type Writer interface {
	Format() Format
	Write(w io.Writer, families []registration.Family) error
}

// NewWriter returns the spreadsheet writer for f. PDF is rendered by the printing package.
func NewWriter(f Format) (Writer, error) {
	switch f {
	case FormatCSV:
		return CSVWriter{}, nil
	case FormatXLSX:
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}
