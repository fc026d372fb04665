package family

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
	"github.com/familyreg/backend/internal/domain/shared"
	"github.com/familyreg/backend/internal/infrastructure/export"
	"github.com/familyreg/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrExportTooLarge is returned when the filtered list exceeds the export row limit
var ErrExportTooLarge = shared.NewDomainError("EXPORT_TOO_LARGE", "Too many families to export. Narrow the search and try again")

// ErrPDFUnavailable is returned when no PDF renderer is configured
var ErrPDFUnavailable = shared.NewDomainError("PDF_UNAVAILABLE", "PDF export is not available")

// ErrUnsupportedFormat is returned for unknown export formats
var ErrUnsupportedFormat = shared.NewDomainError("UNSUPPORTED_FORMAT", "Export format must be csv, xlsx or pdf")

// ReportPrinter renders the family list as a PDF document
type ReportPrinter interface {
	Render(ctx context.Context, families []registration.Family, now time.Time) ([]byte, error)
}

// ExportService renders the filtered family list as a download
type ExportService struct {
	families registration.FamilyRepository
	printer  ReportPrinter
	maxRows  int
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService creates an export service. printer may be nil when PDF export is off.
// The file name date is taken in loc.
func NewExportService(families registration.FamilyRepository, printer ReportPrinter, maxRows int, loc *time.Location, logger *zap.Logger) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{
		families: families,
		printer:  printer,
		maxRows:  maxRows,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Export renders every family matching the query in the requested format.
// Paging fields of the query are ignored.
func (s *ExportService) Export(ctx context.Context, query ListQuery, format export.Format) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "families",
		telemetry.WithAttribute(telemetry.AttrExportFormat, string(format)),
	)
	defer span.End()

	switch format {
	case export.FormatCSV, export.FormatXLSX:
	case export.FormatPDF:
		if s.printer == nil {
			return nil, ErrPDFUnavailable
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	families, err := s.families.FindAllMatching(ctx, query.Filter(0))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.maxRows > 0 && len(families) > s.maxRows {
		return nil, ErrExportTooLarge
	}
	telemetry.SetAttributes(span, telemetry.AttrExportRows, len(families))

	now := s.now().In(s.location)
	var data []byte
	if format == export.FormatPDF {
		data, err = s.printer.Render(ctx, families, now)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to render pdf export: %w", err)
		}
	} else {
		w, err := export.NewWriter(format)
		if err != nil {
			return nil, ErrUnsupportedFormat
		}
		var buf bytes.Buffer
		if err := w.Write(&buf, families); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to write %s export: %w", format, err)
		}
		data = buf.Bytes()
	}

	s.logger.Info("Families exported",
		zap.String("format", string(format)),
		zap.Int("rows", len(families)),
		zap.Int("bytes", len(data)))
	return &ExportResult{
		Data:        data,
		ContentType: format.ContentType(),
		FileName:    export.FileName(format, now),
		Rows:        len(families),
	}, nil
}
