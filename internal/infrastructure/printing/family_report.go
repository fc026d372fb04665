package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/familyreg/backend/internal/domain/registration"
)

// FamilyReportTitle heads every family report
const FamilyReportTitle = "Masjid Family Registration Data"

// FamilyReportColumns are the table headers of the PDF export
var FamilyReportColumns = []string{
	"Family Name",
	"House Name",
	"Location",
	"Members",
	"Contact Person",
	"Phone",
	"Reg. Date",
}

var familyReportTemplate = template.Must(template.New("families").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Noto Sans", Arial, sans-serif; font-size: 10px; color: #1f2933; }
  h1 { font-size: 16px; margin: 0 0 4px; }
  p.generated { margin: 0 0 12px; color: #52606d; }
  table { width: 100%; border-collapse: collapse; }
  th { background: #2f855a; color: #fff; text-align: left; }
  th, td { padding: 4px 6px; border: 1px solid #d9e2ec; }
  tr:nth-child(even) td { background: #f5f7fa; }
  td.num { text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="generated">Generated on {{.GeneratedOn}}</p>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.FamilyName}}</td><td>{{.HouseName}}</td><td>{{.Location}}</td><td class="num">{{.Members}}</td><td>{{.ContactPerson}}</td><td>{{.Phone}}</td><td>{{.RegistrationDate}}</td></tr>
{{- else}}
<tr><td colspan="{{len .Columns}}">No families found</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

const familyReportFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#52606d;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

type familyReportRow struct {
	FamilyName       string
	HouseName        string
	Location         string
	Members          string
	ContactPerson    string
	Phone            string
	RegistrationDate string
}

type familyReportData struct {
	Title       string
	GeneratedOn string
	Columns     []string
	Rows        []familyReportRow
}

// FamilyReportPrinter renders the family list as an A4 landscape PDF
type FamilyReportPrinter struct {
	renderer PDFRenderer
	location *time.Location
}

// NewFamilyReportPrinter creates a printer. The "Generated on" line uses loc, or UTC when nil.
func NewFamilyReportPrinter(renderer PDFRenderer, loc *time.Location) *FamilyReportPrinter {
	if loc == nil {
		loc = time.UTC
	}
	return &FamilyReportPrinter{renderer: renderer, location: loc}
}

// BuildHTML renders the report document without printing it
func (p *FamilyReportPrinter) BuildHTML(families []registration.Family, now time.Time) (string, error) {
	data := familyReportData{
		Title:       FamilyReportTitle,
		GeneratedOn: now.In(p.location).Format("02/01/2006 15:04"),
		Columns:     FamilyReportColumns,
		Rows:        make([]familyReportRow, 0, len(families)),
	}
	for i := range families {
		f := &families[i]
		data.Rows = append(data.Rows, familyReportRow{
			FamilyName:       f.FamilyName,
			HouseName:        f.HouseName,
			Location:         f.Location,
			Members:          strconv.Itoa(f.TotalMembers),
			ContactPerson:    f.PrimaryMember.Name,
			Phone:            f.PrimaryMember.Phone,
			RegistrationDate: f.RegistrationDate,
		})
	}

	var buf bytes.Buffer
	if err := familyReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render family report: %w", err)
	}
	return buf.String(), nil
}

// Render builds and prints the report
func (p *FamilyReportPrinter) Render(ctx context.Context, families []registration.Family, now time.Time) ([]byte, error) {
	doc, err := p.BuildHTML(families, now)
	if err != nil {
		return nil, err
	}
	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:       doc,
		Title:      FamilyReportTitle,
		Landscape:  true,
		Margins:    DefaultMargins(),
		FooterHTML: familyReportFooter,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}
