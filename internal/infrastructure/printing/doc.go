// Package printing renders HTML documents to PDF with headless Chrome.
//
// The family report is the only document today:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    return err
//	}
//	defer renderer.Close()
//
//	report := NewFamilyReportPrinter(renderer)
//	pdf, err := report.Render(ctx, families, time.Now())
package printing
