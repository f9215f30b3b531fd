package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
)

const (
	pdfPageBreakY  = 270.0
	pdfCellHeight  = 5.0
	pdfTableFont   = 7.0
	pdfEllipsis    = "..."
	pdfPageMarginX = 10.0
)

type pdfRenderer struct{}

func (pdfRenderer) Extension() string { return "pdf" }

func (pdfRenderer) Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfPageMarginX, 10, pdfPageMarginX)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s - Security Assessment", doc.APITitle)), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// Metadata section
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Target: %s", doc.Target)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", formatTimestamp(doc.GeneratedAt)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Seed: %d | Tool version: %s", doc.Seed, tr(doc.ToolVersion)), "", 1, "", false, 0, "")
	pdf.Ln(5)

	if len(doc.Modules) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "No modules were run.", "", 1, "", false, 0, "")
	}

	for _, m := range doc.Modules {
		writePDFSection(pdf, tr, m)
	}

	if len(doc.Compliance) > 0 {
		writePDFHeading(pdf, "Compliance Mapping")
		writePDFTable(pdf, tr, doc.ComplianceTable())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFSection(pdf *gofpdf.Fpdf, tr func(string) string, m checker.Section) {
	if pdf.GetY() > pdfPageBreakY-40 {
		pdf.AddPage()
	}

	pdf.SetFont("Arial", "B", 13)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 8, tr(m.Module), "", 1, "", true, 0, "")
	pdf.Ln(1)

	if m.Failed() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(192, 57, 43)
		pdf.MultiCell(0, pdfCellHeight, tr("This module failed: "+m.Error), "", "", false)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Arial", "", 9)
	for _, p := range m.DescriptionParagraphs {
		pdf.MultiCell(0, pdfCellHeight, tr(p), "", "", false)
		pdf.Ln(1)
	}

	if len(m.References) > 0 {
		writePDFHeading(pdf, "References")
		for _, ref := range m.References {
			pdf.SetTextColor(0, 0, 180)
			pdf.WriteLinkString(pdfCellHeight, tr("- "+ref.Title), ref.URL)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(pdfCellHeight)
		}
	}

	if len(m.RemediationParagraphs) > 0 {
		writePDFHeading(pdf, "Remediation")
		for _, p := range m.RemediationParagraphs {
			pdf.MultiCell(0, pdfCellHeight, tr(p), "", "", false)
		}
	}

	if len(m.VerificationCommands) > 0 {
		writePDFHeading(pdf, "Verification")
		pdf.SetFont("Courier", "", 8)
		for _, cmd := range m.VerificationCommands {
			pdf.MultiCell(0, pdfCellHeight-1, tr(cmd), "", "", false)
		}
		pdf.SetFont("Arial", "", 9)
	}

	if len(m.Table.Headers) > 0 {
		writePDFHeading(pdf, "Results")
		writePDFTable(pdf, tr, m.Table)
	}
	pdf.Ln(6)
}

func writePDFHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, title, "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
}

func writePDFTable(pdf *gofpdf.Fpdf, tr func(string) string, table checker.Table) {
	if len(table.Rows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, pdfCellHeight, "No findings were recorded.", "", 1, "", false, 0, "")
		return
	}

	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - 2*pdfPageMarginX) / float64(len(table.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", pdfTableFont)
		pdf.SetFillColor(238, 241, 245)
		for _, h := range table.Headers {
			pdf.CellFormat(colWidth, pdfCellHeight+1, fitPDFText(pdf, tr, h, colWidth), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", pdfTableFont)
	}

	header()
	for _, row := range table.Rows {
		if pdf.GetY() > pdfPageBreakY {
			pdf.AddPage()
			header()
		}
		values := cells(row, len(table.Headers))
		for i := range table.Headers {
			fill := false
			switch verdictClass(values[i]) {
			case "pass":
				pdf.SetFillColor(230, 244, 234)
				fill = true
			case "fail":
				pdf.SetFillColor(253, 236, 234)
				fill = true
			case "warn":
				pdf.SetFillColor(255, 244, 229)
				fill = true
			}
			pdf.CellFormat(colWidth, pdfCellHeight, fitPDFText(pdf, tr, values[i], colWidth), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fitPDFText translates s and truncates it so it fits in a cell of the
// given width.
func fitPDFText(pdf *gofpdf.Fpdf, tr func(string) string, s string, width float64) string {
	limit := width - 2*pdf.GetCellMargin()
	if out := tr(s); pdf.GetStringWidth(out) <= limit {
		return out
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+pdfEllipsis)) > limit {
		runes = runes[:len(runes)-1]
	}
	return tr(strings.TrimSpace(string(runes)) + pdfEllipsis)
}
