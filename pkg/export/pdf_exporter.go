package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a tabular A4 PDF.
type PDFExporter struct {
	compress bool
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(compress bool) *PDFExporter {
	return &PDFExporter{compress: compress}
}

// Render draws the title, subtitle lines and a table with a shaded header
// repeated on every page and alternating row shading. Weights set relative
// column widths; equal widths are used when none are given.
func (e *PDFExporter) Render(data Dataset, subtitle []string, weights []float64) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	if len(weights) != len(data.Headers) {
		weights = make([]float64, len(data.Headers))
		for i := range weights {
			weights[i] = 1
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(12, 18, 12)
	pdf.SetAutoPageBreak(false, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 9, tr(data.Title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 11)
	for _, line := range subtitle {
		pdf.CellFormat(0, 6, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	table := NewPDFTable(pdf, Fit(pageWidth-left-right, weights...), 9)

	header := func() {
		pdf.SetFillColor(211, 211, 211)
		cells := make([]PDFCell, len(data.Headers))
		for i, h := range data.Headers {
			cells[i] = PDFCell{Text: h, Style: "B", Align: "C", Fill: true}
		}
		table.Row(cells...)
	}
	header()
	table.OnPageBreak(header)

	for n, row := range data.Rows {
		if n%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(240, 240, 240)
		}
		cells := make([]PDFCell, len(data.Headers))
		for i, h := range data.Headers {
			cells[i] = PDFCell{Text: Text(row[h]), Fill: true}
		}
		table.Row(cells...)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
