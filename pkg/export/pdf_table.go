package export

import (
	"github.com/jung-kurt/gofpdf"
)

const cellPadding = 1.5

// PDFCell is one cell of a PDFTable row.
type PDFCell struct {
	Text  string
	Style string // gofpdf font style: "", "B", "I"
	Align string // gofpdf alignment: "L", "C", "R"
	Fill  bool   // paint with the current fill colour
}

// PDFTable draws bordered rows whose cells wrap inside fixed column widths.
// Rows never split across pages; a row that does not fit starts a new page.
type PDFTable struct {
	pdf        *gofpdf.Fpdf
	tr         func(string) string
	widths     []float64
	family     string
	size       float64
	lineHeight float64
	onBreak    func()
}

// NewPDFTable binds a table to pdf. Text is translated from UTF-8 to the
// core font code page before measuring.
func NewPDFTable(pdf *gofpdf.Fpdf, widths []float64, fontSize float64) *PDFTable {
	return &PDFTable{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		widths:     widths,
		family:     "Arial",
		size:       fontSize,
		lineHeight: fontSize * 0.5,
	}
}

// WithWidths returns a table sharing pdf and font with t but using new column widths.
func (t *PDFTable) WithWidths(widths ...float64) *PDFTable {
	clone := *t
	clone.widths = widths
	clone.onBreak = nil
	return &clone
}

// OnPageBreak registers fn to run after the table starts a new page, e.g. to repeat a header row.
func (t *PDFTable) OnPageBreak(fn func()) {
	t.onBreak = fn
}

// Row draws cells as one row, sized to the tallest wrapped cell.
func (t *PDFTable) Row(cells ...PDFCell) {
	lines := make([][]string, len(cells))
	maxLines := 1
	for i, c := range cells {
		t.pdf.SetFont(t.family, c.Style, t.size)
		for _, l := range t.pdf.SplitLines([]byte(t.tr(c.Text)), t.width(i)-2*cellPadding) {
			lines[i] = append(lines[i], string(l))
		}
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}
	height := float64(maxLines)*t.lineHeight + cellPadding

	t.ensureSpace(height)

	left, _, _, _ := t.pdf.GetMargins()
	x, y := left, t.pdf.GetY()
	for i, c := range cells {
		w := t.width(i)
		style := "D"
		if c.Fill {
			style = "FD"
		}
		t.pdf.Rect(x, y, w, height, style)
		t.pdf.SetFont(t.family, c.Style, t.size)
		align := c.Align
		if align == "" {
			align = "L"
		}
		for j, line := range lines[i] {
			t.pdf.SetXY(x+cellPadding, y+cellPadding/2+float64(j)*t.lineHeight)
			t.pdf.CellFormat(w-2*cellPadding, t.lineHeight, line, "", 0, align, false, 0, "")
		}
		x += w
	}
	t.pdf.SetXY(left, y+height)
}

// Space moves the cursor down by h, breaking the page when needed.
func (t *PDFTable) Space(h float64) {
	t.ensureSpace(h)
	t.pdf.Ln(h)
}

func (t *PDFTable) ensureSpace(height float64) {
	_, pageHeight := t.pdf.GetPageSize()
	_, _, _, bottom := t.pdf.GetMargins()
	if t.pdf.GetY()+height <= pageHeight-bottom {
		return
	}
	t.pdf.AddPage()
	if t.onBreak != nil {
		// The row being placed keeps the fill it was drawn with.
		r, g, b := t.pdf.GetFillColor()
		t.onBreak()
		t.pdf.SetFillColor(r, g, b)
	}
}

func (t *PDFTable) width(i int) float64 {
	if i < len(t.widths) {
		return t.widths[i]
	}
	return 0
}

// Fit scales weights so they add up to total.
func Fit(total float64, weights ...float64) []float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	out := make([]float64, len(weights))
	if sum == 0 {
		return out
	}
	for i, w := range weights {
		out[i] = total * w / sum
	}
	return out
}
