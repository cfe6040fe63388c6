package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-report-api/internal/models"
	"github.com/noah-isme/academic-report-api/pkg/export"
)

const (
	pageMargin   = 15.0
	bodyFontSize = 9.0
)

// DocumentRenderer lays out one student's report as an A4 PDF.
type DocumentRenderer struct {
	branding Branding
	compress bool
	logger   *zap.Logger
}

// NewDocumentRenderer builds a renderer. A nil logger disables logging.
func NewDocumentRenderer(branding Branding, compress bool, logger *zap.Logger) *DocumentRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRenderer{branding: branding, compress: compress, logger: logger}
}

// Render returns the PDF for student. Subjects without knowledge items are skipped.
func (r *DocumentRenderer) Render(student models.StudentReport) (export.PDFDocument, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle(fmt.Sprintf("%s - %s", r.branding.ReportTitle, student.StudentName), true)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(230, 230, 230)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	content := pageWidth - 2*pageMargin
	table := export.NewPDFTable(pdf, nil, bodyFontSize)

	r.header(pdf, table, content)
	r.identity(table, content, student)

	for _, subject := range student.Subjects {
		if len(subject.Knowledge) == 0 {
			r.logger.Warn("subject without knowledge items skipped",
				zap.Int64("student_id", student.StudentID),
				zap.Int64("subject_id", subject.SubjectID),
				zap.String("subject", subject.SubjectName),
			)
			continue
		}
		r.subject(table, content, subject)
	}

	if err := pdf.Error(); err != nil {
		return export.PDFDocument{}, fmt.Errorf("layout report for student %d: %w", student.StudentID, err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return export.PDFDocument{}, fmt.Errorf("write report for student %d: %w", student.StudentID, err)
	}
	return export.PDFDocument{Bytes: buf.Bytes(), Pages: pdf.PageCount()}, nil
}

func (r *DocumentRenderer) header(pdf *gofpdf.Fpdf, table *export.PDFTable, content float64) {
	b := r.branding
	table.WithWidths(export.Fit(content, 3, 4, 3)...).Row(
		export.PDFCell{Text: b.InstitutionName, Style: "B", Align: "C"},
		export.PDFCell{Text: b.SystemTitle + "\n" + b.ReportTitle, Style: "B", Align: "C"},
		export.PDFCell{Text: fmt.Sprintf("Código: %s\nVersión: %s\nActualización: %s", b.DocumentCode, b.DocumentVersion, b.UpdatedOn), Align: "L"},
	)
	table.Space(4)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(content, 7, tr(b.Heading), "", 1, "C", false, 0, "")
	table.Space(3)
}

func (r *DocumentRenderer) identity(table *export.PDFTable, content float64, s models.StudentReport) {
	table.WithWidths(export.Fit(content, 2, 5, 2.5, 2.5)...).Row(
		label("STUDENT:"),
		value(s.StudentName),
		label("IDENTITY DOCUMENT:"),
		value(documentOf(s)),
	)

	quarter := table.WithWidths(export.Fit(content, 1, 1, 1, 1)...)
	quarter.Row(label("YEAR"), label("GRADE"), label("SHIFT"), label("PERIOD"))
	year := ""
	if s.AcademicYear > 0 {
		year = strconv.Itoa(s.AcademicYear)
	}
	quarter.Row(
		centered(year),
		centered(strings.TrimSpace(s.Grade+" "+s.GroupCode)),
		centered(s.Shift),
		centered(s.PeriodName),
	)
	table.Space(4)
}

func (r *DocumentRenderer) subject(table *export.PDFTable, content float64, s models.SubjectReport) {
	table.WithWidths(export.Fit(content, 1, 5)...).Row(label("TEACHER:"), value(s.TeacherName))

	summary := table.WithWidths(export.Fit(content, 5, 2, 1.5, 1.5, 1.5, 3)...)
	summary.Row(
		label("AREA"), label("ABSENCES"), label("1P"), label("2P"), label("3P"), label("PERFORMANCE"),
	)
	// Only the current period is populated; the remaining slots stay blank.
	summary.Row(
		export.PDFCell{Text: strings.ToUpper(s.Area), Style: "B"},
		centered(strconv.Itoa(s.Absences)),
		centered(FormatScore(s.TotalScore)),
		centered(""),
		centered(""),
		export.PDFCell{Text: string(s.PerformanceBand), Style: "B", Align: "C"},
	)

	knowledge := table.WithWidths(export.Fit(content, 1, 6, 1, 1)...)
	for _, item := range sortedKnowledge(s.Knowledge) {
		knowledge.Row(
			export.PDFCell{Text: item.Name, Style: "B"},
			value(item.Achievement),
			centered(FormatScore(item.Score)),
			centered(fmt.Sprintf("%d%%", item.Percentage)),
		)
	}

	comment := s.Comment
	if strings.TrimSpace(comment) == "" {
		comment = r.branding.DefaultComment
	}
	table.WithWidths(export.Fit(content, 1.7, 4.3)...).Row(label("GENERAL EVALUATION:"), value(comment))
	table.Space(5)
}

func sortedKnowledge(items []models.KnowledgeItem) []models.KnowledgeItem {
	out := make([]models.KnowledgeItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].KnowledgeID < out[j].KnowledgeID })
	return out
}

func documentOf(s models.StudentReport) string {
	return strings.TrimSpace(s.DocumentType + " " + s.DocumentNumber)
}

func label(text string) export.PDFCell {
	return export.PDFCell{Text: text, Style: "B", Fill: true}
}

func value(text string) export.PDFCell {
	return export.PDFCell{Text: text}
}

func centered(text string) export.PDFCell {
	return export.PDFCell{Text: text, Align: "C"}
}
