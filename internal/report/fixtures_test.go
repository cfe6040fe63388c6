package report

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/academic-report-api/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(student, subject, knowledge int64, knowledgeName string, total string) models.ReportRow {
	return models.ReportRow{
		StudentID:     student,
		StudentName:   map[int64]string{1: "Ana Ruiz", 2: "Luis Gómez", 3: "Sara Peña"}[student],
		SubjectID:     subject,
		SubjectName:   map[int64]string{10: "Matemáticas", 20: "Ciencias", 30: "Arte"}[subject],
		PeriodID:      7,
		PeriodName:    "Primer Periodo",
		TotalScore:    dec(total),
		GroupID:       3,
		GroupName:     "5 A",
		GroupCode:     "501",
		KnowledgeID:   knowledge,
		KnowledgeName: knowledgeName,
		Percentage:    25,
		Achievement:   sql.NullString{String: "Logro " + knowledgeName, Valid: true},
	}
}

// groupRows is pre-sorted by student, subject, knowledge like the report view.
func groupRows() []models.ReportRow {
	return []models.ReportRow{
		row(1, 10, 100, "SER", "4.6"),
		row(1, 10, 101, "SABER", "4.6"),
		row(1, 10, 100, "SER", "1.0"),
		row(1, 20, 100, "SER", "3.2"),
		row(2, 10, 100, "SER", "2.5"),
		row(2, 10, 102, "HACER", "2.5"),
		row(3, 30, 103, "UNKNOWN", "4.0"),
	}
}
