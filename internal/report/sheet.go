package report

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-report-api/internal/models"
	"github.com/noah-isme/academic-report-api/pkg/export"
)

// Spreadsheet column headers.
const (
	ColStudent     = "Student"
	ColGroup       = "Group"
	ColSubject     = "Subject"
	ColKnowledge   = "Knowledge"
	ColAchievement = "Achievement"
	ColPercentage  = "Percentage"
	ColFinalScore  = "Final Score"
)

// SheetHeaders are the fixed columns of the spreadsheet export.
var SheetHeaders = []string{ColStudent, ColSubject, ColKnowledge, ColAchievement, ColPercentage, ColFinalScore}

// TableHeaders are the columns of the group table PDF.
var TableHeaders = []string{ColStudent, ColGroup, ColSubject, ColKnowledge, ColAchievement, ColPercentage, ColFinalScore}

// TableWeights are the relative column widths of the group table PDF.
var TableWeights = []float64{3, 1.5, 2, 3, 3, 1.5, 1.5}

// Sheet flattens reports into one row per student, subject and knowledge
// item in tree order. Final Score is the subject total.
func Sheet(title string, reports []models.StudentReport) export.Dataset {
	data := export.Dataset{Title: title, Headers: SheetHeaders, Rows: make([]export.Row, 0, knowledgeRows(reports))}
	for _, student := range reports {
		for _, subject := range student.Subjects {
			for _, item := range subject.Knowledge {
				data.Rows = append(data.Rows, export.Row{
					ColStudent:     student.StudentName,
					ColSubject:     subject.SubjectName,
					ColKnowledge:   item.Name,
					ColAchievement: item.Achievement,
					ColPercentage:  fmt.Sprintf("%d%%", item.Percentage),
					ColFinalScore:  subject.TotalScore,
				})
			}
		}
	}
	return data
}

// Table flattens reports for the group table PDF. Knowledge items are
// ordered by id and subjects without items are skipped.
func Table(title string, reports []models.StudentReport, logger *zap.Logger) export.Dataset {
	if logger == nil {
		logger = zap.NewNop()
	}
	data := export.Dataset{Title: title, Headers: TableHeaders, Rows: make([]export.Row, 0, knowledgeRows(reports))}
	for _, student := range reports {
		for _, subject := range student.Subjects {
			if len(subject.Knowledge) == 0 {
				logger.Warn("subject without knowledge items skipped",
					zap.Int64("student_id", student.StudentID),
					zap.String("subject", subject.SubjectName),
				)
				continue
			}
			for _, item := range sortedKnowledge(subject.Knowledge) {
				data.Rows = append(data.Rows, export.Row{
					ColStudent:     student.StudentName,
					ColGroup:       student.GroupCode,
					ColSubject:     subject.SubjectName,
					ColKnowledge:   item.Name,
					ColAchievement: item.Achievement,
					ColPercentage:  fmt.Sprintf("%d%%", item.Percentage),
					ColFinalScore:  FormatScore(subject.TotalScore),
				})
			}
		}
	}
	return data
}

// Subtitle returns the group and period lines printed under table titles.
func Subtitle(reports []models.StudentReport) []string {
	if len(reports) == 0 {
		return nil
	}
	first := reports[0]
	return []string{"Group: " + first.GroupName, "Period: " + first.PeriodName}
}

func knowledgeRows(reports []models.StudentReport) int {
	total := 0
	for _, r := range reports {
		total += r.KnowledgeCount()
	}
	return total
}
