package report

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-report-api/internal/models"
)

// TeacherIndex maps subject ids to teacher names.
type TeacherIndex map[int64]string

// NewTeacherIndex indexes teacher assignments by subject. The first assignment wins.
func NewTeacherIndex(teachers []models.SubjectTeacher) TeacherIndex {
	idx := make(TeacherIndex, len(teachers))
	for _, t := range teachers {
		if _, exists := idx[t.SubjectID]; !exists {
			idx[t.SubjectID] = t.TeacherName
		}
	}
	return idx
}

// Aggregator folds flat report rows into per-student trees.
type Aggregator struct {
	branding Branding
	logger   *zap.Logger
}

// NewAggregator builds an aggregator. A nil logger disables logging.
func NewAggregator(branding Branding, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{branding: branding, logger: logger}
}

type studentNode struct {
	report   models.StudentReport
	subjects *orderedMap[int64, *subjectNode]
}

type subjectNode struct {
	report    models.SubjectReport
	knowledge *orderedMap[int64, models.KnowledgeItem]
}

// Build returns one report per distinct student in first-seen row order.
// Subject fields come from the first row of each subject and repeated
// knowledge ids are dropped.
func (a *Aggregator) Build(rows []models.ReportRow, teachers TeacherIndex) []models.StudentReport {
	students := newOrderedMap[int64, *studentNode]()
	for i := range rows {
		row := &rows[i]
		student, _ := students.getOrCreate(row.StudentID, func() *studentNode {
			return &studentNode{report: a.studentFromRow(row), subjects: newOrderedMap[int64, *subjectNode]()}
		})
		a.fold(student, row, teachers)
	}

	reports := make([]models.StudentReport, 0, students.len())
	students.each(func(_ int64, node *studentNode) {
		reports = append(reports, node.freeze())
	})
	return reports
}

// BuildStudent folds rows for one student, taking identity fields from detail.
// Rows for other students are ignored.
func (a *Aggregator) BuildStudent(rows []models.ReportRow, detail models.StudentDetail, teachers TeacherIndex) models.StudentReport {
	node := &studentNode{subjects: newOrderedMap[int64, *subjectNode]()}
	for i := range rows {
		row := &rows[i]
		if row.StudentID != detail.StudentID {
			continue
		}
		if node.subjects.len() == 0 {
			node.report = a.studentFromRow(row)
		}
		a.fold(node, row, teachers)
	}

	r := &node.report
	r.StudentID = detail.StudentID
	r.StudentName = strings.TrimSpace(detail.FirstName + " " + detail.LastName)
	if detail.DocumentNumber.Valid {
		r.DocumentNumber = detail.DocumentNumber.String
	}
	if detail.DocumentType.Valid {
		r.DocumentType = detail.DocumentType.String
	}
	if detail.AcademicYear.Valid {
		r.AcademicYear = int(detail.AcademicYear.Int64)
	}
	if detail.GroupName != "" {
		r.GroupName = detail.GroupName
		r.Grade = gradeOf(detail.GroupName)
	}
	if detail.GroupCode != "" {
		r.GroupCode = detail.GroupCode
	}
	if detail.PeriodName != "" {
		r.PeriodName = detail.PeriodName
	}
	if r.Shift == "" {
		r.Shift = a.branding.DefaultShift
		r.Level = a.branding.DefaultLevel
	}
	return node.freeze()
}

func (a *Aggregator) fold(student *studentNode, row *models.ReportRow, teachers TeacherIndex) {
	subject, _ := student.subjects.getOrCreate(row.SubjectID, func() *subjectNode {
		return &subjectNode{
			report:    a.subjectFromRow(row, teachers),
			knowledge: newOrderedMap[int64, models.KnowledgeItem](),
		}
	})
	if _, created := subject.knowledge.getOrCreate(row.KnowledgeID, func() models.KnowledgeItem {
		return knowledgeFromRow(row)
	}); !created {
		a.logger.Debug("duplicate knowledge row ignored",
			zap.Int64("student_id", row.StudentID),
			zap.Int64("subject_id", row.SubjectID),
			zap.Int64("knowledge_id", row.KnowledgeID),
		)
	}
}

func (a *Aggregator) studentFromRow(row *models.ReportRow) models.StudentReport {
	r := models.StudentReport{
		StudentID:   row.StudentID,
		StudentName: row.StudentName,
		GroupID:     row.GroupID,
		GroupName:   row.GroupName,
		GroupCode:   row.GroupCode,
		Grade:       gradeOf(row.GroupName),
		Shift:       a.branding.DefaultShift,
		Level:       a.branding.DefaultLevel,
		PeriodID:    row.PeriodID,
		PeriodName:  row.PeriodName,
	}
	if row.DocumentNumber.Valid {
		r.DocumentNumber = row.DocumentNumber.String
	}
	if row.DocumentType.Valid {
		r.DocumentType = row.DocumentType.String
	}
	if row.AcademicYear.Valid {
		r.AcademicYear = int(row.AcademicYear.Int64)
	}
	return r
}

func (a *Aggregator) subjectFromRow(row *models.ReportRow, teachers TeacherIndex) models.SubjectReport {
	s := models.SubjectReport{
		SubjectID:       row.SubjectID,
		SubjectName:     row.SubjectName,
		Area:            row.SubjectName,
		TotalScore:      row.TotalScore,
		PerformanceBand: Band(row.TotalScore),
		Recovered:       row.Recovered.Valid && row.Recovered.Bool,
	}
	if row.Comment.Valid {
		s.Comment = row.Comment.String
	}
	switch {
	case row.TeacherName.Valid && row.TeacherName.String != "":
		s.TeacherName = row.TeacherName.String
	case teachers != nil:
		s.TeacherName = teachers[row.SubjectID]
	}
	if row.Absences.Valid {
		s.Absences = int(row.Absences.Int64)
	}
	if row.PeriodNumber.Valid {
		s.PeriodNumber = int(row.PeriodNumber.Int64)
	}
	if row.PeriodScores.Valid && row.PeriodScores.String != "" {
		var history []models.PeriodScore
		if err := json.Unmarshal([]byte(row.PeriodScores.String), &history); err != nil {
			a.logger.Warn("period score history unreadable",
				zap.Int64("student_id", row.StudentID),
				zap.Int64("subject_id", row.SubjectID),
				zap.Error(err),
			)
		} else {
			s.PeriodScores = history
		}
	}
	return s
}

func knowledgeFromRow(row *models.ReportRow) models.KnowledgeItem {
	score := ResolveScore(row.Score, row.KnowledgeName)
	item := models.KnowledgeItem{
		KnowledgeID:        row.KnowledgeID,
		SubjectKnowledgeID: row.SubjectKnowledgeID,
		Name:               row.KnowledgeName,
		Percentage:         row.Percentage,
		Score:              score,
		DefinitiveScore:    DefinitiveScore(row.DefinitiveScore, score, row.Percentage),
	}
	if row.Achievement.Valid {
		item.Achievement = row.Achievement.String
	}
	return item
}

func (n *studentNode) freeze() models.StudentReport {
	out := n.report
	out.Subjects = make([]models.SubjectReport, 0, n.subjects.len())
	n.subjects.each(func(_ int64, subject *subjectNode) {
		s := subject.report
		s.Knowledge = make([]models.KnowledgeItem, 0, subject.knowledge.len())
		subject.knowledge.each(func(_ int64, item models.KnowledgeItem) {
			s.Knowledge = append(s.Knowledge, item)
		})
		out.Subjects = append(out.Subjects, s)
	})
	return out
}

// gradeOf takes the first whitespace-delimited token of a group name ("5 A" -> "5").
func gradeOf(groupName string) string {
	fields := strings.Fields(groupName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
