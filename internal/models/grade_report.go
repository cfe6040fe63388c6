package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// PerformanceBand is the qualitative label attached to a subject total.
type PerformanceBand string

const (
	BandSuperior PerformanceBand = "SUPERIOR"
	BandHigh     PerformanceBand = "HIGH"
	BandBasic    PerformanceBand = "BASIC"
	BandLow      PerformanceBand = "LOW"
)

// ReportRow is one denormalised row of the academic report view: a single
// student × subject × knowledge item for one period. The trailing fields are
// optional and may be missing from older views altogether.
type ReportRow struct {
	GradeID            int64           `db:"grade_id"`
	StudentID          int64           `db:"student_id"`
	StudentName        string          `db:"student_name"`
	SubjectID          int64           `db:"subject_id"`
	SubjectName        string          `db:"subject_name"`
	PeriodID           int64           `db:"period_id"`
	PeriodName         string          `db:"period_name"`
	TotalScore         decimal.Decimal `db:"total_score"`
	Recovered          sql.NullBool    `db:"recovered"`
	Comment            sql.NullString  `db:"comment"`
	GroupID            int64           `db:"group_id"`
	GroupName          string          `db:"group_name"`
	GroupCode          string          `db:"group_code"`
	SubjectKnowledgeID int64           `db:"subject_knowledge_id"`
	KnowledgeID        int64           `db:"knowledge_id"`
	KnowledgeName      string          `db:"knowledge_name"`
	Percentage         int             `db:"knowledge_percentage"`
	AchievementGroupID sql.NullInt64   `db:"achievement_group_id"`
	Achievement        sql.NullString  `db:"achievement"`

	DocumentNumber  sql.NullString      `db:"document_number"`
	DocumentType    sql.NullString      `db:"document_type"`
	AcademicYear    sql.NullInt64       `db:"academic_year"`
	TeacherName     sql.NullString      `db:"teacher_name"`
	Absences        sql.NullInt64       `db:"absences"`
	Score           decimal.NullDecimal `db:"score"`
	DefinitiveScore decimal.NullDecimal `db:"definitive_score"`
	PeriodNumber    sql.NullInt64       `db:"period_number"`
	PeriodScores    sql.NullString      `db:"period_scores"`
}

// StudentDetail is the identity tuple used for single-student reports.
type StudentDetail struct {
	StudentID      int64          `db:"student_id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	DocumentNumber sql.NullString `db:"document_number"`
	DocumentType   sql.NullString `db:"document_type"`
	GroupName      string         `db:"group_name"`
	GroupCode      string         `db:"group_code"`
	PeriodName     string         `db:"period_name"`
	AcademicYear   sql.NullInt64  `db:"academic_year"`
}

// SubjectTeacher links a subject taught in a group to its teacher.
type SubjectTeacher struct {
	SubjectID   int64  `db:"subject_id"`
	TeacherID   int64  `db:"teacher_id"`
	TeacherName string `db:"teacher_name"`
}

// Group is an active class group within an education level.
type Group struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SubjectGrade is a student's subject total for one period.
type SubjectGrade struct {
	StudentID  int64           `db:"student_id"`
	TotalScore decimal.Decimal `db:"total_score"`
}

// StudentReport is the nested report for one student in a group and period.
type StudentReport struct {
	StudentID      int64           `json:"student_id"`
	StudentName    string          `json:"student_name"`
	DocumentNumber string          `json:"document_number,omitempty"`
	DocumentType   string          `json:"document_type,omitempty"`
	AcademicYear   int             `json:"academic_year,omitempty"`
	GroupID        int64           `json:"group_id"`
	GroupName      string          `json:"group_name"`
	GroupCode      string          `json:"group_code"`
	Grade          string          `json:"grade"`
	Shift          string          `json:"shift"`
	Level          string          `json:"level"`
	PeriodID       int64           `json:"period_id"`
	PeriodName     string          `json:"period_name"`
	Subjects       []SubjectReport `json:"subjects"`
}

// KnowledgeCount returns the number of knowledge items across all subjects.
func (r StudentReport) KnowledgeCount() int {
	total := 0
	for _, subject := range r.Subjects {
		total += len(subject.Knowledge)
	}
	return total
}

// SubjectReport groups the knowledge items graded within one subject.
type SubjectReport struct {
	SubjectID       int64           `json:"subject_id"`
	SubjectName     string          `json:"subject_name"`
	Area            string          `json:"area"`
	TotalScore      decimal.Decimal `json:"total_score"`
	PerformanceBand PerformanceBand `json:"performance_band"`
	Recovered       bool            `json:"recovered"`
	Comment         string          `json:"comment,omitempty"`
	TeacherName     string          `json:"teacher_name,omitempty"`
	Absences        int             `json:"absences"`
	PeriodNumber    int             `json:"period_number,omitempty"`
	PeriodScores    []PeriodScore   `json:"period_scores,omitempty"`
	Knowledge       []KnowledgeItem `json:"knowledge"`
}

// PeriodScore is one entry of a subject's score history.
type PeriodScore struct {
	PeriodNumber int             `json:"period_number"`
	Score        decimal.Decimal `json:"score"`
}

// KnowledgeItem is a weighted sub-skill graded within a subject.
type KnowledgeItem struct {
	KnowledgeID        int64           `json:"knowledge_id"`
	SubjectKnowledgeID int64           `json:"subject_knowledge_id"`
	Name               string          `json:"name"`
	Percentage         int             `json:"percentage"`
	Achievement        string          `json:"achievement"`
	Score              decimal.Decimal `json:"score"`
	DefinitiveScore    decimal.Decimal `json:"definitive_score"`
}

// GradeDistribution counts subject totals of one group per score bucket.
type GradeDistribution struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
	Basic     int    `json:"basic"`
	High      int    `json:"high"`
	Superior  int    `json:"superior"`
	Total     int    `json:"total"`
}
