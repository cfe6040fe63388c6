package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-report-api/internal/models"
)

// The view may grow extra columns over time, so row scans run through an
// unsafe handle that ignores columns without a matching struct field.
const (
	reportRowsByGroupQuery = `SELECT DISTINCT * FROM v_academic_report
        WHERE group_id = $1 AND period_id = $2
        ORDER BY student_name, student_id, subject_name, subject_id, knowledge_name, knowledge_id`

	reportRowsByStudentQuery = `SELECT DISTINCT * FROM v_academic_report
        WHERE group_id = $1 AND student_id = $2 AND period_id = $3
        ORDER BY subject_name, subject_id, knowledge_name, knowledge_id`

	studentDetailQuery = `SELECT s.id AS student_id, s.first_name, s.last_name, s.document_number, s.document_type,
        g.name AS group_name, g.code AS group_code, p.name AS period_name, ay.year AS academic_year
        FROM students s
        JOIN group_students gs ON gs.student_id = s.id
        JOIN groups g ON g.id = gs.group_id
        JOIN periods p ON p.id = $3
        LEFT JOIN academic_years ay ON ay.id = p.academic_year_id
        WHERE s.id = $1 AND g.id = $2
        LIMIT 1`

	teachersByGroupQuery = `SELECT ta.subject_id, t.id AS teacher_id, TRIM(t.first_name || ' ' || t.last_name) AS teacher_name
        FROM teacher_assignments ta
        JOIN teachers t ON t.id = ta.teacher_id
        WHERE ta.group_id = $1 AND ta.period_id = $2
        ORDER BY ta.subject_id, t.id`
)

// GradeReportRepository reads the denormalised academic report view.
type GradeReportRepository struct {
	db *sqlx.DB
}

// NewGradeReportRepository instantiates the repository.
func NewGradeReportRepository(db *sqlx.DB) *GradeReportRepository {
	return &GradeReportRepository{db: db}
}

// RowsByGroupAndPeriod returns every report row of a group, sorted by student, subject and knowledge.
func (r *GradeReportRepository) RowsByGroupAndPeriod(ctx context.Context, groupID, periodID int64) ([]models.ReportRow, error) {
	var rows []models.ReportRow
	if err := r.db.Unsafe().SelectContext(ctx, &rows, reportRowsByGroupQuery, groupID, periodID); err != nil {
		return nil, fmt.Errorf("select report rows for group %d period %d: %w", groupID, periodID, err)
	}
	return rows, nil
}

// RowsByStudentGroupAndPeriod returns the report rows of one student.
func (r *GradeReportRepository) RowsByStudentGroupAndPeriod(ctx context.Context, groupID, studentID, periodID int64) ([]models.ReportRow, error) {
	var rows []models.ReportRow
	if err := r.db.Unsafe().SelectContext(ctx, &rows, reportRowsByStudentQuery, groupID, studentID, periodID); err != nil {
		return nil, fmt.Errorf("select report rows for student %d: %w", studentID, err)
	}
	return rows, nil
}

// StudentDetail fetches the identity tuple of a student in a group. It returns
// sql.ErrNoRows when the student is not enrolled in the group.
func (r *GradeReportRepository) StudentDetail(ctx context.Context, studentID, groupID, periodID int64) (*models.StudentDetail, error) {
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, studentDetailQuery, studentID, groupID, periodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student detail %d: %w", studentID, err)
	}
	return &detail, nil
}

// TeachersByGroupAndPeriod lists subject teachers assigned to a group.
func (r *GradeReportRepository) TeachersByGroupAndPeriod(ctx context.Context, groupID, periodID int64) ([]models.SubjectTeacher, error) {
	var teachers []models.SubjectTeacher
	if err := r.db.SelectContext(ctx, &teachers, teachersByGroupQuery, groupID, periodID); err != nil {
		return nil, fmt.Errorf("select teachers for group %d: %w", groupID, err)
	}
	return teachers, nil
}
