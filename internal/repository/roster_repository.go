package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-report-api/internal/models"
)

const activeStatus = "A"

// RosterRepository answers group membership and subject grade lookups.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository instantiates the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ActiveGroupsByLevel lists active groups of an education level.
func (r *RosterRepository) ActiveGroupsByLevel(ctx context.Context, levelID string) ([]models.Group, error) {
	const query = `SELECT id, name FROM groups WHERE level_id = $1 AND status = $2 ORDER BY name, id`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, levelID, activeStatus); err != nil {
		return nil, fmt.Errorf("select groups for level %s: %w", levelID, err)
	}
	return groups, nil
}

// ActiveStudentIDsByGroup lists the ids of students actively enrolled in a group.
func (r *RosterRepository) ActiveStudentIDsByGroup(ctx context.Context, groupID int64) ([]int64, error) {
	const query = `SELECT student_id FROM group_students WHERE group_id = $1 AND status = $2 ORDER BY student_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, groupID, activeStatus); err != nil {
		return nil, fmt.Errorf("select students for group %d: %w", groupID, err)
	}
	return ids, nil
}

// GradesByStudentsSubjectPeriodYear returns subject totals for the given students.
func (r *RosterRepository) GradesByStudentsSubjectPeriodYear(ctx context.Context, studentIDs []int64, subjectID, periodID int64, year int) ([]models.SubjectGrade, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT student_id, total_score FROM subject_grades
        WHERE student_id = ANY($1) AND subject_id = $2 AND period_id = $3 AND academic_year = $4
        ORDER BY student_id`
	var grades []models.SubjectGrade
	if err := r.db.SelectContext(ctx, &grades, query, pq.Array(studentIDs), subjectID, periodID, year); err != nil {
		return nil, fmt.Errorf("select subject grades for subject %d: %w", subjectID, err)
	}
	return grades, nil
}
