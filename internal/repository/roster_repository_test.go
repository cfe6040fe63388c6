package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterRepositoryActiveGroupsByLevel(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM groups WHERE level_id = $1 AND status = $2")).
		WithArgs("PRI", "A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "5 A").AddRow(4, "5 B"))

	groups, err := repo.ActiveGroupsByLevel(context.Background(), "PRI")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "5 B", groups[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryActiveStudentIDs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM group_students")).
		WithArgs(int64(3), "A").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(11).AddRow(12))

	ids, err := repo.ActiveStudentIDsByGroup(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryGrades(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subject_grades")).
		WithArgs(sqlmock.AnyArg(), int64(5), int64(7), 2024).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "total_score"}).AddRow(11, "3.5").AddRow(12, 4.25))

	grades, err := repo.GradesByStudentsSubjectPeriodYear(context.Background(), []int64{11, 12}, 5, 7, 2024)
	require.NoError(t, err)
	require.Len(t, grades, 2)
	assert.True(t, decimal.RequireFromString("3.5").Equal(grades[0].TotalScore))
	assert.True(t, decimal.RequireFromString("4.25").Equal(grades[1].TotalScore))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryGradesWithoutStudents(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	grades, err := NewRosterRepository(db).GradesByStudentsSubjectPeriodYear(context.Background(), nil, 5, 7, 2024)
	require.NoError(t, err)
	assert.Nil(t, grades)
	require.NoError(t, mock.ExpectationsWereMet())
}
