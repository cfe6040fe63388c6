package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/academic-report-api/internal/dto"
	"github.com/noah-isme/academic-report-api/internal/models"
	"github.com/noah-isme/academic-report-api/internal/report"
	appErrors "github.com/noah-isme/academic-report-api/pkg/errors"
	"github.com/noah-isme/academic-report-api/pkg/export/pdftest"
)

type reportSourceStub struct {
	rows       []models.ReportRow
	rowsErr    error
	detail     *models.StudentDetail
	detailErr  error
	teachers   []models.SubjectTeacher
	teacherErr error
}

func (s *reportSourceStub) RowsByGroupAndPeriod(ctx context.Context, groupID, periodID int64) ([]models.ReportRow, error) {
	return s.rows, s.rowsErr
}

func (s *reportSourceStub) RowsByStudentGroupAndPeriod(ctx context.Context, groupID, studentID, periodID int64) ([]models.ReportRow, error) {
	if s.rowsErr != nil {
		return nil, s.rowsErr
	}
	var out []models.ReportRow
	for _, r := range s.rows {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *reportSourceStub) StudentDetail(ctx context.Context, studentID, groupID, periodID int64) (*models.StudentDetail, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	if s.detail == nil {
		return nil, sql.ErrNoRows
	}
	return s.detail, nil
}

func (s *reportSourceStub) TeachersByGroupAndPeriod(ctx context.Context, groupID, periodID int64) ([]models.SubjectTeacher, error) {
	return s.teachers, s.teacherErr
}

type rosterStub struct {
	groups      []models.Group
	students    map[int64][]int64
	grades      map[int64][]models.SubjectGrade
	gradeCalls  []int64
	groupsCalls int
}

func (r *rosterStub) ActiveGroupsByLevel(ctx context.Context, levelID string) ([]models.Group, error) {
	r.groupsCalls++
	return r.groups, nil
}

func (r *rosterStub) ActiveStudentIDsByGroup(ctx context.Context, groupID int64) ([]int64, error) {
	return r.students[groupID], nil
}

func (r *rosterStub) GradesByStudentsSubjectPeriodYear(ctx context.Context, studentIDs []int64, subjectID, periodID int64, year int) ([]models.SubjectGrade, error) {
	var out []models.SubjectGrade
	for _, id := range studentIDs {
		r.gradeCalls = append(r.gradeCalls, id)
		out = append(out, r.grades[id]...)
	}
	return out, nil
}

type memoryCache struct {
	entries  map[string][]byte
	patterns []string
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func reportRow(student int64, name string, subject int64, knowledge int64, knowledgeName, total string) models.ReportRow {
	return models.ReportRow{
		StudentID:     student,
		StudentName:   name,
		SubjectID:     subject,
		SubjectName:   "Subject " + string(rune('A'+subject-1)),
		PeriodID:      7,
		PeriodName:    "P1",
		TotalScore:    decimal.RequireFromString(total),
		GroupID:       3,
		GroupName:     "5 A",
		GroupCode:     "501",
		KnowledgeID:   knowledge,
		KnowledgeName: knowledgeName,
		Percentage:    50,
		Achievement:   sql.NullString{String: "Reaches the goal", Valid: true},
	}
}

func twoStudentRows() []models.ReportRow {
	return []models.ReportRow{
		reportRow(11, "Ana Ruiz", 1, 100, "SER", "4.7"),
		reportRow(11, "Ana Ruiz", 1, 101, "SABER", "4.7"),
		reportRow(12, "Luis Pardo", 1, 100, "SER", "3.2"),
		reportRow(12, "Luis Pardo", 2, 102, "HACER", "2.5"),
	}
}

func newGradeReportServiceForTest(t *testing.T, source *reportSourceStub, roster *rosterStub) (*GradeReportService, *observer.ObservedLogs, *MetricsService) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetricsService()
	cache := NewCacheService(&memoryCache{entries: map[string][]byte{}}, metrics, time.Minute, zap.NewNop(), true)
	svc := NewGradeReportService(GradeReportServiceParams{
		Reports: source,
		Roster:  roster,
		Cache:   cache,
		Metrics: metrics,
		Logger:  zap.New(core),
		Config:  GradeReportServiceConfig{SheetName: "Report", DistributionTTL: time.Minute},
	})
	return svc, logs, metrics
}

func TestGradeReportServiceGroupReport(t *testing.T) {
	source := &reportSourceStub{
		rows:     twoStudentRows(),
		teachers: []models.SubjectTeacher{{SubjectID: 1, TeacherID: 70, TeacherName: "Marta Díaz"}},
	}
	svc, _, _ := newGradeReportServiceForTest(t, source, &rosterStub{})

	reports, err := svc.GenerateGroupReport(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, int64(11), reports[0].StudentID)
	assert.Equal(t, int64(12), reports[1].StudentID)
	assert.Equal(t, "5", reports[0].Grade)
	assert.Equal(t, "Marta Díaz", reports[0].Subjects[0].TeacherName)
	assert.Equal(t, models.BandSuperior, reports[0].Subjects[0].PerformanceBand)
	assert.Len(t, reports[1].Subjects, 2)
}

func TestGradeReportServiceGroupReportWithoutRows(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{}, &rosterStub{})

	reports, err := svc.GenerateGroupReport(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestGradeReportServiceTeacherLookupFailureDegrades(t *testing.T) {
	source := &reportSourceStub{rows: twoStudentRows(), teacherErr: errors.New("connection reset")}
	svc, logs, _ := newGradeReportServiceForTest(t, source, &rosterStub{})

	reports, err := svc.GenerateGroupReport(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Empty(t, reports[0].Subjects[0].TeacherName)
	assert.Equal(t, 1, logs.FilterMessage("teacher lookup failed").Len())
}

func TestGradeReportServiceRowSourceFailure(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rowsErr: errors.New("boom")}, &rosterStub{})

	_, err := svc.GenerateGroupReport(context.Background(), 3, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	_, err = svc.GenerateExcelReport(context.Background(), 3, 7)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestGradeReportServiceStudentReportNotFound(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	_, err := svc.GenerateStudentReport(context.Background(), 3, 99, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrReportNotFound)

	_, err = svc.GenerateStudentPdfReport(context.Background(), 3, 99, 7)
	assert.ErrorIs(t, err, appErrors.ErrReportNotFound)

	_, err = svc.GenerateStudentExcelReport(context.Background(), 3, 99, 7)
	assert.ErrorIs(t, err, appErrors.ErrReportNotFound)
}

func TestGradeReportServiceStudentReportUsesDetail(t *testing.T) {
	source := &reportSourceStub{
		rows: twoStudentRows(),
		detail: &models.StudentDetail{
			StudentID:      12,
			FirstName:      "Luis",
			LastName:       "Pardo Gómez",
			DocumentNumber: sql.NullString{String: "1020", Valid: true},
			DocumentType:   sql.NullString{String: "TI", Valid: true},
			GroupName:      "5 A",
			GroupCode:      "501",
			PeriodName:     "First term",
			AcademicYear:   sql.NullInt64{Int64: 2024, Valid: true},
		},
	}
	svc, _, _ := newGradeReportServiceForTest(t, source, &rosterStub{})

	student, err := svc.GenerateStudentReport(context.Background(), 3, 12, 7)
	require.NoError(t, err)
	assert.Equal(t, "Luis Pardo Gómez", student.StudentName)
	assert.Equal(t, "1020", student.DocumentNumber)
	assert.Equal(t, 2024, student.AcademicYear)
	assert.Equal(t, "First term", student.PeriodName)
	assert.Len(t, student.Subjects, 2)
}

func TestGradeReportServiceStudentReportSimplifiedPath(t *testing.T) {
	tests := []struct {
		name      string
		detailErr error
		message   string
	}{
		{name: "missing detail", message: "student detail missing, using report rows"},
		{name: "detail lookup failure", detailErr: errors.New("timeout"), message: "student detail lookup failed, using report rows"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			source := &reportSourceStub{rows: twoStudentRows(), detailErr: tc.detailErr}
			svc, logs, _ := newGradeReportServiceForTest(t, source, &rosterStub{})

			student, err := svc.GenerateStudentReport(context.Background(), 3, 11, 7)
			require.NoError(t, err)
			assert.Equal(t, "Ana Ruiz", student.StudentName)
			assert.Equal(t, "Morning", student.Shift)
			assert.Equal(t, "Primary", student.Level)
			assert.Equal(t, 1, logs.FilterMessage(tc.message).Len())
		})
	}
}

func TestGradeReportServiceExcelReport(t *testing.T) {
	svc, _, metrics := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	out, err := svc.GenerateExcelReport(context.Background(), 3, 7)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Student", "Subject", "Knowledge", "Achievement", "Percentage", "Final Score"}, rows[0])
	assert.Equal(t, "50%", rows[1][4])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.renderTotal.WithLabelValues(formatXLSX, scopeGroup, renderOutcomeOK)))
}

func TestGradeReportServiceExcelReportWithoutRows(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{}, &rosterStub{})

	out, err := svc.GenerateExcelReport(context.Background(), 3, 7)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGradeReportServiceStudentExcelReport(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	out, err := svc.GenerateStudentExcelReport(context.Background(), 3, 12, 7)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Luis Pardo", rows[1][0])
}

func TestGradeReportServiceCSVReport(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	out, err := svc.GenerateCSVReport(context.Background(), 3, 7)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Student,Subject,Knowledge"))
}

func TestGradeReportServicePdfReport(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	out, err := svc.GeneratePdfReport(context.Background(), 3, 7)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	pages, err := pdftest.Pages(out)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "(Ana Ruiz)")
	assert.NotContains(t, pages[0], "(Luis Pardo)")
	assert.Contains(t, pages[1], "(Luis Pardo)")
	assert.NotContains(t, pages[1], "(Ana Ruiz)")
}

// pinPDFDates fixes the document dates gofpdf stamps so renders are comparable byte for byte.
func pinPDFDates(t *testing.T) {
	t.Helper()
	stamp := time.Date(2024, 3, 30, 8, 0, 0, 0, time.UTC)
	gofpdf.SetDefaultCreationDate(stamp)
	gofpdf.SetDefaultModificationDate(stamp)
	t.Cleanup(func() {
		gofpdf.SetDefaultCreationDate(time.Time{})
		gofpdf.SetDefaultModificationDate(time.Time{})
	})
}

func TestGradeReportServicePdfReportSingleStudent(t *testing.T) {
	pinPDFDates(t)
	rows := twoStudentRows()[:2]
	svc, _, metrics := newGradeReportServiceForTest(t, &reportSourceStub{rows: rows}, &rosterStub{})

	out, err := svc.GeneratePdfReport(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.renderTotal.WithLabelValues(formatPDF, scopeGroup, renderOutcomeOK)))

	reports, err := svc.GenerateGroupReport(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	want, err := report.NewDocumentRenderer(report.DefaultBranding(), false, nil).Render(reports[0])
	require.NoError(t, err)
	assert.Equal(t, want.Bytes, out)
}

func TestGradeReportServicePdfReportWithoutStudents(t *testing.T) {
	svc, _, metrics := newGradeReportServiceForTest(t, &reportSourceStub{}, &rosterStub{})

	out, err := svc.GeneratePdfReport(context.Background(), 3, 7)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, appErrors.ErrReportNotFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.renderTotal.WithLabelValues(formatPDF, scopeGroup, renderOutcomeError)))
}

func TestGradeReportServiceStudentPdfReport(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	out, err := svc.GenerateStudentPdfReport(context.Background(), 3, 11, 7)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGradeReportServiceGroupTablePdf(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{rows: twoStudentRows()}, &rosterStub{})

	out, err := svc.GenerateGroupTablePdf(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func distributionRoster() *rosterStub {
	grade := func(student int64, total string) models.SubjectGrade {
		return models.SubjectGrade{StudentID: student, TotalScore: decimal.RequireFromString(total)}
	}
	return &rosterStub{
		groups: []models.Group{{ID: 3, Name: "5 A"}, {ID: 4, Name: "5 B"}, {ID: 5, Name: "5 C"}},
		students: map[int64][]int64{
			3: {11, 12, 13},
			5: {21},
		},
		grades: map[int64][]models.SubjectGrade{
			11: {grade(11, "2.99")},
			12: {grade(12, "3")},
			13: {grade(13, "5")},
			21: {grade(21, "4")},
		},
	}
}

func TestGradeReportServiceGradeDistribution(t *testing.T) {
	roster := distributionRoster()
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{}, roster)

	result, err := svc.GetGradeDistribution(context.Background(), 2024, 7, "PRI", 9)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, models.GradeDistribution{GroupID: 3, GroupName: "5 A", Basic: 1, High: 1, Superior: 1, Total: 3}, result[0])
	assert.Equal(t, models.GradeDistribution{GroupID: 5, GroupName: "5 C", Superior: 1, Total: 1}, result[1])
	assert.Equal(t, []int64{11, 12, 13, 21}, roster.gradeCalls)
}

func TestGradeReportServiceGradeDistributionCached(t *testing.T) {
	roster := distributionRoster()
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{}, roster)
	query := dto.GradeDistributionQuery{Year: 2024, PeriodID: 7, LevelID: "PRI", SubjectID: 9}

	first, hit, err := svc.GradeDistribution(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.GradeDistribution(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, roster.groupsCalls)
}

func TestGradeReportServiceRefreshGradeDistribution(t *testing.T) {
	roster := distributionRoster()
	cache := &memoryCache{entries: map[string][]byte{
		"distribution:2024:7:SEC:9": []byte(`[]`),
		"distribution:2023:7:PRI:9": []byte(`[]`),
	}}
	metrics := NewMetricsService()
	svc := NewGradeReportService(GradeReportServiceParams{
		Reports: &reportSourceStub{},
		Roster:  roster,
		Cache:   NewCacheService(cache, metrics, time.Minute, nil, true),
		Metrics: metrics,
		Config:  GradeReportServiceConfig{DistributionTTL: time.Minute},
	})
	ctx := context.Background()

	_, err := svc.GetGradeDistribution(ctx, 2024, 7, "PRI", 9)
	require.NoError(t, err)
	require.Equal(t, 1, roster.groupsCalls)

	result, err := svc.RefreshGradeDistribution(ctx, 2024, 7, "PRI", 9)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 2, roster.groupsCalls, "refresh bypasses the cached value")
	assert.Equal(t, []string{"distribution:2024:7:*"}, cache.patterns)

	assert.Contains(t, cache.entries, "distribution:2024:7:PRI:9", "recomputed value cached again")
	assert.NotContains(t, cache.entries, "distribution:2024:7:SEC:9")
	assert.Contains(t, cache.entries, "distribution:2023:7:PRI:9")

	_, hit, err := svc.GradeDistribution(ctx, dto.GradeDistributionQuery{Year: 2024, PeriodID: 7, LevelID: "PRI", SubjectID: 9})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, roster.groupsCalls)
}

func TestGradeReportServiceGradeDistributionValidation(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{}, &rosterStub{})

	_, err := svc.GetGradeDistribution(context.Background(), 2024, 7, "  ", 9)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.GetGradeDistribution(context.Background(), 0, 7, "PRI", 9)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGradeReportServiceGradeDistributionEmptyLevel(t *testing.T) {
	svc, _, _ := newGradeReportServiceForTest(t, &reportSourceStub{}, &rosterStub{})

	result, err := svc.GetGradeDistribution(context.Background(), 2024, 7, "SEC", 9)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}
