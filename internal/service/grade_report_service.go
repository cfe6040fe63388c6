package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-report-api/internal/dto"
	"github.com/noah-isme/academic-report-api/internal/models"
	"github.com/noah-isme/academic-report-api/internal/report"
	appErrors "github.com/noah-isme/academic-report-api/pkg/errors"
	"github.com/noah-isme/academic-report-api/pkg/export"
)

// Report formats and scopes used as metric labels.
const (
	formatJSON  = "json"
	formatXLSX  = "xlsx"
	formatCSV   = "csv"
	formatPDF   = "pdf"
	formatTable = "pdf_table"

	scopeGroup   = "group"
	scopeStudent = "student"
)

type reportRowSource interface {
	RowsByGroupAndPeriod(ctx context.Context, groupID, periodID int64) ([]models.ReportRow, error)
	RowsByStudentGroupAndPeriod(ctx context.Context, groupID, studentID, periodID int64) ([]models.ReportRow, error)
	StudentDetail(ctx context.Context, studentID, groupID, periodID int64) (*models.StudentDetail, error)
	TeachersByGroupAndPeriod(ctx context.Context, groupID, periodID int64) ([]models.SubjectTeacher, error)
}

type rosterSource interface {
	ActiveGroupsByLevel(ctx context.Context, levelID string) ([]models.Group, error)
	ActiveStudentIDsByGroup(ctx context.Context, groupID int64) ([]int64, error)
	GradesByStudentsSubjectPeriodYear(ctx context.Context, studentIDs []int64, subjectID, periodID int64, year int) ([]models.SubjectGrade, error)
}

// GradeReportServiceConfig tunes rendering and caching.
type GradeReportServiceConfig struct {
	Branding        report.Branding
	SheetName       string
	CompressPDF     bool
	DistributionTTL time.Duration
}

// GradeReportServiceParams groups constructor dependencies.
type GradeReportServiceParams struct {
	Reports   reportRowSource
	Roster    rosterSource
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    GradeReportServiceConfig
}

// GradeReportService builds academic reports for groups and students and
// renders them as JSON trees, spreadsheets and PDF documents.
type GradeReportService struct {
	reports    reportRowSource
	roster     rosterSource
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        GradeReportServiceConfig
	aggregator *report.Aggregator
	documents  *report.DocumentRenderer
	merger     *export.PDFMerger
	xlsx       *export.XLSXExporter
	csv        *export.CSVExporter
	table      *export.PDFExporter
}

// NewGradeReportService wires the report pipeline.
func NewGradeReportService(params GradeReportServiceParams) *GradeReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	cfg := params.Config
	if cfg.Branding == (report.Branding{}) {
		cfg.Branding = report.DefaultBranding()
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Academic Report"
	}
	return &GradeReportService{
		reports:    params.Reports,
		roster:     params.Roster,
		cache:      params.Cache,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		aggregator: report.NewAggregator(cfg.Branding, logger),
		documents:  report.NewDocumentRenderer(cfg.Branding, cfg.CompressPDF, logger),
		merger:     export.NewPDFMerger(cfg.CompressPDF),
		xlsx:       export.NewXLSXExporter(cfg.SheetName),
		csv:        export.NewCSVExporter(),
		table:      export.NewPDFExporter(cfg.CompressPDF),
	}
}

// GenerateGroupReport returns one report per student of the group. A group
// without rows yields an empty slice.
func (s *GradeReportService) GenerateGroupReport(ctx context.Context, groupID, periodID int64) ([]models.StudentReport, error) {
	start := time.Now()
	reports, err := s.groupReports(ctx, groupID, periodID)
	s.metrics.ObserveReportRender(formatJSON, scopeGroup, time.Since(start), 0, err)
	return reports, err
}

// GenerateStudentReport returns the report of one student. It fails with
// ErrReportNotFound when the student has no rows for the group and period.
func (s *GradeReportService) GenerateStudentReport(ctx context.Context, groupID, studentID, periodID int64) (*models.StudentReport, error) {
	start := time.Now()
	student, err := s.studentReport(ctx, groupID, studentID, periodID)
	s.metrics.ObserveReportRender(formatJSON, scopeStudent, time.Since(start), 0, err)
	return student, err
}

// GenerateExcelReport renders the group report as an XLSX workbook.
func (s *GradeReportService) GenerateExcelReport(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	return s.render(formatXLSX, scopeGroup, func() ([]byte, error) {
		reports, err := s.groupReports(ctx, groupID, periodID)
		if err != nil {
			return nil, err
		}
		return s.workbook(reports)
	})
}

// GenerateStudentExcelReport renders one student's report as an XLSX workbook.
func (s *GradeReportService) GenerateStudentExcelReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error) {
	return s.render(formatXLSX, scopeStudent, func() ([]byte, error) {
		student, err := s.studentReport(ctx, groupID, studentID, periodID)
		if err != nil {
			return nil, err
		}
		return s.workbook([]models.StudentReport{*student})
	})
}

// GenerateCSVReport renders the group spreadsheet rows as CSV.
func (s *GradeReportService) GenerateCSVReport(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	return s.render(formatCSV, scopeGroup, func() ([]byte, error) {
		reports, err := s.groupReports(ctx, groupID, periodID)
		if err != nil {
			return nil, err
		}
		out, err := s.csv.Render(report.Sheet(s.cfg.SheetName, reports))
		if err != nil {
			return nil, appErrors.Render(err, formatCSV)
		}
		return out, nil
	})
}

// GeneratePdfReport renders one document per student and concatenates them.
// A group with a single student returns that student's document unchanged.
func (s *GradeReportService) GeneratePdfReport(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	return s.render(formatPDF, scopeGroup, func() ([]byte, error) {
		reports, err := s.groupReports(ctx, groupID, periodID)
		if err != nil {
			return nil, err
		}
		if len(reports) == 0 {
			return nil, appErrors.Clone(appErrors.ErrReportNotFound,
				fmt.Sprintf("no report data for group %d in period %d", groupID, periodID))
		}

		docs := make([]export.PDFDocument, 0, len(reports))
		for _, student := range reports {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			doc, err := s.documents.Render(student)
			if err != nil {
				return nil, appErrors.Render(err, formatPDF)
			}
			docs = append(docs, doc)
		}
		if len(docs) == 1 {
			return docs[0].Bytes, nil
		}

		merged, err := s.merger.Merge(docs)
		if err != nil {
			return nil, appErrors.Render(err, formatPDF)
		}
		s.logger.Debug("group report merged",
			zap.Int64("group_id", groupID),
			zap.Int64("period_id", periodID),
			zap.Int("students", len(docs)),
			zap.Int("pages", merged.Pages),
		)
		return merged.Bytes, nil
	})
}

// GenerateGroupTablePdf renders the group report as a single table with one
// line per knowledge item.
func (s *GradeReportService) GenerateGroupTablePdf(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	return s.render(formatTable, scopeGroup, func() ([]byte, error) {
		reports, err := s.groupReports(ctx, groupID, periodID)
		if err != nil {
			return nil, err
		}
		data := report.Table(s.cfg.Branding.ReportTitle, reports, s.logger)
		out, err := s.table.Render(data, report.Subtitle(reports), report.TableWeights)
		if err != nil {
			return nil, appErrors.Render(err, formatPDF)
		}
		return out, nil
	})
}

// GenerateStudentPdfReport renders one student's report document.
func (s *GradeReportService) GenerateStudentPdfReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error) {
	return s.render(formatPDF, scopeStudent, func() ([]byte, error) {
		student, err := s.studentReport(ctx, groupID, studentID, periodID)
		if err != nil {
			return nil, err
		}
		doc, err := s.documents.Render(*student)
		if err != nil {
			return nil, appErrors.Render(err, formatPDF)
		}
		return doc.Bytes, nil
	})
}

// GetGradeDistribution buckets the subject totals of every active group in a level.
func (s *GradeReportService) GetGradeDistribution(ctx context.Context, year int, periodID int64, levelID string, subjectID int64) ([]models.GradeDistribution, error) {
	result, _, err := s.GradeDistribution(ctx, dto.GradeDistributionQuery{
		Year:      year,
		PeriodID:  periodID,
		LevelID:   levelID,
		SubjectID: subjectID,
	})
	return result, err
}

// RefreshGradeDistribution recomputes a distribution and replaces every cached
// distribution of the same year and period.
func (s *GradeReportService) RefreshGradeDistribution(ctx context.Context, year int, periodID int64, levelID string, subjectID int64) ([]models.GradeDistribution, error) {
	result, _, err := s.GradeDistribution(ctx, dto.GradeDistributionQuery{
		Year:      year,
		PeriodID:  periodID,
		LevelID:   levelID,
		SubjectID: subjectID,
		Refresh:   true,
	})
	return result, err
}

// GradeDistribution validates the query and returns the per-group buckets.
// The boolean reports whether the result came from cache.
func (s *GradeReportService) GradeDistribution(ctx context.Context, query dto.GradeDistributionQuery) ([]models.GradeDistribution, bool, error) {
	query.LevelID = strings.TrimSpace(query.LevelID)
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid distribution query")
	}

	key := distributionCacheKey(query)
	if query.Refresh {
		// Failures are logged by the cache service; the Set below still replaces key.
		_ = s.cache.Invalidate(ctx, distributionScope(query.Year, query.PeriodID))
	} else {
		var cached []models.GradeDistribution
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	groups, err := s.roster.ActiveGroupsByLevel(ctx, query.LevelID)
	if err != nil {
		return nil, false, wrapInternal(err, "failed to load groups")
	}

	result := make([]models.GradeDistribution, 0, len(groups))
	for _, group := range groups {
		studentIDs, err := s.roster.ActiveStudentIDsByGroup(ctx, group.ID)
		if err != nil {
			return nil, false, wrapInternal(err, "failed to load group students")
		}
		if len(studentIDs) == 0 {
			continue
		}
		grades, err := s.roster.GradesByStudentsSubjectPeriodYear(ctx, studentIDs, query.SubjectID, query.PeriodID, query.Year)
		if err != nil {
			return nil, false, wrapInternal(err, "failed to load subject grades")
		}
		result = append(result, report.Distribute(group, grades))
	}
	s.metrics.ObserveDBQuery("grade_distribution", time.Since(start))

	if err := s.cache.Set(ctx, key, result, s.cfg.DistributionTTL); err != nil {
		s.logger.Warn("cache grade distribution", zap.String("key", key), zap.Error(err))
	}
	return result, false, nil
}

func (s *GradeReportService) groupReports(ctx context.Context, groupID, periodID int64) ([]models.StudentReport, error) {
	start := time.Now()
	rows, err := s.reports.RowsByGroupAndPeriod(ctx, groupID, periodID)
	s.metrics.ObserveDBQuery("report_rows_group", time.Since(start))
	if err != nil {
		return nil, wrapInternal(err, "failed to load report rows")
	}
	if len(rows) == 0 {
		return []models.StudentReport{}, nil
	}
	return s.aggregator.Build(rows, s.teachers(ctx, groupID, periodID)), nil
}

func (s *GradeReportService) studentReport(ctx context.Context, groupID, studentID, periodID int64) (*models.StudentReport, error) {
	start := time.Now()
	rows, err := s.reports.RowsByStudentGroupAndPeriod(ctx, groupID, studentID, periodID)
	s.metrics.ObserveDBQuery("report_rows_student", time.Since(start))
	if err != nil {
		return nil, wrapInternal(err, "failed to load report rows")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrReportNotFound,
			fmt.Sprintf("no report data for student %d in group %d period %d", studentID, groupID, periodID))
	}

	teachers := s.teachers(ctx, groupID, periodID)
	if detail := s.studentDetail(ctx, studentID, groupID, periodID); detail != nil {
		student := s.aggregator.BuildStudent(rows, *detail, teachers)
		return &student, nil
	}

	reports := s.aggregator.Build(rows, teachers)
	for i := range reports {
		if reports[i].StudentID == studentID {
			return &reports[i], nil
		}
	}
	return &reports[0], nil
}

// studentDetail returns nil when the identity tuple is missing or the lookup fails.
func (s *GradeReportService) studentDetail(ctx context.Context, studentID, groupID, periodID int64) *models.StudentDetail {
	detail, err := s.reports.StudentDetail(ctx, studentID, groupID, periodID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Debug("student detail missing, using report rows",
			zap.Int64("student_id", studentID), zap.Int64("group_id", groupID))
		return nil
	case err != nil:
		s.logger.Warn("student detail lookup failed, using report rows",
			zap.Int64("student_id", studentID), zap.Int64("group_id", groupID), zap.Error(err))
		return nil
	}
	return detail
}

// teachers returns nil when the lookup fails; subjects then keep row teacher names only.
func (s *GradeReportService) teachers(ctx context.Context, groupID, periodID int64) report.TeacherIndex {
	assignments, err := s.reports.TeachersByGroupAndPeriod(ctx, groupID, periodID)
	if err != nil {
		s.logger.Warn("teacher lookup failed",
			zap.Int64("group_id", groupID), zap.Int64("period_id", periodID), zap.Error(err))
		return nil
	}
	return report.NewTeacherIndex(assignments)
}

func (s *GradeReportService) workbook(reports []models.StudentReport) ([]byte, error) {
	out, err := s.xlsx.Render(report.Sheet(s.cfg.SheetName, reports))
	if err != nil {
		return nil, appErrors.Render(err, "excel")
	}
	return out, nil
}

func (s *GradeReportService) render(format, scope string, build func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := build()
	s.metrics.ObserveReportRender(format, scope, time.Since(start), len(out), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func distributionCacheKey(q dto.GradeDistributionQuery) string {
	return fmt.Sprintf("distribution:%d:%d:%s:%d", q.Year, q.PeriodID, q.LevelID, q.SubjectID)
}

// distributionScope matches every cached distribution of a year and period.
func distributionScope(year int, periodID int64) string {
	return fmt.Sprintf("distribution:%d:%d:*", year, periodID)
}

func wrapInternal(err error, message string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
