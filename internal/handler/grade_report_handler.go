package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-report-api/internal/dto"
	"github.com/noah-isme/academic-report-api/internal/middleware"
	"github.com/noah-isme/academic-report-api/internal/models"
	appErrors "github.com/noah-isme/academic-report-api/pkg/errors"
	"github.com/noah-isme/academic-report-api/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePDF  = "application/pdf"
)

type gradeReportService interface {
	GenerateGroupReport(ctx context.Context, groupID, periodID int64) ([]models.StudentReport, error)
	GenerateStudentReport(ctx context.Context, groupID, studentID, periodID int64) (*models.StudentReport, error)
	GenerateExcelReport(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateCSVReport(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateStudentExcelReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error)
	GeneratePdfReport(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateGroupTablePdf(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateStudentPdfReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error)
	GradeDistribution(ctx context.Context, query dto.GradeDistributionQuery) ([]models.GradeDistribution, bool, error)
}

// GradeReportHandler exposes academic report endpoints.
type GradeReportHandler struct {
	service gradeReportService
}

// NewGradeReportHandler constructs the handler.
func NewGradeReportHandler(service gradeReportService) *GradeReportHandler {
	return &GradeReportHandler{service: service}
}

// GroupReport godoc
// @Summary Group academic report
// @Description Returns one nested report per student of the group for the period.
// @Tags Reports
// @Produce json
// @Param groupId path int true "Group ID"
// @Param periodId path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/groups/{groupId}/periods/{periodId} [get]
func (h *GradeReportHandler) GroupReport(c *gin.Context) {
	params, ok := h.groupParams(c)
	if !ok {
		return
	}
	reports, err := h.service.GenerateGroupReport(c.Request.Context(), params.GroupID, params.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, map[string]interface{}{"students": len(reports)})
}

// GroupSpreadsheet godoc
// @Summary Group academic report spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param groupId path int true "Group ID"
// @Param periodId path int true "Period ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/groups/{groupId}/periods/{periodId}/excel [get]
func (h *GradeReportHandler) GroupSpreadsheet(c *gin.Context) {
	params, ok := h.groupParams(c)
	if !ok {
		return
	}
	var query dto.SpreadsheetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be xlsx or csv"))
		return
	}

	ctx := c.Request.Context()
	if query.Format == dto.FormatCSV {
		out, err := h.service.GenerateCSVReport(ctx, params.GroupID, params.PeriodID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, groupFilename(params, "csv"), contentTypeCSV, out)
		return
	}

	out, err := h.service.GenerateExcelReport(ctx, params.GroupID, params.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, groupFilename(params, "xlsx"), contentTypeXLSX, out)
}

// GroupPdf godoc
// @Summary Group academic report PDF
// @Description Per-student documents concatenated in roster order, or a single table with layout=table.
// @Tags Reports
// @Produce application/pdf
// @Param groupId path int true "Group ID"
// @Param periodId path int true "Period ID"
// @Param layout query string false "document (default) or table"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/groups/{groupId}/periods/{periodId}/pdf [get]
func (h *GradeReportHandler) GroupPdf(c *gin.Context) {
	params, ok := h.groupParams(c)
	if !ok {
		return
	}
	var query dto.PdfQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "layout must be document or table"))
		return
	}

	render := h.service.GeneratePdfReport
	if query.Layout == dto.LayoutTable {
		render = h.service.GenerateGroupTablePdf
	}
	out, err := render(c.Request.Context(), params.GroupID, params.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, groupFilename(params, "pdf"), contentTypePDF, out)
}

// StudentReport godoc
// @Summary Student academic report
// @Tags Reports
// @Produce json
// @Param groupId path int true "Group ID"
// @Param studentId path int true "Student ID"
// @Param periodId path int true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/groups/{groupId}/students/{studentId}/periods/{periodId} [get]
func (h *GradeReportHandler) StudentReport(c *gin.Context) {
	params, ok := h.studentParams(c)
	if !ok {
		return
	}
	report, err := h.service.GenerateStudentReport(c.Request.Context(), params.GroupID, params.StudentID, params.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// StudentSpreadsheet godoc
// @Summary Student academic report spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param groupId path int true "Group ID"
// @Param studentId path int true "Student ID"
// @Param periodId path int true "Period ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/groups/{groupId}/students/{studentId}/periods/{periodId}/excel [get]
func (h *GradeReportHandler) StudentSpreadsheet(c *gin.Context) {
	params, ok := h.studentParams(c)
	if !ok {
		return
	}
	out, err := h.service.GenerateStudentExcelReport(c.Request.Context(), params.GroupID, params.StudentID, params.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, studentFilename(params, "xlsx"), contentTypeXLSX, out)
}

// StudentPdf godoc
// @Summary Student academic report PDF
// @Tags Reports
// @Produce application/pdf
// @Param groupId path int true "Group ID"
// @Param studentId path int true "Student ID"
// @Param periodId path int true "Period ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/groups/{groupId}/students/{studentId}/periods/{periodId}/pdf [get]
func (h *GradeReportHandler) StudentPdf(c *gin.Context) {
	params, ok := h.studentParams(c)
	if !ok {
		return
	}
	out, err := h.service.GenerateStudentPdfReport(c.Request.Context(), params.GroupID, params.StudentID, params.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, studentFilename(params, "pdf"), contentTypePDF, out)
}

// Distribution godoc
// @Summary Subject grade distribution
// @Description Counts subject totals per active group of a level in basic, high and superior buckets.
// @Tags Reports
// @Produce json
// @Param year query int true "Academic year"
// @Param periodId query int true "Period ID"
// @Param levelId query string true "Education level ID"
// @Param subjectId query int true "Subject ID"
// @Param refresh query bool false "Drop cached distributions of the year and period before recomputing"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subject-grade/report/distribution [get]
func (h *GradeReportHandler) Distribution(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service unavailable"))
		return
	}
	var query dto.GradeDistributionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year, periodId and subjectId must be numeric and refresh a boolean"))
		return
	}
	result, hit, err := h.service.GradeDistribution(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

func (h *GradeReportHandler) groupParams(c *gin.Context) (dto.GroupReportParams, bool) {
	var params dto.GroupReportParams
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service unavailable"))
		return params, false
	}
	if err := c.ShouldBindUri(&params); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "groupId and periodId must be positive integers"))
		return params, false
	}
	return params, true
}

func (h *GradeReportHandler) studentParams(c *gin.Context) (dto.StudentReportParams, bool) {
	var params dto.StudentReportParams
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service unavailable"))
		return params, false
	}
	if err := c.ShouldBindUri(&params); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "groupId, studentId and periodId must be positive integers"))
		return params, false
	}
	return params, true
}

func groupFilename(p dto.GroupReportParams, ext string) string {
	return fmt.Sprintf("academic-report-group-%d-period-%d.%s", p.GroupID, p.PeriodID, ext)
}

func studentFilename(p dto.StudentReportParams, ext string) string {
	return fmt.Sprintf("academic-report-group-%d-student-%d-period-%d.%s", p.GroupID, p.StudentID, p.PeriodID, ext)
}
