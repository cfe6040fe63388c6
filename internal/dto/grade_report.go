package dto

// Export formats and PDF layouts accepted by the report endpoints.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	LayoutDocument = "document"
	LayoutTable    = "table"
)

// GroupReportParams binds /reports/groups/:groupId/periods/:periodId.
type GroupReportParams struct {
	GroupID  int64 `uri:"groupId" binding:"required,gt=0"`
	PeriodID int64 `uri:"periodId" binding:"required,gt=0"`
}

// StudentReportParams binds /reports/groups/:groupId/students/:studentId/periods/:periodId.
type StudentReportParams struct {
	GroupID   int64 `uri:"groupId" binding:"required,gt=0"`
	StudentID int64 `uri:"studentId" binding:"required,gt=0"`
	PeriodID  int64 `uri:"periodId" binding:"required,gt=0"`
}

// SpreadsheetQuery selects the spreadsheet encoding.
type SpreadsheetQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}

// PdfQuery selects the group PDF layout.
type PdfQuery struct {
	Layout string `form:"layout" binding:"omitempty,oneof=document table"`
}

// GradeDistributionQuery captures GET /subject-grade/report/distribution.
type GradeDistributionQuery struct {
	Year      int    `form:"year" json:"year" validate:"required,gte=1900,lte=9999"`
	PeriodID  int64  `form:"periodId" json:"periodId" validate:"required,gt=0"`
	LevelID   string `form:"levelId" json:"levelId" validate:"required,max=32"`
	SubjectID int64  `form:"subjectId" json:"subjectId" validate:"required,gt=0"`
	// Refresh drops the cached distributions of the year and period before recomputing.
	Refresh bool `form:"refresh" json:"refresh"`
}
