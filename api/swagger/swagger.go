package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Report API",
        "description": "Group and student academic reports rendered as JSON, XLSX, CSV and PDF, plus subject grade distributions.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Academic report generation"},
        {"name": "Health", "description": "Probes"}
    ],
    "paths": {
        "/reports/groups/{groupId}/periods/{periodId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Group academic report",
                "parameters": [
                    {"$ref": "#/parameters/groupId"},
                    {"$ref": "#/parameters/periodId"}
                ],
                "responses": {
                    "200": {"description": "One report per student", "schema": {"$ref": "#/definitions/StudentReportList"}},
                    "400": {"description": "Invalid identifiers", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/groups/{groupId}/periods/{periodId}/excel": {
            "get": {
                "tags": ["Reports"],
                "summary": "Group academic report spreadsheet",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv"],
                "parameters": [
                    {"$ref": "#/parameters/groupId"},
                    {"$ref": "#/parameters/periodId"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["xlsx", "csv"]}
                ],
                "responses": {
                    "200": {"description": "Workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/groups/{groupId}/periods/{periodId}/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Group academic report PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/groupId"},
                    {"$ref": "#/parameters/periodId"},
                    {"name": "layout", "in": "query", "type": "string", "enum": ["document", "table"]}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}},
                    "404": {"description": "Group has no report data", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/groups/{groupId}/students/{studentId}/periods/{periodId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student academic report",
                "parameters": [
                    {"$ref": "#/parameters/groupId"},
                    {"$ref": "#/parameters/studentId"},
                    {"$ref": "#/parameters/periodId"}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/StudentReportEnvelope"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/groups/{groupId}/students/{studentId}/periods/{periodId}/excel": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student academic report spreadsheet",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"$ref": "#/parameters/groupId"},
                    {"$ref": "#/parameters/studentId"},
                    {"$ref": "#/parameters/periodId"}
                ],
                "responses": {
                    "200": {"description": "Workbook", "schema": {"type": "file"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/groups/{groupId}/students/{studentId}/periods/{periodId}/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student academic report PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/groupId"},
                    {"$ref": "#/parameters/studentId"},
                    {"$ref": "#/parameters/periodId"}
                ],
                "responses": {
                    "200": {"description": "Document", "schema": {"type": "file"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subject-grade/report/distribution": {
            "get": {
                "tags": ["Reports"],
                "summary": "Subject grade distribution per group",
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "periodId", "in": "query", "required": true, "type": "integer"},
                    {"name": "levelId", "in": "query", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "integer"},
                    {"name": "refresh", "in": "query", "required": false, "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Buckets per group", "schema": {"$ref": "#/definitions/DistributionList"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "groupId": {"name": "groupId", "in": "path", "required": true, "type": "integer"},
        "studentId": {"name": "studentId", "in": "path", "required": true, "type": "integer"},
        "periodId": {"name": "periodId", "in": "path", "required": true, "type": "integer"}
    },
    "definitions": {
        "KnowledgeItem": {
            "type": "object",
            "properties": {
                "knowledge_id": {"type": "integer"},
                "subject_knowledge_id": {"type": "integer"},
                "name": {"type": "string"},
                "percentage": {"type": "integer"},
                "achievement": {"type": "string"},
                "score": {"type": "string", "example": "4.8"},
                "definitive_score": {"type": "string", "example": "1.2"}
            }
        },
        "PeriodScore": {
            "type": "object",
            "properties": {
                "period_number": {"type": "integer"},
                "score": {"type": "string"}
            }
        },
        "SubjectReport": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "integer"},
                "subject_name": {"type": "string"},
                "area": {"type": "string"},
                "total_score": {"type": "string", "example": "4.6"},
                "performance_band": {"type": "string", "enum": ["SUPERIOR", "HIGH", "BASIC", "LOW"]},
                "recovered": {"type": "boolean"},
                "comment": {"type": "string"},
                "teacher_name": {"type": "string"},
                "absences": {"type": "integer"},
                "period_number": {"type": "integer"},
                "period_scores": {"type": "array", "items": {"$ref": "#/definitions/PeriodScore"}},
                "knowledge": {"type": "array", "items": {"$ref": "#/definitions/KnowledgeItem"}}
            }
        },
        "StudentReport": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "student_name": {"type": "string"},
                "document_number": {"type": "string"},
                "document_type": {"type": "string"},
                "academic_year": {"type": "integer"},
                "group_id": {"type": "integer"},
                "group_name": {"type": "string"},
                "group_code": {"type": "string"},
                "grade": {"type": "string"},
                "shift": {"type": "string"},
                "level": {"type": "string"},
                "period_id": {"type": "integer"},
                "period_name": {"type": "string"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/SubjectReport"}}
            }
        },
        "GradeDistribution": {
            "type": "object",
            "properties": {
                "group_id": {"type": "integer"},
                "group_name": {"type": "string"},
                "basic": {"type": "integer"},
                "high": {"type": "integer"},
                "superior": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "StudentReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StudentReport"}
            }
        },
        "StudentReportList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/StudentReport"}},
                "meta": {"type": "object", "properties": {"students": {"type": "integer"}}}
            }
        },
        "DistributionList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/GradeDistribution"}},
                "meta": {
                    "type": "object",
                    "properties": {
                        "cache_hit": {"type": "boolean"},
                        "processing_time_ms": {"type": "integer"}
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
