package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Records API",
        "description": "Institutional records backend: students, faculty, exams, fees, admissions, grievances, leaves and theses",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Sessions, registration and password management"},
        {"name": "Students", "description": "Student records"},
        {"name": "Faculty", "description": "Faculty records"},
        {"name": "Exams", "description": "Exam scheduling and materials"},
        {"name": "Fees", "description": "Fees, payments and receipts"},
        {"name": "Admissions", "description": "Admission pipeline"},
        {"name": "Grievances", "description": "Grievance workflow"},
        {"name": "Leaves", "description": "Leave applications"},
        {"name": "Theses", "description": "Thesis lifecycle"},
        {"name": "Audit", "description": "Audit trail"},
        {"name": "Files", "description": "Signed attachment downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "All required services reachable"},
                    "503": {"description": "A required service is down"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student account",
                "responses": {
                    "201": {"description": "Student provisioned"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Invalid or expired refresh token"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student",
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Create faculty member",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Schedule an exam",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/exams/{id}/status": {
            "patch": {
                "tags": ["Exams"],
                "summary": "Transition exam status",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid transition"}
                }
            }
        },
        "/exams/{id}/materials": {
            "post": {
                "tags": ["Exams"],
                "summary": "Attach exam materials",
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "List fees",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Fees"],
                "summary": "Create fee",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/fees/{id}/payments": {
            "post": {
                "tags": ["Fees"],
                "summary": "Record a payment",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Fee not payable"}
                }
            }
        },
        "/fees/{id}/receipt": {
            "get": {
                "tags": ["Fees"],
                "summary": "Download payment receipt",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF receipt"},
                    "400": {"description": "Fee not fully paid"}
                }
            }
        },
        "/admissions": {
            "get": {
                "tags": ["Admissions"],
                "summary": "List applications",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Admissions"],
                "summary": "Submit application",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/admissions/bulk": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Submit applications in bulk",
                "responses": {"200": {"description": "Per-item results"}}
            }
        },
        "/admissions/{id}/enroll": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Enroll an approved applicant",
                "responses": {
                    "200": {"description": "Student provisioned"},
                    "400": {"description": "Application not approved"}
                }
            }
        },
        "/grievances": {
            "get": {
                "tags": ["Grievances"],
                "summary": "List grievances",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Grievances"],
                "summary": "Submit grievance",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/leaves": {
            "get": {
                "tags": ["Leaves"],
                "summary": "List leave applications",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Leaves"],
                "summary": "Apply for leave",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Overlapping application"}
                }
            }
        },
        "/thesis": {
            "get": {
                "tags": ["Theses"],
                "summary": "List theses",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Theses"],
                "summary": "Create thesis draft",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/files/{token}": {
            "get": {
                "tags": ["Files"],
                "summary": "Download attachment via signed token",
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "File content"},
                    "401": {"description": "Invalid or expired token"},
                    "404": {"description": "File missing"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
