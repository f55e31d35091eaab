package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Engine API",
        "description": "Decision layer for automated timetable scheduling",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Users", "description": "User account administration"},
        {"name": "Datasets", "description": "Reference dataset snapshots"},
        {"name": "Pipeline", "description": "Scheduling pipeline runs and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/datasets": {
            "get": {
                "tags": ["Datasets"],
                "summary": "List datasets",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Datasets"],
                "summary": "Upload dataset",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDatasetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/datasets/csv": {
            "post": {
                "tags": ["Datasets"],
                "summary": "Upload dataset as CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "courses", "in": "formData", "type": "file", "required": true},
                    {"name": "faculty", "in": "formData", "type": "file", "required": true},
                    {"name": "rooms", "in": "formData", "type": "file", "required": true},
                    {"name": "time_slots", "in": "formData", "type": "file", "required": true},
                    {"name": "batches", "in": "formData", "type": "file", "required": true},
                    {"name": "constraints", "in": "formData", "type": "file", "required": false},
                    {"name": "institution_name", "in": "formData", "type": "string", "required": false}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/datasets/{id}": {
            "get": {
                "tags": ["Datasets"],
                "summary": "Get dataset summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Datasets"],
                "summary": "Delete dataset",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/pipeline/runs": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "List pipeline runs",
                "parameters": [
                    {"name": "datasetId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "accepted", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Pipeline"],
                "summary": "Trigger pipeline run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RunRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted (async)", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Dataset not found"}
                }
            }
        },
        "/api/v1/pipeline/runs/{id}": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "Get pipeline run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/pipeline/runs/{id}/export": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "Export pipeline run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "json", "pdf", "text"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Run not completed"}
                }
            }
        },
        "/api/v1/export/{token}": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "Download exported file",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/api/v1/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateDatasetRequest": {
            "type": "object",
            "properties": {
                "institutionName": {"type": "string"},
                "courses": {"type": "array", "items": {"type": "object"}},
                "faculty": {"type": "array", "items": {"type": "object"}},
                "rooms": {"type": "array", "items": {"type": "object"}},
                "timeSlots": {"type": "array", "items": {"type": "object"}},
                "batches": {"type": "array", "items": {"type": "object"}},
                "hardConstraints": {"type": "array", "items": {"type": "object"}},
                "softConstraints": {"type": "array", "items": {"type": "object"}}
            },
            "required": ["courses", "faculty", "rooms", "timeSlots", "batches"]
        },
        "RunRequest": {
            "type": "object",
            "properties": {
                "datasetId": {"type": "string"},
                "solverOverride": {"type": "string"},
                "async": {"type": "boolean"}
            },
            "required": ["datasetId"]
        },
        "RunResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "datasetId": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "RUNNING", "COMPLETED", "FAILED"]},
                "solver": {"type": "string"},
                "difficulty": {"type": "string", "enum": ["SIMPLE", "MODERATE", "COMPLEX", "EXTREME"]},
                "accepted": {"type": "boolean"},
                "detail": {"type": "object"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
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
