package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "E-Learning API",
        "description": "Lesson submission, scoring and grade book service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Lessons", "description": "Answer submission and lesson results"},
        {"name": "Users", "description": "Current user"}
    ],
    "paths": {
        "/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current user info",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/courses/{courseId}/lessons/{lessonId}/select-answers": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Submit answers for a lesson",
                "description": "Replaces the caller's previous submission, scores it and reports approval. Approved submissions return type SUCCESS, others WARNING.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectAnswersRequest"}}
                ],
                "responses": {
                    "200": {"description": "Scored", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Lesson not found", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Concurrent submission, retry", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Persistence error", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/courses/{courseId}/lessons/{lessonId}/result": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Get my latest result for a lesson",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "No submission yet", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/courses/{courseId}/lessons/{lessonId}/results": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List every student's result for a lesson",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/courses/{courseId}/lessons/{lessonId}/results/export": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Export lesson results",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "required": false, "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "SelectAnswersRequest": {
            "type": "object",
            "required": ["answers"],
            "properties": {
                "answers": {"type": "array", "minItems": 1, "items": {"type": "string", "format": "uuid"}}
            }
        },
        "SubmissionResult": {
            "type": "object",
            "properties": {
                "lesson_id": {"type": "string"},
                "approved": {"type": "boolean"},
                "score": {"type": "integer"},
                "max_score": {"type": "integer"},
                "required_score": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["SUCCESS", "ERROR", "WARNING", "INFO"]},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
