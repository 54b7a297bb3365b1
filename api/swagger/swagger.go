package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Registration API",
        "description": "Class registration platform with capacity-aware admission and waitlists",
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
        {"name": "Auth", "description": "Authentication and sessions"},
        {"name": "Offerings", "description": "Class offering catalog and lifecycle"},
        {"name": "Enrollments", "description": "Admission, waitlist and cancellation"},
        {"name": "Blocks", "description": "Per-offering enrollment blocks"},
        {"name": "Students", "description": "Family member records"},
        {"name": "Schedule", "description": "Slot validation and conflict detection"},
        {"name": "Payments", "description": "Checkout and processor callbacks"},
        {"name": "Audit", "description": "Admin audit trail"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "responses": {
                    "200": {"description": "Tokens rotated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke a refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Revoked"}}
            }
        },
        "/offerings": {
            "get": {
                "tags": ["Offerings"],
                "summary": "List class offerings",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "block", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/offerings/{id}": {
            "get": {
                "tags": ["Offerings"],
                "summary": "Get offering detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/offerings/{id}/seats": {
            "get": {
                "tags": ["Offerings"],
                "summary": "Live seat usage",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/offerings/{id}/waitlist": {
            "get": {
                "tags": ["Offerings"],
                "summary": "Ordered waitlist",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedule/validate": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Validate a (day, block) pair",
                "parameters": [
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "block", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Slot is legal"},
                    "400": {"description": "Missing field, invalid day or invalid block"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List the acting guardian's students",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a family member",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student",
                "description": "Admits when a seat is free, otherwise appends to the waitlist.",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}],
                "responses": {
                    "201": {"description": "Admitted or waitlisted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Student is blocked"},
                    "409": {"description": "Duplicate enrollment"}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment detail",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Cancel an enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Cancelled; a vacated seat promotes the waitlist head"},
                    "412": {"description": "Already cancelled or not cancellable by this actor"}
                }
            }
        },
        "/enrollments/{id}/checkout": {
            "post": {
                "tags": ["Payments"],
                "summary": "Open a payment for a pending enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"description": "Pending payment created or returned"},
                    "412": {"description": "Enrollment is not awaiting payment"}
                }
            }
        },
        "/enrollments/{id}/payment": {
            "get": {
                "tags": ["Payments"],
                "summary": "Get the payment linked to an enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/admin/audit/{resource}/{id}": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit records for a resource",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "resource", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "Audit trail, newest first", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/enrollments/force": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Force-enroll past capacity and blocks",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}],
                "responses": {
                    "201": {"description": "Confirmed seat created and audited"},
                    "409": {"description": "Duplicate enrollment"}
                }
            }
        },
        "/admin/offerings/{id}/reconcile": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Reconcile an over-admitted offering",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Reconciliation summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/schedule/conflicts": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Detect conflicts across the active schedule",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Conflict list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/webhooks/payments/completed": {
            "post": {
                "tags": ["Payments"],
                "summary": "Payment captured callback",
                "responses": {"200": {"description": "Enrollment confirmed"}}
            }
        },
        "/webhooks/payments/refunded": {
            "post": {
                "tags": ["Payments"],
                "summary": "Payment refunded callback",
                "responses": {"200": {"description": "Enrollment cancelled, waitlist head promoted"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["student_id", "offering_id"],
            "properties": {
                "student_id": {"type": "string"},
                "offering_id": {"type": "string"}
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
