package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Billing API",
        "description": "Lesson billing, wallets and ledger reports for the tutoring school.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Lessons", "description": "Lesson status changes that bill or pay back lessons"},
        {"name": "Payments", "description": "Manual wallet top-ups and debits"},
        {"name": "Reports", "description": "Teacher earnings and company spend"},
        {"name": "Wallets", "description": "Wallet balance and ledger reconciliation"},
        {"name": "Profiles", "description": "Teacher and student profiles driven by user roles"},
        {"name": "Catalog", "description": "Currencies and transaction types"}
    ],
    "paths": {
        "/lessons/{id}/status": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Change lesson status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Lesson not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Ledger conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid price plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/{id}/payback": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Pay a lesson back",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Lesson has no transactions to reverse", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments": {
            "post": {
                "tags": ["Payments"],
                "summary": "Record a manual payment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ManualPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/recent": {
            "get": {
                "tags": ["Payments"],
                "summary": "List recent manual payments",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/teachers/{id}/earnings": {
            "get": {
                "tags": ["Reports"],
                "summary": "Teacher earnings by half month",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/companies/{id}/spend": {
            "get": {
                "tags": ["Reports"],
                "summary": "Company lesson spend by month",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/balance": {
            "get": {
                "tags": ["Wallets"],
                "summary": "Student wallet and remaining lesson time",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wallets/reconcile": {
            "post": {
                "tags": ["Wallets"],
                "summary": "Scan all wallets for drift",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wallets/{kind}/{id}/reconcile": {
            "post": {
                "tags": ["Wallets"],
                "summary": "Compare a wallet with its ledger",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["student", "company"]},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "fix", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profiles": {
            "put": {
                "tags": ["Profiles"],
                "summary": "Sync teacher/student profile with a user's role",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProvisionProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/currencies": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List currencies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transaction-types": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List transaction types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/cache": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Drop cached reference data",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "LessonStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["planned", "conducted", "missed"]},
                "teacher_id": {"type": "string"}
            }
        },
        "ManualPaymentRequest": {
            "type": "object",
            "required": ["owner_kind", "owner_id", "amount", "transaction_type_id"],
            "properties": {
                "owner_kind": {"type": "string", "enum": ["student", "company"]},
                "owner_id": {"type": "string"},
                "amount": {"type": "string", "example": "120.50"},
                "transaction_type_id": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "ProvisionProfileRequest": {
            "type": "object",
            "required": ["user_id"],
            "properties": {
                "user_id": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["teacher", "student", ""]}
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
