package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Impulso API",
        "description": "Crowdfunding platform: campaigns, identity verification, donations",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Accounts and sessions"},
        {"name": "Campaigns", "description": "Campaign wizard and public catalog"},
        {"name": "Verification", "description": "Organizer verification flow"},
        {"name": "Admin", "description": "Verification review dashboard"},
        {"name": "Donations", "description": "Checkout recording and receipts"},
        {"name": "LegalEntities", "description": "Legal entity registry"},
        {"name": "Notifications", "description": "In-app notification inbox"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List published campaigns",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Campaigns"],
                "summary": "Create draft campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCampaignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/mine": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List own campaigns",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/unverified": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List campaigns pending verification",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "Get campaign",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Campaigns"],
                "summary": "Save wizard step",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCampaignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not a draft"}
                }
            }
        },
        "/campaigns/{id}/publish": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Publish campaign",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not a draft"}
                }
            }
        },
        "/campaigns/{id}/verification": {
            "get": {
                "tags": ["Verification"],
                "summary": "Get verification status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Verification"],
                "summary": "Submit verification request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitVerificationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition rejected"}
                }
            }
        },
        "/campaigns/{id}/verification/evidence": {
            "post": {
                "tags": ["Verification"],
                "summary": "Upload evidence files",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "files", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Per-file results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}/donations": {
            "get": {
                "tags": ["Donations"],
                "summary": "List campaign donations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/donations": {
            "post": {
                "tags": ["Donations"],
                "summary": "Record donation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDonationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Campaign not accepting donations"}
                }
            }
        },
        "/donations/{id}/receipt": {
            "get": {
                "tags": ["Donations"],
                "summary": "Get receipt link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Signed download URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Receipt not ready"}
                }
            }
        },
        "/donations/{id}/receipt/download": {
            "get": {
                "tags": ["Donations"],
                "summary": "Download receipt PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/admin/verification-requests": {
            "get": {
                "tags": ["Admin"],
                "summary": "List verification requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/verification-requests/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export verification requests as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV download"}
                }
            }
        },
        "/admin/verification-requests/{id}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get evidence bundle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/verification-requests/{id}/status": {
            "put": {
                "tags": ["Admin"],
                "summary": "Decide verification request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition rejected"}
                }
            }
        },
        "/legal-entities": {
            "get": {
                "tags": ["LegalEntities"],
                "summary": "List legal entities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["LegalEntities"],
                "summary": "Register legal entity",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ORGANIZER", "DONOR"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateCampaignRequest": {
            "type": "object",
            "required": ["title", "category", "goalAmountCents", "currency"],
            "properties": {
                "title": {"type": "string"},
                "category": {"type": "string"},
                "goalAmountCents": {"type": "integer"},
                "currency": {"type": "string"}
            }
        },
        "UpdateCampaignRequest": {
            "type": "object",
            "required": ["wizardStep"],
            "properties": {
                "wizardStep": {"type": "integer"},
                "title": {"type": "string"},
                "summary": {"type": "string"},
                "story": {"type": "string"},
                "category": {"type": "string"},
                "goalAmountCents": {"type": "integer"},
                "currency": {"type": "string"},
                "coverImageUrl": {"type": "string"},
                "legalEntityId": {"type": "string"}
            }
        },
        "SubmitVerificationRequest": {
            "type": "object",
            "properties": {
                "idDocumentFrontUrl": {"type": "string"},
                "idDocumentFrontMime": {"type": "string"},
                "idDocumentBackUrl": {"type": "string"},
                "idDocumentBackMime": {"type": "string"},
                "supportingDocs": {"type": "array", "items": {"type": "object"}},
                "campaignStory": {"type": "string"},
                "referenceContactName": {"type": "string"},
                "referenceContactEmail": {"type": "string"},
                "referenceContactPhone": {"type": "string"}
            }
        },
        "ReviewDecisionRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected", "pending"]},
                "notes": {"type": "string"}
            }
        },
        "CreateDonationRequest": {
            "type": "object",
            "required": ["campaignId", "donorEmail", "amountCents", "currency", "paymentRef"],
            "properties": {
                "campaignId": {"type": "string"},
                "donorName": {"type": "string"},
                "donorEmail": {"type": "string"},
                "amountCents": {"type": "integer"},
                "currency": {"type": "string"},
                "message": {"type": "string"},
                "anonymous": {"type": "boolean"},
                "paymentRef": {"type": "string"}
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
