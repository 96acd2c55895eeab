// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init --v3.1 -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}",
        "license": {"name": "MIT"}
    },
    "servers": [{"url": "{{.BasePath}}"}],
    "tags": [
        {"name": "pendencies", "description": "CPF/CNPJ debt lookup across credit bureaus"},
        {"name": "audits", "description": "Search audit trail"},
        {"name": "system", "description": "Service status"}
    ],
    "paths": {
        "/pendencies/search": {
            "post": {
                "operationId": "searchPendencies",
                "tags": ["pendencies"],
                "summary": "Search pendencies",
                "description": "Queries every provider with a configured key and returns the deduplicated records, most urgent first. Provider failures never fail the request.",
                "parameters": [{"$ref": "#/components/parameters/ClientID"}],
                "requestBody": {
                    "required": true,
                    "content": {"application/json": {"schema": {"$ref": "#/components/schemas/SearchPendenciesRequest"}}}
                },
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/SearchPendenciesEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "422": {"$ref": "#/components/responses/Error"},
                    "429": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/pendencies/validate/{tax_id}": {
            "get": {
                "operationId": "validateTaxID",
                "tags": ["pendencies"],
                "summary": "Validate a CPF or CNPJ",
                "parameters": [{"name": "tax_id", "in": "path", "required": true, "schema": {"type": "string"}}],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ValidationEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/pendencies/history": {
            "get": {
                "operationId": "getSearchHistory",
                "tags": ["pendencies"],
                "summary": "Recent searches, newest first",
                "parameters": [{"$ref": "#/components/parameters/ClientID"}],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/HistoryEnvelope"}}}},
                    "503": {"$ref": "#/components/responses/Error"}
                }
            },
            "delete": {
                "operationId": "clearSearchHistory",
                "tags": ["pendencies"],
                "summary": "Clear recent searches",
                "parameters": [{"$ref": "#/components/parameters/ClientID"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "503": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/pendencies/providers": {
            "get": {
                "operationId": "listProviders",
                "tags": ["pendencies"],
                "summary": "Registered providers",
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ProvidersEnvelope"}}}}
                }
            }
        },
        "/pendencies/audits": {
            "get": {
                "operationId": "listSearchAudits",
                "tags": ["audits"],
                "summary": "List search audits",
                "parameters": [
                    {"name": "page", "in": "query", "schema": {"type": "integer", "minimum": 1}},
                    {"name": "page_size", "in": "query", "schema": {"type": "integer", "minimum": 1, "maximum": 100}},
                    {"name": "client_id", "in": "query", "schema": {"type": "string"}},
                    {"name": "tax_id", "in": "query", "schema": {"type": "string"}},
                    {"name": "kind", "in": "query", "schema": {"type": "string", "enum": ["CPF", "CNPJ"]}},
                    {"name": "from", "in": "query", "schema": {"type": "string", "format": "date-time"}},
                    {"name": "to", "in": "query", "schema": {"type": "string", "format": "date-time"}},
                    {"name": "sort_by", "in": "query", "schema": {"type": "string", "default": "searched_at"}},
                    {"name": "sort_order", "in": "query", "schema": {"type": "string", "enum": ["asc", "desc"]}}
                ],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AuditListEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "404": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/pendencies/audits/{id}": {
            "get": {
                "operationId": "getSearchAudit",
                "tags": ["audits"],
                "summary": "Get a search audit",
                "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}}],
                "responses": {
                    "200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AuditEnvelope"}}}},
                    "400": {"$ref": "#/components/responses/Error"},
                    "404": {"$ref": "#/components/responses/Error"}
                }
            }
        },
        "/system/ping": {
            "get": {
                "operationId": "pingSystem",
                "tags": ["system"],
                "summary": "Ping the API",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/system/info": {
            "get": {
                "operationId": "getSystemSystemInfo",
                "tags": ["system"],
                "summary": "Get system information",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "components": {
        "parameters": {
            "ClientID": {
                "name": "X-Client-ID",
                "in": "header",
                "description": "Client identifier scoping history and rate limits; the client IP is used when absent",
                "schema": {"type": "string", "maxLength": 128}
            }
        },
        "responses": {
            "Error": {
                "description": "Error",
                "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}
            }
        },
        "schemas": {
            "ErrorInfo": {
                "type": "object",
                "properties": {
                    "code": {"type": "string", "example": "ERR_INVALID_TAX_ID"},
                    "message": {"type": "string"},
                    "request_id": {"type": "string"},
                    "timestamp": {"type": "string", "format": "date-time"},
                    "details": {
                        "type": "array",
                        "items": {
                            "type": "object",
                            "properties": {"field": {"type": "string"}, "message": {"type": "string"}}
                        }
                    }
                }
            },
            "ErrorResponse": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean", "example": false},
                    "error": {"$ref": "#/components/schemas/ErrorInfo"}
                }
            },
            "Meta": {
                "type": "object",
                "properties": {
                    "total": {"type": "integer"},
                    "page": {"type": "integer"},
                    "page_size": {"type": "integer"},
                    "total_pages": {"type": "integer"}
                }
            },
            "SearchPendenciesRequest": {
                "type": "object",
                "required": ["tax_id"],
                "properties": {
                    "tax_id": {"type": "string", "example": "111.444.777-35"},
                    "api_keys": {
                        "type": "object",
                        "description": "Per-call provider keys: SERASA, SPC, BOA_VISTA, QUOD, PGFN",
                        "additionalProperties": {"type": "string"}
                    }
                }
            },
            "DebtRecord": {
                "type": "object",
                "properties": {
                    "id": {"type": "string"},
                    "creditor": {"type": "string"},
                    "description": {"type": "string"},
                    "original_amount": {"type": "string", "example": "1200.00"},
                    "current_amount": {"type": "string", "example": "1523.40"},
                    "due_date": {"type": "string", "format": "date-time"},
                    "last_update": {"type": "string", "format": "date-time"},
                    "status": {"type": "string", "enum": ["regular", "late", "renegotiated", "legal"]},
                    "type": {"type": "string", "enum": ["loan", "credit_card", "tax", "service", "other"]},
                    "source": {"type": "string"},
                    "contact": {
                        "type": "object",
                        "properties": {"phone": {"type": "string"}, "email": {"type": "string"}, "website": {"type": "string"}}
                    },
                    "payment_options": {
                        "type": "object",
                        "properties": {
                            "installments": {"type": "integer"},
                            "installment_amount": {"type": "string"},
                            "total_amount": {"type": "string"},
                            "discount_percent": {"type": "string"}
                        }
                    }
                }
            },
            "Outcome": {
                "type": "object",
                "properties": {
                    "provider": {"type": "string", "example": "SERASA"},
                    "name": {"type": "string", "example": "Serasa"},
                    "status": {"type": "string", "enum": ["ok", "empty", "skipped", "failed"]},
                    "records": {"type": "integer"},
                    "duration_ms": {"type": "integer"},
                    "error": {"type": "string"}
                }
            },
            "SearchPendenciesResponse": {
                "type": "object",
                "properties": {
                    "records": {"type": "array", "items": {"$ref": "#/components/schemas/DebtRecord"}},
                    "outcomes": {"type": "array", "items": {"$ref": "#/components/schemas/Outcome"}},
                    "summary": {
                        "type": "object",
                        "properties": {
                            "tax_id": {"type": "string", "example": "*******7735"},
                            "kind": {"type": "string", "enum": ["CPF", "CNPJ"]},
                            "count": {"type": "integer"},
                            "total_amount": {"type": "string"},
                            "degraded": {"type": "boolean"},
                            "all_failed": {"type": "boolean"},
                            "searched_at": {"type": "string", "format": "date-time"},
                            "duration_ms": {"type": "integer"}
                        }
                    }
                }
            },
            "SearchPendenciesEnvelope": {
                "type": "object",
                "properties": {"success": {"type": "boolean"}, "data": {"$ref": "#/components/schemas/SearchPendenciesResponse"}}
            },
            "ValidationEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {
                        "type": "object",
                        "properties": {
                            "valid": {"type": "boolean"},
                            "kind": {"type": "string"},
                            "normalized": {"type": "string"},
                            "formatted": {"type": "string"}
                        }
                    }
                }
            },
            "HistoryEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {"type": "object", "properties": {"entries": {"type": "array", "items": {"type": "string"}}}}
                }
            },
            "ProvidersEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {
                        "type": "object",
                        "properties": {
                            "providers": {
                                "type": "array",
                                "items": {
                                    "type": "object",
                                    "properties": {"code": {"type": "string"}, "name": {"type": "string"}, "configured": {"type": "boolean"}}
                                }
                            }
                        }
                    }
                }
            },
            "Audit": {
                "type": "object",
                "properties": {
                    "id": {"type": "string", "format": "uuid"},
                    "request_id": {"type": "string"},
                    "client_id": {"type": "string"},
                    "tax_id": {"type": "string"},
                    "kind": {"type": "string"},
                    "record_count": {"type": "integer"},
                    "providers_queried": {"type": "integer"},
                    "providers_failed": {"type": "integer"},
                    "providers_skipped": {"type": "integer"},
                    "outcomes": {"type": "array", "items": {"$ref": "#/components/schemas/Outcome"}},
                    "duration_ms": {"type": "integer"},
                    "searched_at": {"type": "string", "format": "date-time"}
                }
            },
            "AuditEnvelope": {
                "type": "object",
                "properties": {"success": {"type": "boolean"}, "data": {"$ref": "#/components/schemas/Audit"}}
            },
            "AuditListEnvelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {"type": "array", "items": {"$ref": "#/components/schemas/Audit"}},
                    "meta": {"$ref": "#/components/schemas/Meta"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pendency API",
	Description:      "Aggregates the pendencies (debts) registered for a CPF or CNPJ across Brazilian credit bureaus.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
