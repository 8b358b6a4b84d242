// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "description": "Always returns 200 OK if the service is running. Used for liveness probes.",
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Health check (liveness)",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Checks connectivity to critical dependencies (Postgres, cache Redis, and asynq Redis). Returns 200 only when all dependencies are reachable.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "All dependencies ready", "schema": {"$ref": "#/definitions/api.ReadyResponse"}},
                    "503": {"description": "At least one dependency unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/rates": {
            "get": {
                "description": "Resolves the requested symbols through the rate source chain (cache first). A partial answer is returned with complete=false and the per-source errors.",
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Get rates for a base currency",
                "parameters": [
                    {"maxLength": 3, "minLength": 3, "type": "string", "description": "Base currency code (3 letters)", "name": "base", "in": "query", "required": true},
                    {"type": "string", "example": "USD,GBP", "description": "Comma separated destination currency codes", "name": "symbols", "in": "query", "required": true},
                    {"maximum": 12, "minimum": 0, "type": "integer", "description": "Round rates to this many decimal places", "name": "places", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Rates resolved (possibly partially)", "schema": {"$ref": "#/definitions/api.RatesResponse"}},
                    "400": {"description": "Invalid currency code or parameters", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Rate source chain not configured", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/rates/cache": {
            "delete": {
                "description": "Drops every cached rate; the next lookup goes to the sources.",
                "tags": ["rates"],
                "summary": "Clear the rate cache",
                "responses": {
                    "204": {"description": "Cache cleared"},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/rates/refresh": {
            "post": {
                "description": "Enqueues a background refresh of the canonical currency against the watch list. Returns immediately.",
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Request asynchronous rate refresh",
                "responses": {
                    "202": {"description": "Refresh accepted", "schema": {"$ref": "#/definitions/api.RefreshResponse"}},
                    "503": {"description": "Task queue unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid currency code format"}
            }
        },
        "api.RatesResponse": {
            "type": "object",
            "properties": {
                "base": {"type": "string", "example": "EUR"},
                "complete": {"type": "boolean", "example": true},
                "date": {"type": "string", "example": "2026-10-16"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}},
                "from_cache": {"type": "boolean", "example": false},
                "rates": {"type": "object", "additionalProperties": {"type": "string"}},
                "success": {"type": "boolean", "example": true}
            }
        },
        "api.ReadyResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ready"}
            }
        },
        "api.RefreshResponse": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string", "example": "5f0c6a0e-4a43-4a8e-9c0b-8d1f7b0d7c1e"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FX Chain API",
	Description:      "Resolves exchange rates through an ordered chain of rate sources with a shared TTL cache.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
