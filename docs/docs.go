// Package docs registers the OpenAPI description served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "FootIQ"},
        "license": {"name": "MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/metrics/definitions": {
            "get": {
                "description": "Returns every registered metric with its provider type ID, missing-data semantics and per-90 rule. Supports ETag revalidation.",
                "produces": ["application/json"],
                "tags": ["metrics"],
                "summary": "Get metric definitions",
                "parameters": [
                    {"enum": ["L1", "L2"], "type": "string", "description": "Raw metrics available at this depth", "name": "depth", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DefinitionsResponse"}},
                    "304": {"description": "Not modified"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/route": {
            "post": {
                "description": "Classifies the query into Surface, Deep or Compare, applies max_depth and data_mode constraints and returns the allowed tools with their bindings. Router aborts are returned in the abort field with status 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["router"],
                "summary": "Route a query",
                "parameters": [
                    {"description": "Query, history and constraints", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/engine.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/analyze": {
            "post": {
                "description": "Routes the query, resolves the player, fetches the window's games (and lineups at L2), then returns aggregated, derived and baseline-compared metrics with diagnostics.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyze"],
                "summary": "Analyze a query",
                "parameters": [
                    {"description": "Analysis request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/engine.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "engine.Request": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "entity": {"type": "string"},
                "athlete_id": {"type": "integer"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/router.Message"}},
                "constraints": {"$ref": "#/definitions/router.Constraints"},
                "window": {"$ref": "#/definitions/aggregate.Window"},
                "league": {"type": "string"},
                "season": {"type": "string"},
                "position": {"type": "string"},
                "metrics": {"type": "array", "items": {"type": "string"}},
                "form_metric": {"type": "string"}
            }
        },
        "router.Message": {
            "type": "object",
            "properties": {"role": {"type": "string"}, "content": {"type": "string"}}
        },
        "router.Constraints": {
            "type": "object",
            "properties": {
                "max_depth": {"type": "string", "enum": ["auto", "L1", "L2"]},
                "data_mode": {"type": "string", "enum": ["live", "replay"]},
                "allow_live_fetch": {"type": "boolean"}
            }
        },
        "aggregate.Window": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["last_n", "season", "date_range"]},
                "n": {"type": "integer"},
                "season": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"}
            }
        },
        "handler.DefinitionsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "definitions": {"type": "array", "items": {"type": "object"}}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"},
                        "trace_id": {"type": "string"},
                        "options": {"type": "array", "items": {"type": "object"}}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8001",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "FootIQ Metric Engine API",
	Description:      "Deterministic routing, per-90 normalization and league baseline comparison for football player statistics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
