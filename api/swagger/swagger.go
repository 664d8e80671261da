package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Portal Cidadão API",
        "description": "Citizen issue reporting: submissions, photos, administrator triage and developer maintenance.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Admin", "description": "Developer maintenance"},
        {"name": "Auth", "description": "Resolved session of the caller"},
        {"name": "Demandas", "description": "Citizen submissions and triage"},
        {"name": "Dashboard", "description": "Administrator statistics"},
        {"name": "Fotos", "description": "Demanda photos"},
        {"name": "Geocode", "description": "Reverse geocoding proxy"}
    ],
    "paths": {
        "/admin/purge-demandas": {
            "post": {
                "tags": ["Admin"],
                "summary": "Preview or purge demandas",
                "description": "Developer only. dryRun defaults to true. Responses are not enveloped.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/PurgeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Preview or execution summary", "schema": {"$ref": "#/definitions/PurgeResponse"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/PurgeError"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/PurgeError"}},
                    "403": {"description": "Not a developer", "schema": {"$ref": "#/definitions/PurgeError"}},
                    "409": {"description": "Same purge already running", "schema": {"$ref": "#/definitions/PurgeError"}},
                    "500": {"description": "Store failure, with partial counts when deletion stopped part way", "schema": {"$ref": "#/definitions/PurgeError"}}
                }
            }
        },
        "/auth/session": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/session/events": {
            "post": {
                "tags": ["Auth"],
                "summary": "Report an auth state change",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AuthEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No active session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/demandas": {
            "get": {
                "tags": ["Demandas"],
                "summary": "List demandas",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "categoria", "in": "query", "type": "string"},
                    {"name": "bairro", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Demandas"],
                "summary": "Submit a demanda",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDemandaRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/demandas/export": {
            "get": {
                "tags": ["Demandas"],
                "summary": "Export demandas as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/demandas/{id}/status": {
            "patch": {
                "tags": ["Demandas"],
                "summary": "Change demanda status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Administrator dashboard statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/upload-foto": {
            "post": {
                "tags": ["Fotos"],
                "summary": "Upload a demanda photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or unsupported file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/geocode/reverse": {
            "get": {
                "tags": ["Geocode"],
                "summary": "Reverse geocode a coordinate",
                "parameters": [
                    {"name": "lat", "in": "query", "required": true, "type": "number"},
                    {"name": "lon", "in": "query", "required": true, "type": "number"},
                    {"name": "zoom", "in": "query", "type": "integer"},
                    {"name": "lang", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid coordinate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PurgeRequest": {
            "type": "object",
            "properties": {
                "dryRun": {"type": "boolean"},
                "email": {"type": "string"},
                "descricao": {"type": "string"},
                "status": {"type": "array", "items": {"type": "string", "enum": ["aberta", "em_andamento", "resolvida"]}},
                "dataInicial": {"type": "string"},
                "dataFinal": {"type": "string"}
            }
        },
        "PurgeResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "dryRun": {"type": "boolean"},
                "count": {"type": "integer"},
                "sample": {"type": "array", "items": {"$ref": "#/definitions/PurgeCandidate"}},
                "deleted": {"type": "integer"},
                "removedPhotos": {"type": "integer"}
            }
        },
        "PurgeCandidate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "foto_url": {"type": "string"}
            }
        },
        "PurgeError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "deleted": {"type": "integer"},
                "removedPhotos": {"type": "integer"}
            }
        },
        "AuthEventRequest": {
            "type": "object",
            "properties": {
                "event": {"type": "string", "enum": ["INITIAL_SESSION", "SIGNED_IN", "TOKEN_REFRESHED", "SIGNED_OUT"]}
            },
            "required": ["event"]
        },
        "CreateDemandaRequest": {
            "type": "object",
            "properties": {
                "categoria": {"type": "string"},
                "descricao": {"type": "string"},
                "foto_url": {"type": "string"},
                "localizacao": {
                    "type": "object",
                    "properties": {
                        "lat": {"type": "number"},
                        "lng": {"type": "number"}
                    },
                    "required": ["lat", "lng"]
                },
                "endereco": {"type": "string"},
                "bairro": {"type": "string"}
            },
            "required": ["categoria", "localizacao"]
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["aberta", "em_andamento", "resolvida"]}
            },
            "required": ["status"]
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
