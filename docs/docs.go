// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Email not verified"}}
            }
        },
        "/register/otp/verify": {
            "post": {
                "tags": ["Auth"],
                "summary": "Verify email code",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid code"}, "404": {"description": "Not Found"}}
            }
        },
        "/register/otp/resend": {
            "post": {
                "tags": ["Auth"],
                "summary": "Resend email code",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/password/forgot": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request password reset email",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/password/reset": {
            "post": {
                "tags": ["Auth"],
                "summary": "Reset password with emailed token",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or expired token"}}
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Current user and home target",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "User by id (contractors and developers)",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/chats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chats"],
                "summary": "List chats",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Chat"}}}}
            }
        },
        "/chats/{id}/read": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chats"],
                "summary": "Mark chat read",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "Chat ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.unreadResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/chats/{id}/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chats"],
                "summary": "List chat messages",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Chat ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page size (default 50)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.ChatMessage"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chats"],
                "summary": "Send chat message",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Chat ID", "name": "id", "in": "path", "required": true},
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.sendMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.ChatMessage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/unread": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Unread"],
                "summary": "Unread badge count",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.unreadResponse"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Unread"],
                "summary": "Set unread badge count",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "New total", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.setUnreadRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.unreadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Unread"],
                "summary": "Reset unread badge count",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.unreadResponse"}}}
            }
        },
        "/unread/decrease": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Unread"],
                "summary": "Decrease unread badge count",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "Amount", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.decreaseUnreadRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.unreadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/unread/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-sent events named \"unread\" carrying {\"count\": n}, first the current value, then one per change",
                "tags": ["Unread"],
                "summary": "Stream unread badge count",
                "produces": ["text/event-stream"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.unreadResponse"}}}
            }
        }
    },
    "definitions": {
        "handlers.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handlers.unreadResponse": {
            "type": "object",
            "properties": {"count": {"type": "integer"}}
        },
        "handlers.setUnreadRequest": {
            "type": "object",
            "required": ["count"],
            "properties": {"count": {"type": "integer"}}
        },
        "handlers.decreaseUnreadRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {"amount": {"type": "integer"}}
        },
        "handlers.sendMessageRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}}
        },
        "models.ChatMessage": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "chat_id": {"type": "integer"},
                "sender_id": {"type": "integer"},
                "text": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "role_id": {"type": "integer"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "models.Chat": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "is_group": {"type": "boolean"},
                "members": {"type": "array", "items": {"type": "integer"}},
                "unread_count": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "estatehub API",
	Description:      "Marketplace backend: registration with email codes, chats and unread badges.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
